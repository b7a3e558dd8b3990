package yupdates

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyServer fails the first failures requests with status, then
// answers pings normally.
func flakyServer(t *testing.T, failures int64, status int) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= failures {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]interface{}{"code": status, "error": "try later"})
			return
		}
		json.NewEncoder(w).Encode(PingResponse{Code: 200, Message: "pong"})
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func fastRetryStrategy(maxAttempts int) *ExponentialBackoffStrategy {
	return &ExponentialBackoffStrategy{
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
		MaxAttempts:     maxAttempts,
	}
}

func TestNoRetriesByDefault(t *testing.T) {
	server, calls := flakyServer(t, 1, http.StatusInternalServerError)

	client := testClient(t, server)

	_, err := client.Ping(context.Background())
	assert.ErrorIs(t, err, ErrServerError)
	assert.Equal(t, int64(1), calls.Load(), "No retry unless opted in")
}

func TestRetriesServerErrors(t *testing.T) {
	server, calls := flakyServer(t, 2, http.StatusServiceUnavailable)

	config := DefaultConfig().
		WithBaseURL(server.URL).
		WithToken(testToken).
		WithRetryStrategy(fastRetryStrategy(3))
	client, err := NewAsyncClient(config)
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Ping(context.Background())
	require.NoError(t, err, "Retries ride out transient failures")
	assert.Equal(t, "pong", resp.Message)
	assert.Equal(t, int64(3), calls.Load())
}

func TestRetriesExhausted(t *testing.T) {
	server, calls := flakyServer(t, 100, http.StatusInternalServerError)

	config := DefaultConfig().
		WithBaseURL(server.URL).
		WithToken(testToken).
		WithRetryStrategy(fastRetryStrategy(2))
	client, err := NewAsyncClient(config)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Ping(context.Background())
	assert.ErrorIs(t, err, ErrServerError)
	assert.Equal(t, int64(3), calls.Load(), "Initial attempt plus two retries")
}

func TestNeverRetriesClientErrors(t *testing.T) {
	server, calls := flakyServer(t, 100, http.StatusBadRequest)

	config := DefaultConfig().
		WithBaseURL(server.URL).
		WithToken(testToken).
		WithRetryStrategy(fastRetryStrategy(3))
	client, err := NewAsyncClient(config)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Ping(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, int64(1), calls.Load(), "4xx will not succeed on retry")
}

func TestWithRetriesConfig(t *testing.T) {
	server, calls := flakyServer(t, 1, http.StatusTooManyRequests)

	config := DefaultConfig().
		WithBaseURL(server.URL).
		WithToken(testToken).
		WithRetries(2)
	config.RetryConfig.InitialInterval = time.Millisecond
	client, err := NewAsyncClient(config)
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Message)
	assert.Equal(t, int64(2), calls.Load())
}

func TestExponentialBackoffStrategy_NextInterval(t *testing.T) {
	s := &ExponentialBackoffStrategy{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
		MaxAttempts:     5,
	}

	assert.Equal(t, 100*time.Millisecond, s.NextInterval(1))
	assert.Equal(t, 200*time.Millisecond, s.NextInterval(2))
	assert.Equal(t, 400*time.Millisecond, s.NextInterval(3))
	assert.Equal(t, time.Second, s.NextInterval(5), "Growth is capped at MaxInterval")
	assert.Equal(t, time.Duration(0), s.NextInterval(0))
}

func TestExponentialBackoffStrategy_Jitter(t *testing.T) {
	s := &ExponentialBackoffStrategy{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
		Jitter:          0.3,
		MaxAttempts:     5,
	}

	for i := 0; i < 50; i++ {
		got := s.NextInterval(1)
		assert.GreaterOrEqual(t, got, 70*time.Millisecond)
		assert.LessOrEqual(t, got, 130*time.Millisecond)
	}
}

func TestExponentialBackoffStrategy_ShouldRetry(t *testing.T) {
	s := fastRetryStrategy(2)
	retryable := NewError(ErrorTypeNetwork, "refused", nil)

	assert.True(t, s.ShouldRetry(retryable, 1))
	assert.True(t, s.ShouldRetry(retryable, 2))
	assert.False(t, s.ShouldRetry(retryable, 3), "MaxAttempts bounds the retries")
	assert.False(t, s.ShouldRetry(NewError(ErrorTypeValidation, "bad", nil), 1))
}

func TestStrategyFromConfig(t *testing.T) {
	assert.IsType(t, &NoRetryStrategy{}, strategyFromConfig(DefaultConfig()))
	assert.IsType(t, &ExponentialBackoffStrategy{}, strategyFromConfig(DefaultConfig().WithRetries(3)))

	custom := fastRetryStrategy(1)
	assert.Same(t, custom, strategyFromConfig(DefaultConfig().WithRetryStrategy(custom)),
		"An explicit strategy wins over RetryConfig")
}

func TestRetryExecutor_ContextCancelled(t *testing.T) {
	re := newRetryExecutor(fastRetryStrategy(10), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	failing := NewError(ErrorTypeNetwork, "refused", nil)
	err := re.Execute(ctx, http.MethodGet, "ping/", func() error { return failing })
	require.Error(t, err)
	assert.False(t, errors.Is(err, failing), "Cancellation preempts further attempts")
}
