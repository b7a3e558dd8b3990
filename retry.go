package yupdates

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig configures opt-in automatic retries. The SDK makes no
// retries unless MaxRetries is set above zero (or a custom
// RetryStrategy is supplied); by default every failure surfaces to the
// caller immediately and any backoff policy is theirs to apply.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts beyond the
	// initial one. Zero disables retries. Default: 0.
	MaxRetries int

	// InitialInterval is the delay before the first retry.
	// Default: 100ms.
	InitialInterval time.Duration

	// MaxInterval caps the delay between retries. Default: 5s.
	MaxInterval time.Duration

	// Multiplier is the exponential backoff growth factor.
	// Default: 2.0.
	Multiplier float64
}

// RetryStrategy decides whether and when an attempt is retried. Only
// errors that may succeed on retry (see IsRetryable) should be retried;
// validation and deserialization failures never will.
type RetryStrategy interface {
	// NextInterval returns the delay before retry number attempt,
	// starting at 1.
	NextInterval(attempt int) time.Duration

	// ShouldRetry reports whether the error warrants retry number
	// attempt, starting at 1.
	ShouldRetry(err error, attempt int) bool
}

// ExponentialBackoffStrategy retries with exponentially growing,
// jittered delays:
//
//	base = InitialInterval * Multiplier^(attempt-1)
//	delay = min(base, MaxInterval) ± Jitter
type ExponentialBackoffStrategy struct {
	// InitialInterval is the first retry delay.
	InitialInterval time.Duration
	// MaxInterval caps the delay.
	MaxInterval time.Duration
	// Multiplier is the growth factor per attempt.
	Multiplier float64
	// Jitter is the randomization factor in [0, 1]; 0.3 means ±30%.
	Jitter float64
	// MaxAttempts is the maximum number of retries. Zero means none.
	MaxAttempts int
}

// NextInterval calculates the delay before the given retry attempt.
func (s *ExponentialBackoffStrategy) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	interval := float64(s.InitialInterval) * math.Pow(s.Multiplier, float64(attempt-1))
	if interval > float64(s.MaxInterval) {
		interval = float64(s.MaxInterval)
	}
	if s.Jitter > 0 {
		jitterRange := interval * s.Jitter
		interval += jitterRange * (2*rand.Float64() - 1)
	}
	if interval < 0 {
		interval = 0
	}
	return time.Duration(interval)
}

// ShouldRetry allows retryable errors until MaxAttempts is reached.
func (s *ExponentialBackoffStrategy) ShouldRetry(err error, attempt int) bool {
	return attempt <= s.MaxAttempts && IsRetryable(err)
}

// NoRetryStrategy disables retries entirely. It is the default.
type NoRetryStrategy struct{}

// NextInterval always returns 0.
func (s *NoRetryStrategy) NextInterval(attempt int) time.Duration { return 0 }

// ShouldRetry always returns false.
func (s *NoRetryStrategy) ShouldRetry(err error, attempt int) bool { return false }

// strategyFromConfig resolves the effective strategy: an explicit
// RetryStrategy wins, then RetryConfig when opted in, then no retries.
func strategyFromConfig(config *Config) RetryStrategy {
	if config.RetryStrategy != nil {
		return config.RetryStrategy
	}
	if config.RetryConfig.MaxRetries > 0 {
		return &ExponentialBackoffStrategy{
			InitialInterval: config.RetryConfig.InitialInterval,
			MaxInterval:     config.RetryConfig.MaxInterval,
			Multiplier:      config.RetryConfig.Multiplier,
			Jitter:          0.3,
			MaxAttempts:     config.RetryConfig.MaxRetries,
		}
	}
	return &NoRetryStrategy{}
}

// retryExecutor drives a function under a retry strategy, reporting
// attempts to the observer.
type retryExecutor struct {
	strategy RetryStrategy
	observer Observer
}

func newRetryExecutor(strategy RetryStrategy, observer Observer) *retryExecutor {
	if strategy == nil {
		strategy = &NoRetryStrategy{}
	}
	if observer == nil {
		observer = &NoopObserver{}
	}
	return &retryExecutor{strategy: strategy, observer: observer}
}

// Execute runs fn, retrying per the strategy. method and path identify
// the operation for observer hooks. The last error is returned
// unwrapped so its classification is preserved.
func (re *retryExecutor) Execute(ctx context.Context, method, path string, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !re.strategy.ShouldRetry(err, attempt+1) {
			return err
		}
		delay := re.strategy.NextInterval(attempt + 1)
		re.observer.OnRetryAttempt(method, path, attempt+1, delay, err)
		select {
		case <-ctx.Done():
			return classifyTransportErr(ctx.Err(), method, path)
		case <-time.After(delay):
		}
	}
}
