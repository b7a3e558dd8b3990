package yupdates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	userAgent       = "yupdates-go-sdk/1.0.0"
	requestIDHeader = "X-Request-ID"
	tracerName      = "github.com/yupdates/yupdates-sdk-go"
)

// httpTransport handles HTTP communication with the Yupdates API. It
// attaches the auth token header, serializes request bodies, and hands
// back the raw status and body of each exchange. It never retries on
// its own: retry policy lives above it so error classification can
// decide retryability.
//
// The transport holds no call-specific mutable state, so a single
// instance is safe for any number of concurrent calls.
type httpTransport struct {
	// client is the underlying HTTP client.
	client *http.Client
	// config holds the SDK configuration.
	config *Config
	// baseURL is the parsed base URL for the API.
	baseURL *url.URL
	// observer for monitoring operations.
	observer Observer
	// tracer is non-nil when OpenTelemetry spans were enabled.
	tracer trace.Tracer
}

// rawResponse is one completed HTTP exchange: the status and the
// unparsed body, plus the client-generated request ID for correlating
// errors with traces and logs.
type rawResponse struct {
	status    int
	body      []byte
	requestID string
}

// newHTTPTransport creates a transport from a validated Config.
func newHTTPTransport(config *Config) (*httpTransport, error) {
	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, NewError(ErrorTypeConfig, fmt.Sprintf("invalid base URL: %v", err), ErrInvalidConfig)
	}

	transport := &http.Transport{
		MaxIdleConns:        config.TransportConfig.MaxIdleConns,
		MaxConnsPerHost:     config.TransportConfig.MaxConnsPerHost,
		IdleConnTimeout:     config.TransportConfig.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	t := &httpTransport{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		config:   config,
		baseURL:  baseURL,
		observer: config.Observer,
	}
	if config.TracerProvider != nil {
		t.tracer = config.TracerProvider.Tracer(tracerName)
	}
	return t, nil
}

// send performs a single HTTP exchange. A nil error means the service
// answered, whatever the status; the caller maps non-2xx statuses to
// service errors. A non-nil error is always transport-level: connection
// failure, TLS failure, or timeout, with timeout distinguished from
// refusal.
func (t *httpTransport) send(ctx context.Context, method, path string, query url.Values, body interface{}) (*rawResponse, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, NewError(ErrorTypeValidation, fmt.Sprintf("marshaling request body: %v", err), err)
		}
		bodyReader = bytes.NewReader(data)
	}

	fullURL := t.baseURL.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		fullURL.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL.String(), bodyReader)
	if err != nil {
		return nil, NewError(ErrorTypeValidation, fmt.Sprintf("creating request: %v", err), err)
	}

	requestID := uuid.NewString()
	req.Header.Set(authTokenHeader, t.config.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(requestIDHeader, requestID)
	for key, value := range t.config.Headers {
		// Set canonicalizes keys, so the comparison must too or a
		// lowercase key would replace the token.
		if http.CanonicalHeaderKey(key) == authTokenHeader {
			continue
		}
		req.Header.Set(key, value)
	}

	var span trace.Span
	if t.tracer != nil {
		ctx, span = t.tracer.Start(ctx, fmt.Sprintf("yupdates.%s %s", method, path),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("http.request.method", method),
				attribute.String("url.path", path),
				attribute.String("yupdates.request_id", requestID),
			))
		defer span.End()
		req = req.WithContext(ctx)
	}

	t.observer.OnRequestStart(method, path)
	start := time.Now()

	resp, err := t.client.Do(req)
	if err != nil {
		terr := classifyTransportErr(err, method, path)
		terr.RequestID = requestID
		terr.WithContext(&ErrorContext{
			URL:      fullURL.String(),
			Method:   method,
			Duration: time.Since(start),
		})
		t.observer.OnRequestEnd(method, path, time.Since(start), terr)
		if span != nil {
			span.RecordError(terr)
			span.SetStatus(codes.Error, terr.Message)
		}
		return nil, terr
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		terr := classifyTransportErr(err, method, path)
		terr.RequestID = requestID
		t.observer.OnRequestEnd(method, path, time.Since(start), terr)
		if span != nil {
			span.RecordError(terr)
			span.SetStatus(codes.Error, terr.Message)
		}
		return nil, terr
	}

	t.observer.OnRequestEnd(method, path, time.Since(start), nil)
	if span != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		if resp.StatusCode >= 400 {
			span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		}
	}

	return &rawResponse{
		status:    resp.StatusCode,
		body:      respBody,
		requestID: requestID,
	}, nil
}

// close releases idle connections. The transport has no other state to
// tear down.
func (t *httpTransport) close() {
	t.client.CloseIdleConnections()
}

// classifyTransportErr maps a transport failure into the SDK error
// taxonomy, distinguishing an elapsed timeout from a refused or
// otherwise failed connection.
func classifyTransportErr(err error, method, path string) *Error {
	op := method + " " + path
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(ErrorTypeTimeout, fmt.Sprintf("timeout during %s", op), err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(ErrorTypeTimeout, fmt.Sprintf("timeout during %s", op), err)
	}
	if errors.Is(err, context.Canceled) {
		return NewError(ErrorTypeNetwork, fmt.Sprintf("canceled during %s", op), err)
	}
	return NewError(ErrorTypeNetwork, fmt.Sprintf("connection failure during %s: %v", op, err), err)
}
