package yupdates

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Common errors returned by the SDK. These can be used with errors.Is()
// to check for specific error conditions.
//
// Example:
//
//	_, err := client.Ping(ctx)
//	if errors.Is(err, yupdates.ErrTimeout) {
//	    // The transport timeout elapsed
//	} else if errors.Is(err, yupdates.ErrMissingToken) {
//	    // YUPDATES_API_TOKEN is not set
//	}
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingToken is returned when no API token could be found at
	// client construction time.
	ErrMissingToken = errors.New("API token is missing, set " + EnvAPIToken)

	// ErrInvalidInput is returned when caller-supplied parameters fail
	// local validation before any network call is made.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout is returned when a request times out. It is distinct
	// from a refused or otherwise failed connection.
	ErrTimeout = errors.New("request timeout")

	// ErrServerError is returned for 5xx responses from the service.
	ErrServerError = errors.New("server error")

	// ErrRateLimited is returned when the service responds with 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidResponse is returned when a 2xx response body cannot be
	// decoded into the expected shape.
	ErrInvalidResponse = errors.New("invalid response from service")

	// ErrClientClosed is returned when an operation is attempted on a
	// closed SyncClient.
	ErrClientClosed = errors.New("client is closed")
)

// ErrorType categorizes an error for handling decisions. Different
// types have different retry semantics: network, timeout, server and
// rate-limit errors may be retried at the caller's discretion, while
// config, validation, client and deserialization errors will not
// succeed on retry.
type ErrorType int

const (
	// ErrorTypeUnknown represents an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeConfig represents a construction-time configuration
	// error (missing token, unparseable base URL).
	ErrorTypeConfig
	// ErrorTypeValidation represents locally rejected input.
	ErrorTypeValidation
	// ErrorTypeNetwork represents connection-level failures
	// (connection refused, DNS, TLS).
	ErrorTypeNetwork
	// ErrorTypeTimeout represents an elapsed transport timeout or
	// context deadline.
	ErrorTypeTimeout
	// ErrorTypeServer represents 5xx responses from the service.
	ErrorTypeServer
	// ErrorTypeClient represents 4xx responses from the service.
	ErrorTypeClient
	// ErrorTypeRateLimit represents 429 responses.
	ErrorTypeRateLimit
	// ErrorTypeDeserialization represents a 2xx body that did not
	// match the expected schema. Treated as a contract violation, not
	// silently ignored.
	ErrorTypeDeserialization
)

// String returns the string representation of the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeConfig:
		return "config"
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeServer:
		return "server"
	case ErrorTypeClient:
		return "client"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeDeserialization:
		return "deserialization"
	default:
		return "unknown"
	}
}

// Error is the SDK's error type. Every failure surfaced by a public
// operation is (or wraps) one of these, carrying enough context to
// diagnose without retrying blindly.
//
// Error supports errors.Is and errors.As:
//
//	var yerr *yupdates.Error
//	if errors.As(err, &yerr) {
//	    switch yerr.Type {
//	    case yupdates.ErrorTypeTimeout:
//	        // back off and retry
//	    case yupdates.ErrorTypeValidation:
//	        // fix the input, retrying is pointless
//	    }
//	}
type Error struct {
	// Type categorizes the error.
	Type ErrorType `json:"type"`
	// Message is a human-readable description.
	Message string `json:"message"`
	// RequestID is the client-generated request identifier, when the
	// error is tied to a specific request.
	RequestID string `json:"request_id,omitempty"`
	// Timestamp is when the error was created.
	Timestamp time.Time `json:"timestamp"`
	// Context describes the failed operation, when known.
	Context *ErrorContext `json:"context,omitempty"`
	// wrapped is the underlying error, if any.
	wrapped error
}

// ErrorContext describes the request that failed.
type ErrorContext struct {
	// URL is the full URL of the failed request. Never contains the
	// token (it travels in a header).
	URL string `json:"url,omitempty"`
	// Method is the HTTP method used.
	Method string `json:"method,omitempty"`
	// Duration is how long the attempt took before failing.
	Duration time.Duration `json:"duration,omitempty"`
	// RetryCount is the number of retry attempts made, if retries
	// were opted into.
	RetryCount int `json:"retry_count,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Context != nil && e.Context.URL != "" {
		return fmt.Sprintf("%s error: %s (%s %s)", e.Type, e.Message, e.Context.Method, e.Context.URL)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.wrapped
}

// Is implements errors.Is for the package sentinel errors.
func (e *Error) Is(target error) bool {
	switch e.Type {
	case ErrorTypeConfig:
		return target == ErrInvalidConfig
	case ErrorTypeValidation:
		return target == ErrInvalidInput
	case ErrorTypeTimeout:
		return target == ErrTimeout
	case ErrorTypeServer:
		return target == ErrServerError
	case ErrorTypeRateLimit:
		return target == ErrRateLimited
	case ErrorTypeDeserialization:
		return target == ErrInvalidResponse
	}
	return false
}

// IsRetryable returns true if an operation failing with this error may
// succeed on retry.
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeServer, ErrorTypeRateLimit:
		return true
	default:
		return false
	}
}

// WithContext attaches request context to the error.
func (e *Error) WithContext(ctx *ErrorContext) *Error {
	e.Context = ctx
	return e
}

// NewError creates a new Error.
func NewError(errType ErrorType, message string, wrapped error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		wrapped:   wrapped,
	}
}

// APIError is an error response from the Yupdates service: the request
// reached the service and it answered with a non-success status. It
// carries enough structure for callers to branch on known conditions.
//
// Example:
//
//	var apiErr *yupdates.APIError
//	if errors.As(err, &apiErr) {
//	    switch {
//	    case apiErr.IsAuthError():
//	        // bad or revoked token
//	    case apiErr.StatusCode == http.StatusTooManyRequests:
//	        // throttled, slow down
//	    }
//	}
type APIError struct {
	// StatusCode is the HTTP status the service responded with.
	StatusCode int `json:"-"`
	// Code is the service's own error code, when the body carried one.
	Code int `json:"code,omitempty"`
	// Message is the service's error message, when present.
	Message string `json:"message,omitempty"`
	// Detail is the service's extended error detail, when present.
	Detail string `json:"detail,omitempty"`
	// RawBody is the unparsed response body, kept when the body was
	// not the expected error shape.
	RawBody string `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.Message != "" && e.Detail != "":
		return fmt.Sprintf("HTTP %d: %s | %s", e.StatusCode, e.Message, e.Detail)
	case e.Message != "":
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	case e.RawBody != "":
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.RawBody)
	default:
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
}

// IsAuthError returns true for 401 and 403 responses.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound returns true for 404 responses.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsServerError returns true for 5xx responses.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// IsRetryable returns true if the response status suggests a retry may
// succeed: 5xx, 429, and the timeout statuses.
func (e *APIError) IsRetryable() bool {
	if e.IsServerError() {
		return true
	}
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ToError converts the APIError into the SDK Error type, classifying
// by status code.
func (e *APIError) ToError() *Error {
	errType := ErrorTypeClient
	switch {
	case e.IsServerError():
		errType = ErrorTypeServer
	case e.StatusCode == http.StatusTooManyRequests:
		errType = ErrorTypeRateLimit
	}
	return NewError(errType, e.Error(), e)
}

// newAPIError maps a non-2xx status and response body to an APIError.
// If the body parses as the service's error shape the structured
// fields are populated; otherwise the raw text is kept so nothing is
// discarded.
func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil &&
		(parsed.Code != nil || parsed.Error != nil || parsed.ErrorDetail != nil) {
		if parsed.Code != nil {
			apiErr.Code = *parsed.Code
		}
		if parsed.Error != nil {
			apiErr.Message = *parsed.Error
		}
		if parsed.ErrorDetail != nil {
			apiErr.Detail = *parsed.ErrorDetail
		}
		return apiErr
	}
	apiErr.RawBody = strings.TrimSpace(string(body))
	return apiErr
}

// IsNotFound checks whether err represents a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}

// IsAuthError checks whether err represents an authentication or
// authorization failure (HTTP 401/403).
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsAuthError()
}

// IsTimeout checks whether err represents an elapsed timeout, either
// the transport's own timeout or a context deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) {
		return true
	}
	var yerr *Error
	return errors.As(err, &yerr) && yerr.Type == ErrorTypeTimeout
}

// IsRetryable checks whether an operation failing with err may succeed
// on retry. The SDK never retries on its own unless configured to;
// this helper supports caller-side retry policies.
//
// Example:
//
//	resp, err := client.Ping(ctx)
//	if err != nil && yupdates.IsRetryable(err) {
//	    // wait, then try again
//	}
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var yerr *Error
	if errors.As(err, &yerr) {
		return yerr.IsRetryable()
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	return false
}
