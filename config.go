package yupdates

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const (
	// EnvAPIToken is the environment variable consulted for the API
	// token by ConfigFromEnv.
	EnvAPIToken = "YUPDATES_API_TOKEN"

	// EnvAPIURL is the environment variable consulted for the base API
	// URL. It is not usually needed: you would typically only set it to
	// exercise an alternative endpoint, or to pin an API version in the
	// future (right now there is only /api/v0/).
	EnvAPIURL = "YUPDATES_API_URL"

	// DefaultAPIURL is the base URL used when EnvAPIURL is not set.
	DefaultAPIURL = "https://feeds.yupdates.com/api/v0/"

	// authTokenHeader is attached to every API call.
	authTokenHeader = "X-Auth-Token"
)

// Config holds the configuration for a Yupdates client. Token and
// BaseURL are required (ConfigFromEnv fills them from the environment);
// everything else has sensible defaults.
//
// Configuration is read once at client construction and held immutably
// for the client's lifetime. The token is never logged.
//
//	config, err := yupdates.ConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	config = config.
//	    WithTimeout(10 * time.Second).
//	    WithObserver(yupdates.NewLogObserver(logrus.StandardLogger()))
//
//	client, err := yupdates.NewAsyncClient(config)
type Config struct {
	// BaseURL is the base URL of the Yupdates API, always with a
	// trailing slash. Default: DefaultAPIURL.
	BaseURL string

	// Token is the API token sent on every request. Required.
	Token string

	// Timeout is the HTTP request timeout, covering connection time,
	// redirects, and reading the response body. An elapsed timeout
	// surfaces as a timeout-typed error, distinct from a refused
	// connection. Default: 30s.
	Timeout time.Duration

	// TransportConfig holds HTTP connection pool settings.
	TransportConfig TransportConfig

	// RetryConfig configures opt-in automatic retries. The zero value
	// disables retries entirely: by default no operation retries, and
	// any retry/backoff policy is the caller's responsibility.
	RetryConfig RetryConfig

	// RetryStrategy overrides RetryConfig with a custom strategy.
	// Ignored when nil.
	RetryStrategy RetryStrategy

	// Observer receives hooks for monitoring SDK operations.
	// If nil, NoopObserver is used.
	Observer Observer

	// TracerProvider enables an OpenTelemetry client span around each
	// request. If nil, no spans are created.
	TracerProvider trace.TracerProvider

	// Headers are extra headers to include on all requests, e.g.
	// correlation IDs. The auth token header is managed by the SDK and
	// cannot be overridden here.
	Headers map[string]string
}

// TransportConfig holds HTTP transport configuration for connection
// pooling.
type TransportConfig struct {
	// MaxIdleConns controls the maximum number of idle connections
	// across all hosts. Default: 100.
	MaxIdleConns int

	// MaxConnsPerHost controls the maximum connections per host.
	// Default: 10.
	MaxConnsPerHost int

	// IdleConnTimeout is how long an idle connection is kept before
	// closing itself. Default: 90s.
	IdleConnTimeout time.Duration
}

// DefaultConfig returns a Config with defaults applied and no token.
// Most callers want ConfigFromEnv instead; use DefaultConfig when the
// token comes from somewhere other than the environment:
//
//	config := yupdates.DefaultConfig().WithToken(tokenFromVault)
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultAPIURL,
		Timeout: 30 * time.Second,
		TransportConfig: TransportConfig{
			MaxIdleConns:    100,
			MaxConnsPerHost: 10,
			IdleConnTimeout: 90 * time.Second,
		},
		Headers:  make(map[string]string),
		Observer: &NoopObserver{},
	}
}

// ConfigFromEnv builds a Config from the environment: the token from
// YUPDATES_API_TOKEN (required) and the base URL from YUPDATES_API_URL
// (optional, defaulting to the production endpoint). A missing or
// empty token fails with a configuration error; the client cannot be
// constructed without one.
func ConfigFromEnv() (*Config, error) {
	config := DefaultConfig()

	token := os.Getenv(EnvAPIToken)
	if token == "" {
		return nil, NewError(ErrorTypeConfig, ErrMissingToken.Error(), ErrMissingToken)
	}
	config.Token = token

	if baseURL := os.Getenv(EnvAPIURL); baseURL != "" {
		config.BaseURL = ensureTrailingSlash(baseURL)
	}
	return config, nil
}

// WithBaseURL sets the base URL for the Yupdates API. A trailing slash
// is added if missing.
func (c *Config) WithBaseURL(baseURL string) *Config {
	c.BaseURL = ensureTrailingSlash(baseURL)
	return c
}

// WithToken sets the API token.
func (c *Config) WithToken(token string) *Config {
	c.Token = token
	return c
}

// WithTimeout sets the request timeout for all operations.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRetries opts in to automatic retries with exponential backoff,
// up to maxRetries attempts beyond the initial one. Only errors that
// may succeed on retry (network, timeout, 5xx, 429) are retried.
func (c *Config) WithRetries(maxRetries int) *Config {
	c.RetryConfig.MaxRetries = maxRetries
	return c
}

// WithRetryStrategy sets a custom retry strategy, overriding
// RetryConfig.
func (c *Config) WithRetryStrategy(strategy RetryStrategy) *Config {
	c.RetryStrategy = strategy
	return c
}

// WithObserver sets an observer for monitoring SDK operations.
func (c *Config) WithObserver(observer Observer) *Config {
	c.Observer = observer
	return c
}

// WithTracerProvider enables OpenTelemetry client spans around each
// request.
func (c *Config) WithTracerProvider(tp trace.TracerProvider) *Config {
	c.TracerProvider = tp
	return c
}

// WithHeader adds a custom header to be sent with all requests.
func (c *Config) WithHeader(key, value string) *Config {
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	c.Headers[key] = value
	return c
}

// Validate validates the configuration and fills defaults for unset
// values. It is called automatically by the client constructors.
func (c *Config) Validate() error {
	if c.Token == "" {
		return NewError(ErrorTypeConfig, ErrMissingToken.Error(), ErrMissingToken)
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultAPIURL
	}
	c.BaseURL = ensureTrailingSlash(c.BaseURL)

	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return NewError(ErrorTypeConfig, fmt.Sprintf("invalid base URL %q: %v", c.BaseURL, err), ErrInvalidConfig)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return NewError(ErrorTypeConfig, fmt.Sprintf("base URL %q must have a scheme and host", c.BaseURL), ErrInvalidConfig)
	}

	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.TransportConfig.MaxIdleConns <= 0 {
		c.TransportConfig.MaxIdleConns = 100
	}
	if c.TransportConfig.MaxConnsPerHost <= 0 {
		c.TransportConfig.MaxConnsPerHost = 10
	}
	if c.TransportConfig.IdleConnTimeout <= 0 {
		c.TransportConfig.IdleConnTimeout = 90 * time.Second
	}
	if c.RetryConfig.MaxRetries < 0 {
		c.RetryConfig.MaxRetries = 0
	}
	if c.RetryConfig.MaxRetries > 0 {
		if c.RetryConfig.InitialInterval <= 0 {
			c.RetryConfig.InitialInterval = 100 * time.Millisecond
		}
		if c.RetryConfig.MaxInterval <= 0 {
			c.RetryConfig.MaxInterval = 5 * time.Second
		}
		if c.RetryConfig.Multiplier <= 1 {
			c.RetryConfig.Multiplier = 2.0
		}
	}
	if c.Observer == nil {
		c.Observer = &NoopObserver{}
	}
	return nil
}

func ensureTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
