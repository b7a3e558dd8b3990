package yupdates

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Observer provides hooks for monitoring SDK operations. Implement it
// to track latencies and error rates or to integrate with an existing
// observability stack. Observer methods are called on the request path
// and should be fast and non-blocking.
//
// The token never reaches an observer; hooks only see the method and
// the request path.
type Observer interface {
	// OnRequestStart is called when an HTTP request starts.
	OnRequestStart(method, path string)

	// OnRequestEnd is called when an HTTP request completes. err is
	// nil on success; note that a non-2xx service response is reported
	// here as success at the transport level and surfaces as an error
	// from the operation that made the call.
	OnRequestEnd(method, path string, duration time.Duration, err error)

	// OnRetryAttempt is called before each retry attempt, when retries
	// were opted into. attempt starts at 1.
	OnRetryAttempt(method, path string, attempt int, delay time.Duration, err error)
}

// NoopObserver is the default Observer. It does nothing and has zero
// overhead.
type NoopObserver struct{}

// OnRequestStart does nothing.
func (n *NoopObserver) OnRequestStart(method, path string) {}

// OnRequestEnd does nothing.
func (n *NoopObserver) OnRequestEnd(method, path string, duration time.Duration, err error) {}

// OnRetryAttempt does nothing.
func (n *NoopObserver) OnRetryAttempt(method, path string, attempt int, delay time.Duration, err error) {
}

// LogObserver logs SDK operations through a logrus logger. Requests log
// at debug level, failures at warn.
//
//	config.WithObserver(yupdates.NewLogObserver(logrus.StandardLogger()))
type LogObserver struct {
	logger logrus.FieldLogger
}

// NewLogObserver creates a LogObserver. If logger is nil the logrus
// standard logger is used.
func NewLogObserver(logger logrus.FieldLogger) *LogObserver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogObserver{logger: logger}
}

// OnRequestStart logs the start of a request.
func (o *LogObserver) OnRequestStart(method, path string) {
	o.logger.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
	}).Debug("yupdates request start")
}

// OnRequestEnd logs the completion of a request.
func (o *LogObserver) OnRequestEnd(method, path string, duration time.Duration, err error) {
	fields := logrus.Fields{
		"method":   method,
		"path":     path,
		"duration": duration,
	}
	if err != nil {
		o.logger.WithFields(fields).WithError(err).Warn("yupdates request failed")
		return
	}
	o.logger.WithFields(fields).Debug("yupdates request done")
}

// OnRetryAttempt logs a retry attempt.
func (o *LogObserver) OnRetryAttempt(method, path string, attempt int, delay time.Duration, err error) {
	o.logger.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"attempt": attempt,
		"delay":   delay,
	}).WithError(err).Debug("yupdates retrying request")
}

// MetricsCollector is a simple in-memory Observer that counts requests,
// errors and retries and records latencies per "METHOD path" key. It is
// intended for debugging and tests; for production monitoring implement
// Observer against your own metrics system.
type MetricsCollector struct {
	mu           sync.RWMutex
	requestCount map[string]int64
	errorCount   map[string]int64
	retryCount   map[string]int64
	latencies    map[string][]time.Duration
}

// NewMetricsCollector creates an empty, thread-safe collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		retryCount:   make(map[string]int64),
		latencies:    make(map[string][]time.Duration),
	}
}

// OnRequestStart counts the request.
func (m *MetricsCollector) OnRequestStart(method, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[method+" "+path]++
}

// OnRequestEnd records latency and failures.
func (m *MetricsCollector) OnRequestEnd(method, path string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := method + " " + path
	m.latencies[key] = append(m.latencies[key], duration)
	if err != nil {
		m.errorCount[key]++
	}
}

// OnRetryAttempt counts the retry.
func (m *MetricsCollector) OnRetryAttempt(method, path string, attempt int, delay time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryCount[method+" "+path]++
}

// RequestCount returns the number of requests started for a
// "METHOD path" key.
func (m *MetricsCollector) RequestCount(key string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount[key]
}

// ErrorCount returns the number of failed requests for a key.
func (m *MetricsCollector) ErrorCount(key string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errorCount[key]
}

// RetryCount returns the number of retry attempts for a key.
func (m *MetricsCollector) RetryCount(key string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.retryCount[key]
}

// Latencies returns a copy of the recorded latencies for a key.
func (m *MetricsCollector) Latencies(key string) []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]time.Duration, len(m.latencies[key]))
	copy(out, m.latencies[key])
	return out
}
