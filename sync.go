package yupdates

import (
	"context"
	"sync"
	"time"
)

// executor is a single-worker execution context that drives submitted
// work to completion. A SyncClient owns exactly one, created at
// construction and torn down by Close, so callers never have to set up
// any concurrency machinery of their own.
type executor struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func newExecutor() *executor {
	e := &executor{tasks: make(chan func())}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for task := range e.tasks {
			task()
		}
	}()
	return e
}

// submit runs fn on the worker and blocks until it completes. Because
// the worker is single, submissions from concurrent callers queue and
// run one at a time.
func (e *executor) submit(fn func()) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClientClosed
	}
	// Hold the lock while handing the task to the worker so close
	// cannot race the channel send.
	done := make(chan struct{})
	e.tasks <- func() {
		defer close(done)
		fn()
	}
	e.mu.Unlock()
	<-done
	return nil
}

// close stops the worker after any queued work finishes. Idempotent.
func (e *executor) close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.tasks)
	e.mu.Unlock()
	e.wg.Wait()
}

// SyncClient wraps an AsyncClient behind a blocking call surface, for
// one-off programs and scripts that have no use for futures. Each
// method drives the corresponding AsyncClient call to completion on
// the client's own execution context and returns the same
// response/error contract.
//
// The execution context is a single worker owned by the client: it is
// created at construction and torn down by Close, with no setup
// required from the caller. One blocking call is in flight per
// SyncClient at a time; calls from concurrent goroutines are safe but
// queue behind each other. Use one SyncClient per goroutine, or the
// AsyncClient directly, when calls must overlap.
//
// Example:
//
//	client, err := yupdates.NewSyncClientFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if _, err := client.Ping(); err != nil {
//	    log.Fatal(err)
//	}
//	items, err := client.ReadItems(feedID)
type SyncClient struct {
	client *AsyncClient
	exec   *executor

	mu     sync.RWMutex
	closed bool
}

// NewSyncClient creates a SyncClient from the given configuration. The
// same configuration rules as NewAsyncClient apply.
func NewSyncClient(config *Config) (*SyncClient, error) {
	client, err := NewAsyncClient(config)
	if err != nil {
		return nil, err
	}
	return &SyncClient{client: client, exec: newExecutor()}, nil
}

// NewSyncClientFromEnv creates a SyncClient configured from the
// environment (see ConfigFromEnv).
func NewSyncClientFromEnv() (*SyncClient, error) {
	config, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewSyncClient(config)
}

// Async returns the wrapped AsyncClient, for callers that want to mix
// the two calling conventions over one transport handle.
func (c *SyncClient) Async() *AsyncClient {
	return c.client
}

// run drives fn on the owned execution context, blocking the caller
// until it completes.
func run[T any](c *SyncClient, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	var err error
	if cerr := c.checkClosed(); cerr != nil {
		return result, cerr
	}
	if serr := c.exec.submit(func() {
		result, err = fn(context.Background())
	}); serr != nil {
		return result, serr
	}
	return result, err
}

// Ping tests configuration and authentication. See AsyncClient.Ping.
func (c *SyncClient) Ping() (*PingResponse, error) {
	return run(c, func(ctx context.Context) (*PingResponse, error) {
		return c.client.Ping(ctx)
	})
}

// PingOK is a convenience for Ping() succeeding.
func (c *SyncClient) PingOK() bool {
	_, err := c.Ping()
	return err == nil
}

// ReadItems reads up to the ten most recent items from a feed. See
// AsyncClient.ReadItems.
func (c *SyncClient) ReadItems(feedID string) ([]FeedItem, error) {
	return run(c, func(ctx context.Context) ([]FeedItem, error) {
		return c.client.ReadItems(ctx, feedID)
	})
}

// ReadItemsWithOptions reads items from a feed with options. See
// ReadOptions.
func (c *SyncClient) ReadItemsWithOptions(feedID string, options *ReadOptions) ([]FeedItem, error) {
	return run(c, func(ctx context.Context) ([]FeedItem, error) {
		return c.client.ReadItemsWithOptions(ctx, feedID, options)
	})
}

// NewItems adds up to ten items to a feed. See AsyncClient.NewItems.
func (c *SyncClient) NewItems(items []InputItem) (*NewItemsResponse, error) {
	return run(c, func(ctx context.Context) (*NewItemsResponse, error) {
		return c.client.NewItems(ctx, items)
	})
}

// NewItemsAll adds an arbitrary number of items to a feed in paced
// batches. See AsyncClient.NewItemsAll.
func (c *SyncClient) NewItemsAll(items []InputItem, interval time.Duration) (string, error) {
	return run(c, func(ctx context.Context) (string, error) {
		return c.client.NewItemsAll(ctx, items, interval)
	})
}

// Close tears down the owned execution context and releases the
// transport's idle connections. The client must not be used after
// Close. Close is safe to call multiple times.
func (c *SyncClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.exec.close()
	return c.client.Close()
}

func (c *SyncClient) checkClosed() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}
