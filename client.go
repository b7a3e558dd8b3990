package yupdates

import (
	"context"
	"time"
)

// AsyncClient wraps everything needed to make non-blocking calls to
// the Yupdates API. It owns an immutable Config and a reusable
// transport handle and no other state, so a single instance is safe
// for any number of concurrent, independent calls; concurrent calls do
// not block each other beyond the underlying connection-pool limits.
//
// Every operation comes in two forms built on the same operation
// layer:
//
//   - a context-first form (Ping, ReadItems, ...) that suspends the
//     calling goroutine only at the transport I/O boundary, which is
//     Go's native non-blocking unit, and
//   - a Go-prefixed form (GoPing, GoReadItems, ...) returning a
//     *Future for callers that want to fan out several operations and
//     collect the results later.
//
// Example:
//
//	config, err := yupdates.ConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := yupdates.NewAsyncClient(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	pingFut := client.GoPing(ctx)
//	items, err := client.ReadItems(ctx, feedID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := pingFut.Wait(ctx); err != nil {
//	    log.Fatal(err)
//	}
type AsyncClient struct {
	config    *Config
	transport *httpTransport
	retry     *retryExecutor
}

// NewAsyncClient creates an AsyncClient from the given configuration.
// The configuration is validated and then held immutably for the
// client's lifetime; a missing token or unparseable base URL fails
// here with a config-typed error, never later.
func NewAsyncClient(config *Config) (*AsyncClient, error) {
	if config == nil {
		return nil, NewError(ErrorTypeConfig, ErrMissingToken.Error(), ErrMissingToken)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	transport, err := newHTTPTransport(config)
	if err != nil {
		return nil, err
	}
	return &AsyncClient{
		config:    config,
		transport: transport,
		retry:     newRetryExecutor(strategyFromConfig(config), config.Observer),
	}, nil
}

// NewAsyncClientFromEnv creates an AsyncClient configured from the
// environment (see ConfigFromEnv).
func NewAsyncClientFromEnv() (*AsyncClient, error) {
	config, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewAsyncClient(config)
}

// Ping tests configuration and authentication. If it succeeds, the API
// token was a working credential for at least some operations (other
// operations may still be denied by permissions). Callers typically
// ping once before doing real work, though nothing enforces that
// ordering. Ping is side-effect free.
func (c *AsyncClient) Ping(ctx context.Context) (*PingResponse, error) {
	return ping(ctx, c.transport, c.retry)
}

// PingOK is a convenience for Ping(ctx) succeeding. Use Ping when you
// need the error for logging.
func (c *AsyncClient) PingOK(ctx context.Context) bool {
	_, err := c.Ping(ctx)
	return err == nil
}

// ReadItems reads up to the ten most recent items from a feed, without
// content. See ReadItemsWithOptions for control over count, content,
// and time bounds.
func (c *AsyncClient) ReadItems(ctx context.Context, feedID string) ([]FeedItem, error) {
	return readItems(ctx, c.transport, c.retry, feedID, nil)
}

// ReadItemsWithOptions reads items from a feed with options. See
// ReadOptions.
func (c *AsyncClient) ReadItemsWithOptions(ctx context.Context, feedID string, options *ReadOptions) ([]FeedItem, error) {
	return readItems(ctx, c.transport, c.retry, feedID, options)
}

// Items returns a lazy iterator over a feed's items, fetching pages on
// demand as the caller advances. See ItemIterator.
func (c *AsyncClient) Items(ctx context.Context, feedID string, options *IterOptions) *ItemIterator {
	return newItemIterator(feedID, options, func(ctx context.Context, fid string, opts *ReadOptions) ([]FeedItem, error) {
		return readItems(ctx, c.transport, c.retry, fid, opts)
	})
}

// NewItems adds items to a feed, using a feed-specific API token. Up
// to ten can be sent at a time; see NewItemsAll for more. Sending zero
// items is legal (to verify the token, or to learn the matching feed
// ID without adding anything).
func (c *AsyncClient) NewItems(ctx context.Context, items []InputItem) (*NewItemsResponse, error) {
	return newItems(ctx, c.transport, c.retry, items)
}

// NewItemsAll adds an arbitrary number of items to a feed, in batches
// of up to ten, pacing the calls by interval (at least 5ms) to
// preemptively avoid throttling. Returns the feed ID.
func (c *AsyncClient) NewItemsAll(ctx context.Context, items []InputItem, interval time.Duration) (string, error) {
	return newItemsAll(ctx, c.transport, c.retry, items, interval)
}

// GoPing is the non-blocking form of Ping.
func (c *AsyncClient) GoPing(ctx context.Context) *Future[*PingResponse] {
	return newFuture(func() (*PingResponse, error) {
		return c.Ping(ctx)
	})
}

// GoReadItems is the non-blocking form of ReadItems.
func (c *AsyncClient) GoReadItems(ctx context.Context, feedID string) *Future[[]FeedItem] {
	return newFuture(func() ([]FeedItem, error) {
		return c.ReadItems(ctx, feedID)
	})
}

// GoReadItemsWithOptions is the non-blocking form of
// ReadItemsWithOptions.
func (c *AsyncClient) GoReadItemsWithOptions(ctx context.Context, feedID string, options *ReadOptions) *Future[[]FeedItem] {
	return newFuture(func() ([]FeedItem, error) {
		return c.ReadItemsWithOptions(ctx, feedID, options)
	})
}

// GoNewItems is the non-blocking form of NewItems.
func (c *AsyncClient) GoNewItems(ctx context.Context, items []InputItem) *Future[*NewItemsResponse] {
	return newFuture(func() (*NewItemsResponse, error) {
		return c.NewItems(ctx, items)
	})
}

// GoNewItemsAll is the non-blocking form of NewItemsAll.
func (c *AsyncClient) GoNewItemsAll(ctx context.Context, items []InputItem, interval time.Duration) *Future[string] {
	return newFuture(func() (string, error) {
		return c.NewItemsAll(ctx, items, interval)
	})
}

// Close releases the transport's idle connections. The client must not
// be used after Close. Close is safe to call multiple times.
func (c *AsyncClient) Close() error {
	c.transport.close()
	return nil
}
