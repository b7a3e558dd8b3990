package yupdates

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	feedIDLength    = 45
	maxItemsPerCall = 10
	maxReadItems    = 50
	// minBatchInterval is the smallest pacing interval NewItemsAll
	// accepts between chunked calls.
	minBatchInterval = 5 * time.Millisecond
)

// ReadOptions are the extra options for reading items.
//
// If neither ItemTimeAfter nor ItemTimeBefore is supplied, the latest
// items are queried. The two cannot be supplied at the same time.
//
// An item time is a unix epoch millisecond with an optional five digit
// suffix; see NormalizeItemTime. In practice you would only use the
// suffix form when threading back an item time string received from
// the service.
type ReadOptions struct {
	// MaxItems is the number of items to return, 1 to 50. Default 10.
	// May not be more than 10 when IncludeItemContent is true.
	MaxItems int

	// IncludeItemContent populates each FeedItem with the full item
	// content.
	IncludeItemContent bool

	// ItemTimeAfter restricts to items after this item time,
	// non-inclusive.
	ItemTimeAfter string

	// ItemTimeBefore restricts to items before this item time,
	// non-inclusive.
	ItemTimeBefore string
}

// DefaultReadOptions returns the options used when none are supplied:
// ten most recent items, no content, no time bounds.
func DefaultReadOptions() *ReadOptions {
	return &ReadOptions{MaxItems: 10}
}

// validated returns a normalized copy of the options, or a validation
// error. The receiver is never mutated.
func (o *ReadOptions) validated() (*ReadOptions, error) {
	out := *o
	if out.MaxItems == 0 {
		out.MaxItems = 10
	}
	if out.IncludeItemContent && (out.MaxItems < 1 || out.MaxItems > maxItemsPerCall) {
		return nil, NewError(ErrorTypeValidation,
			fmt.Sprintf("max_items must be 1 to %d when include_item_content is true, received %d",
				maxItemsPerCall, out.MaxItems), ErrInvalidInput)
	}
	if out.MaxItems < 1 || out.MaxItems > maxReadItems {
		return nil, NewError(ErrorTypeValidation,
			fmt.Sprintf("max_items must be 1 to %d, received %d", maxReadItems, out.MaxItems), ErrInvalidInput)
	}
	if out.ItemTimeAfter != "" && out.ItemTimeBefore != "" {
		return nil, NewError(ErrorTypeValidation,
			"cannot simultaneously query with item_time_after and item_time_before", ErrInvalidInput)
	}
	var err error
	if out.ItemTimeAfter != "" {
		if out.ItemTimeAfter, err = NormalizeItemTime(out.ItemTimeAfter); err != nil {
			return nil, err
		}
	}
	if out.ItemTimeBefore != "" {
		if out.ItemTimeBefore, err = NormalizeItemTime(out.ItemTimeBefore); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// call drives one logical API call through the transport, applying the
// retry strategy (a no-op unless opted in) and mapping non-2xx
// statuses to service errors. It returns the raw body of a successful
// exchange; the per-operation functions own deserialization so a
// schema mismatch is always a deserialization error, never a partially
// populated response.
func call(ctx context.Context, t *httpTransport, re *retryExecutor, method, path string, query url.Values, body interface{}) (*rawResponse, error) {
	var raw *rawResponse
	err := re.Execute(ctx, method, path, func() error {
		r, err := t.send(ctx, method, path, query, body)
		if err != nil {
			return err
		}
		if r.status < 200 || r.status >= 300 {
			serr := newAPIError(r.status, r.body).ToError()
			serr.RequestID = r.requestID
			serr.WithContext(&ErrorContext{
				URL:    t.baseURL.String() + path,
				Method: method,
			})
			return serr
		}
		raw = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// ping tests configuration and authentication. GET ping/.
func ping(ctx context.Context, t *httpTransport, re *retryExecutor) (*PingResponse, error) {
	raw, err := call(ctx, t, re, http.MethodGet, "ping/", nil, nil)
	if err != nil {
		return nil, err
	}
	var resp PingResponse
	if err := decodeBody(raw.body, &resp); err != nil {
		return nil, err
	}
	if resp.Message == "" {
		return nil, NewError(ErrorTypeDeserialization, "ping response missing message", ErrInvalidResponse)
	}
	return &resp, nil
}

// readItems reads items from a feed. GET feeds/{feed_id}/.
func readItems(ctx context.Context, t *httpTransport, re *retryExecutor, feedID string, options *ReadOptions) ([]FeedItem, error) {
	trimmed, err := validateFeedID(feedID)
	if err != nil {
		return nil, err
	}

	if options == nil {
		options = DefaultReadOptions()
	}
	validated, err := options.validated()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("max_items", strconv.Itoa(validated.MaxItems))
	query.Set("include_item_content", strconv.FormatBool(validated.IncludeItemContent))
	if validated.ItemTimeAfter != "" {
		query.Set("item_time_after", validated.ItemTimeAfter)
	}
	if validated.ItemTimeBefore != "" {
		query.Set("item_time_before", validated.ItemTimeBefore)
	}

	raw, err := call(ctx, t, re, http.MethodGet, "feeds/"+trimmed+"/", query, nil)
	if err != nil {
		return nil, err
	}
	var resp readFeedItemsResponse
	if err := decodeBody(raw.body, &resp); err != nil {
		return nil, err
	}
	if resp.FeedItems == nil {
		return nil, NewError(ErrorTypeDeserialization, "read response missing feed_items", ErrInvalidResponse)
	}
	return *resp.FeedItems, nil
}

// newItems adds up to ten items to a feed. POST items/. Sending zero
// items is legal: it verifies the token is authorized for the call and
// returns the matching feed ID without adding anything.
func newItems(ctx context.Context, t *httpTransport, re *retryExecutor, items []InputItem) (*NewItemsResponse, error) {
	if len(items) > maxItemsPerCall {
		return nil, NewError(ErrorTypeValidation,
			fmt.Sprintf("too many items (%d), send %d at a time or use NewItemsAll", len(items), maxItemsPerCall),
			ErrInvalidInput)
	}
	if err := validateInputItems(items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []InputItem{}
	}

	raw, err := call(ctx, t, re, http.MethodPost, "items/", nil, newItemsBody{Items: items})
	if err != nil {
		return nil, err
	}
	var resp NewItemsResponse
	if err := decodeBody(raw.body, &resp); err != nil {
		return nil, err
	}
	if resp.FeedID == "" {
		return nil, NewError(ErrorTypeDeserialization, "new items response missing feed_id", ErrInvalidResponse)
	}
	return &resp, nil
}

// newItemsAll adds an arbitrary number of items in chunks of ten,
// pacing the calls with a rate limiter to preemptively avoid
// throttling. interval must be at least minBatchInterval. Returns the
// feed ID.
func newItemsAll(ctx context.Context, t *httpTransport, re *retryExecutor, items []InputItem, interval time.Duration) (string, error) {
	if interval < minBatchInterval {
		return "", NewError(ErrorTypeValidation,
			fmt.Sprintf("interval (%v) must be %v or more", interval, minBatchInterval), ErrInvalidInput)
	}
	if err := validateInputItems(items); err != nil {
		return "", err
	}

	// The limiter starts with one token, so the first chunk goes out
	// immediately and each following chunk waits out the interval.
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	var feedID string
	for start := 0; start == 0 || start < len(items); start += maxItemsPerCall {
		if err := limiter.Wait(ctx); err != nil {
			return "", classifyTransportErr(err, http.MethodPost, "items/")
		}
		end := start + maxItemsPerCall
		if end > len(items) {
			end = len(items)
		}
		resp, err := newItems(ctx, t, re, items[start:end])
		if err != nil {
			return "", err
		}
		if feedID == "" {
			feedID = resp.FeedID
		}
	}
	return feedID, nil
}
