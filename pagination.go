package yupdates

import (
	"context"
	"errors"
	"iter"
)

// ErrIterDone is returned by ItemIterator.Next when the sequence is
// exhausted. It signals clean termination, not a failure.
var ErrIterDone = errors.New("no more items")

// IterOptions configures an ItemIterator.
type IterOptions struct {
	// PageSize is the number of items requested per fetch, 1 to 50
	// (1 to 10 when IncludeItemContent is true). Default 10.
	PageSize int

	// Limit caps the total number of items produced. Zero means no
	// cap: iteration continues until the feed is exhausted.
	Limit int

	// IncludeItemContent populates each item with its full content.
	IncludeItemContent bool

	// StartBefore restricts iteration to items before this item time,
	// non-inclusive. Empty starts from the most recent item.
	StartBefore string
}

// fetchFunc fetches one page of items. The iterator threads its
// continuation cursor through the ItemTimeBefore read option. Tests
// substitute a stub here to drive the iterator without a transport.
type fetchFunc func(ctx context.Context, feedID string, opts *ReadOptions) ([]FeedItem, error)

// ItemIterator is a lazy, forward-only, finite sequence of feed items
// backed by paginated fetches. Each advance either returns the next
// buffered item or triggers one more fetch through the operation
// layer, using the item time of the last item seen as the continuation
// cursor. Nothing is fetched until the first advance.
//
// The sequence ends cleanly when a fetch comes back empty or the
// configured Limit is reached. A fetch failing mid-sequence surfaces
// its error at the advance that triggered it, exactly once; items
// already produced are unaffected. The iterator is not restartable and
// not safe for concurrent use.
//
// Example:
//
//	it := client.Items(ctx, feedID, &yupdates.IterOptions{Limit: 100})
//	for {
//	    item, err := it.Next(ctx)
//	    if errors.Is(err, yupdates.ErrIterDone) {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(item.Title)
//	}
type ItemIterator struct {
	feedID  string
	options IterOptions
	fetch   fetchFunc

	// buffer holds fetched items not yet handed to the caller.
	buffer []FeedItem
	// cursor is the item time of the last item fetched, threaded into
	// the next fetch as item_time_before. Empty until the first page.
	cursor string
	// produced counts items handed out, for Limit enforcement.
	produced int
	// finished is set on clean exhaustion and after a surfaced error.
	finished bool
}

func newItemIterator(feedID string, options *IterOptions, fetch fetchFunc) *ItemIterator {
	opts := IterOptions{}
	if options != nil {
		opts = *options
	}
	if opts.PageSize == 0 {
		opts.PageSize = 10
	}
	return &ItemIterator{
		feedID:  feedID,
		options: opts,
		fetch:   fetch,
		cursor:  opts.StartBefore,
	}
}

// Next advances the iterator, returning the next item, ErrIterDone on
// clean exhaustion, or the fetch error when a page fetch fails. All
// errors carry the usual SDK taxonomy; validation failures (a bad feed
// ID, an out-of-range page size) surface on the first advance.
func (it *ItemIterator) Next(ctx context.Context) (FeedItem, error) {
	var zero FeedItem
	if it.finished {
		return zero, ErrIterDone
	}

	if len(it.buffer) == 0 {
		if err := it.fetchPage(ctx); err != nil {
			it.finished = true
			return zero, err
		}
		if it.finished {
			return zero, ErrIterDone
		}
	}

	item := it.buffer[0]
	it.buffer = it.buffer[1:]
	it.produced++
	if it.options.Limit > 0 && it.produced >= it.options.Limit {
		it.finished = true
		it.buffer = nil
	}
	return item, nil
}

// fetchPage pulls one more page into the buffer, or marks the iterator
// finished when the service has nothing further.
func (it *ItemIterator) fetchPage(ctx context.Context) error {
	pageSize := it.options.PageSize
	if it.options.Limit > 0 {
		if remaining := it.options.Limit - it.produced; remaining < pageSize {
			pageSize = remaining
		}
	}

	opts := &ReadOptions{
		MaxItems:           pageSize,
		IncludeItemContent: it.options.IncludeItemContent,
		ItemTimeBefore:     it.cursor,
	}
	items, err := it.fetch(ctx, it.feedID, opts)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		// No further continuation.
		it.finished = true
		return nil
	}

	last := items[len(items)-1]
	if last.ItemTime == "" {
		return NewError(ErrorTypeDeserialization,
			"item missing item_time, cannot continue pagination", ErrInvalidResponse)
	}
	it.cursor = last.ItemTime
	it.buffer = items
	return nil
}

// All adapts the iterator to a range-over-func sequence. Iteration
// stops at the first error, which is yielded with a zero item. Clean
// exhaustion just ends the range.
//
//	for item, err := range it.All(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(item.Title)
//	}
func (it *ItemIterator) All(ctx context.Context) iter.Seq2[FeedItem, error] {
	return func(yield func(FeedItem, error) bool) {
		for {
			item, err := it.Next(ctx)
			if errors.Is(err, ErrIterDone) {
				return
			}
			if err != nil {
				yield(FeedItem{}, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Collect drains the iterator into a slice. Items produced before a
// mid-sequence failure are returned alongside the error.
func (it *ItemIterator) Collect(ctx context.Context) ([]FeedItem, error) {
	var items []FeedItem
	for {
		item, err := it.Next(ctx)
		if errors.Is(err, ErrIterDone) {
			return items, nil
		}
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
}
