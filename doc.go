// Package yupdates provides a Go client library for the Yupdates API,
// giving application code typed access to the feed service from your
// own software and scripts.
//
// # Features
//
// The SDK provides:
//   - Typed operations for every API call (ping, feed reads, item
//     writes) with automatic JSON serialization
//   - Both a blocking and a non-blocking calling convention over one
//     shared transport
//   - Lazy, cursor-threaded pagination for feed reads
//   - A structured error taxonomy that distinguishes configuration,
//     validation, transport, service, and deserialization failures
//   - Context support for cancellation and timeouts
//   - Opt-in retries with exponential backoff (off by default)
//   - Observer hooks, logrus logging, and optional OpenTelemetry spans
//
// # Quick start
//
// Both client constructors read YUPDATES_API_TOKEN (required) and
// YUPDATES_API_URL (optional) from the environment.
//
// Blocking client:
//
//	package main
//
//	import (
//	    "log"
//
//	    yupdates "github.com/yupdates/yupdates-sdk-go"
//	)
//
//	func main() {
//	    feedID := "02fb24a4478462a4491067224b66d9a8b2338ddca2737"
//	    client, err := yupdates.NewSyncClientFromEnv()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer client.Close()
//
//	    items, err := client.ReadItems(feedID)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    for _, item := range items {
//	        log.Printf("Title: %s", item.Title)
//	    }
//	}
//
// Non-blocking client:
//
//	client, err := yupdates.NewAsyncClientFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	pingFut := client.GoPing(ctx)
//	itemsFut := client.GoReadItems(ctx, feedID)
//
//	if _, err := pingFut.Wait(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	items, err := itemsFut.Wait(ctx)
//
// # Choosing a client
//
// AsyncClient is the primary surface: context-first methods that block
// only the calling goroutine, plus Go-prefixed variants returning
// futures for fan-out. SyncClient wraps an AsyncClient behind plain
// blocking methods driven by an execution context the client owns, for
// one-off programs that want nothing to do with contexts or futures.
// Both expose the same operations and return identical responses and
// errors for identical inputs.
//
// # Pagination
//
// Feed reads cap at 50 items per call. Items returns a lazy iterator
// that fetches further pages on demand, threading the last item time
// seen as a continuation cursor:
//
//	it := client.Items(ctx, feedID, &yupdates.IterOptions{Limit: 200})
//	for item, err := range it.All(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(item.Title)
//	}
//
// # Error handling
//
// Every operation returns either a fully populated response or a typed
// error; no failure escapes the client boundary unstructured.
//
//	_, err := client.Ping(ctx)
//	switch {
//	case yupdates.IsAuthError(err):
//	    // bad or revoked token
//	case yupdates.IsTimeout(err):
//	    // transport timeout, distinct from a refused connection
//	case yupdates.IsRetryable(err):
//	    // caller may retry; the SDK never retries unless configured to
//	}
//
// The SDK is distributed under the MIT license.
package yupdates
