package yupdates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken  = "test-token"
	testFeedID = "02fb24a4478462a4491067224b66d9a8b2338ddca2737"
)

// testItems builds n items most-recent-first, with item times counting
// down from startMS.
func testItems(n int, startMS uint64) []FeedItem {
	items := make([]FeedItem, n)
	for i := range items {
		ms := startMS - uint64(i)
		items[i] = FeedItem{
			FeedID:       testFeedID,
			ItemID:       fmt.Sprintf("item-%d", ms),
			InputID:      "input-1",
			Title:        fmt.Sprintf("title-%d", ms),
			CanonicalURL: fmt.Sprintf("https://www.example.com/%d", ms),
			ItemTime:     fmt.Sprintf("%013d.00000", ms),
			ItemTimeMS:   ms,
		}
	}
	return items
}

// mockServer mimics the Yupdates API: auth on every route, ping, feed
// reads with time-range pagination, and item writes.
func mockServer(t *testing.T, allItems []FeedItem) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Auth-Token") != testToken {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"code":  401,
					"error": "unauthorized",
				})
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("/ping/", authed(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PingResponse{Code: 200, Message: "pong"})
	}))

	mux.HandleFunc("/feeds/"+testFeedID+"/", authed(func(w http.ResponseWriter, r *http.Request) {
		maxItems, _ := strconv.Atoi(r.URL.Query().Get("max_items"))
		if maxItems == 0 {
			maxItems = 10
		}
		before := r.URL.Query().Get("item_time_before")

		page := []FeedItem{}
		for _, item := range allItems {
			if before != "" && item.ItemTime >= before {
				continue
			}
			page = append(page, item)
			if len(page) == maxItems {
				break
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":       200,
			"feed_items": page,
		})
	}))

	mux.HandleFunc("/items/", authed(func(w http.ResponseWriter, r *http.Request) {
		var body newItemsBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{"code": 400, "error": "bad body"})
			return
		}
		json.NewEncoder(w).Encode(NewItemsResponse{
			Code:    200,
			FeedID:  testFeedID,
			Message: fmt.Sprintf("added %d items", len(body.Items)),
		})
	}))

	return httptest.NewServer(mux)
}

func testClient(t *testing.T, server *httptest.Server) *AsyncClient {
	t.Helper()
	config := DefaultConfig().WithBaseURL(server.URL).WithToken(testToken)
	client, err := NewAsyncClient(config)
	require.NoError(t, err, "Failed to create client")
	t.Cleanup(func() { client.Close() })
	return client
}

func TestAsyncClient_Ping(t *testing.T) {
	server := mockServer(t, nil)
	defer server.Close()

	client := testClient(t, server)

	resp, err := client.Ping(context.Background())
	require.NoError(t, err, "Ping should succeed")
	assert.Equal(t, "pong", resp.Message)
	assert.True(t, client.PingOK(context.Background()))
}

func TestAsyncClient_PingServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{"code": 500, "error": "boom"})
	}))
	defer server.Close()

	client := testClient(t, server)

	resp, err := client.Ping(context.Background())
	assert.Nil(t, resp, "No response on server error")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Message)
	assert.ErrorIs(t, err, ErrServerError)
}

func TestAsyncClient_PingBadToken(t *testing.T) {
	server := mockServer(t, nil)
	defer server.Close()

	config := DefaultConfig().WithBaseURL(server.URL).WithToken("wrong-token")
	client, err := NewAsyncClient(config)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err), "401 should classify as auth error")
	assert.False(t, client.PingOK(context.Background()))
}

func TestAsyncClient_PingMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Valid JSON, wrong shape: the required message field is gone.
		json.NewEncoder(w).Encode(map[string]interface{}{"code": 200})
	}))
	defer server.Close()

	client := testClient(t, server)

	resp, err := client.Ping(context.Background())
	assert.Nil(t, resp, "No partially-populated response")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestAsyncClient_ReadItems(t *testing.T) {
	server := mockServer(t, testItems(7, 1_000_000))
	defer server.Close()

	client := testClient(t, server)

	items, err := client.ReadItems(context.Background(), testFeedID)
	require.NoError(t, err)
	assert.Len(t, items, 7)
	assert.Equal(t, "title-1000000", items[0].Title, "Items arrive most-recent-first")
}

func TestAsyncClient_ReadItems_AuthHeaderSent(t *testing.T) {
	var gotToken atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken.Store(r.Header.Get("X-Auth-Token"))
		json.NewEncoder(w).Encode(map[string]interface{}{"code": 200, "feed_items": []FeedItem{}})
	}))
	defer server.Close()

	client := testClient(t, server)

	_, err := client.ReadItems(context.Background(), testFeedID)
	require.NoError(t, err)
	assert.Equal(t, testToken, gotToken.Load())
}

func TestAsyncClient_ReadItems_ValidatesFeedID(t *testing.T) {
	server := mockServer(t, nil)
	defer server.Close()

	client := testClient(t, server)

	_, err := client.ReadItems(context.Background(), "too-short")
	assert.ErrorIs(t, err, ErrInvalidInput, "Bad feed ID fails before any network call")
}

func TestAsyncClient_ReadItemsWithOptions_Validation(t *testing.T) {
	server := mockServer(t, testItems(3, 500))
	defer server.Close()

	client := testClient(t, server)
	ctx := context.Background()

	_, err := client.ReadItemsWithOptions(ctx, testFeedID, &ReadOptions{MaxItems: 51})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = client.ReadItemsWithOptions(ctx, testFeedID, &ReadOptions{MaxItems: 11, IncludeItemContent: true})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = client.ReadItemsWithOptions(ctx, testFeedID, &ReadOptions{
		ItemTimeAfter:  "100",
		ItemTimeBefore: "200",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	items, err := client.ReadItemsWithOptions(ctx, testFeedID, &ReadOptions{MaxItems: 2})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestAsyncClient_ReadItems_MissingFeedItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"code": 200})
	}))
	defer server.Close()

	client := testClient(t, server)

	items, err := client.ReadItems(context.Background(), testFeedID)
	assert.Nil(t, items)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestAsyncClient_NewItems(t *testing.T) {
	server := mockServer(t, nil)
	defer server.Close()

	client := testClient(t, server)

	resp, err := client.NewItems(context.Background(), []InputItem{
		{Title: "hello", Content: "world", CanonicalURL: "https://www.example.com/hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, testFeedID, resp.FeedID)
}

func TestAsyncClient_NewItems_TooMany(t *testing.T) {
	server := mockServer(t, nil)
	defer server.Close()

	client := testClient(t, server)

	items := make([]InputItem, 11)
	for i := range items {
		items[i] = InputItem{Title: fmt.Sprintf("t-%d", i)}
	}
	_, err := client.NewItems(context.Background(), items)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAsyncClient_NewItems_ValidatesItems(t *testing.T) {
	server := mockServer(t, nil)
	defer server.Close()

	client := testClient(t, server)
	ctx := context.Background()

	_, err := client.NewItems(ctx, []InputItem{{Content: "no title"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = client.NewItems(ctx, []InputItem{{Title: "t", CanonicalURL: "not a url"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAsyncClient_NewItemsAll_Chunks(t *testing.T) {
	var calls atomic.Int64
	var itemsSeen atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body newItemsBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.LessOrEqual(t, len(body.Items), 10, "Chunks never exceed ten items")
		calls.Add(1)
		itemsSeen.Add(int64(len(body.Items)))
		json.NewEncoder(w).Encode(NewItemsResponse{Code: 200, FeedID: testFeedID, Message: "ok"})
	}))
	defer server.Close()

	client := testClient(t, server)

	items := make([]InputItem, 23)
	for i := range items {
		items[i] = InputItem{Title: fmt.Sprintf("t-%d", i)}
	}
	feedID, err := client.NewItemsAll(context.Background(), items, minBatchInterval)
	require.NoError(t, err)
	assert.Equal(t, testFeedID, feedID)
	assert.Equal(t, int64(3), calls.Load())
	assert.Equal(t, int64(23), itemsSeen.Load())
}

func TestAsyncClient_NewItemsAll_IntervalTooSmall(t *testing.T) {
	server := mockServer(t, nil)
	defer server.Close()

	client := testClient(t, server)

	_, err := client.NewItemsAll(context.Background(), nil, minBatchInterval/2)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAsyncClient_Futures(t *testing.T) {
	server := mockServer(t, testItems(4, 900))
	defer server.Close()

	client := testClient(t, server)
	ctx := context.Background()

	pingFut := client.GoPing(ctx)
	itemsFut := client.GoReadItems(ctx, testFeedID)

	resp, err := pingFut.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Message)

	items, err := itemsFut.Wait(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 4)

	// A resolved future keeps answering with the same result.
	<-pingFut.Done()
	again, err, ok := pingFut.TryGet()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, resp, again)
}

func TestAsyncClient_FutureValidationError(t *testing.T) {
	server := mockServer(t, nil)
	defer server.Close()

	client := testClient(t, server)
	ctx := context.Background()

	_, err := client.GoReadItems(ctx, "bad").Wait(ctx)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAsyncClient_TransportFailure(t *testing.T) {
	server := mockServer(t, nil)
	client := testClient(t, server)
	server.Close() // connection refused from here on

	_, err := client.Ping(context.Background())
	require.Error(t, err)

	var yerr *Error
	require.ErrorAs(t, err, &yerr)
	assert.Equal(t, ErrorTypeNetwork, yerr.Type, "Refused connection is a network error, not a timeout")
	assert.False(t, IsTimeout(err))
	assert.True(t, IsRetryable(err))
}
