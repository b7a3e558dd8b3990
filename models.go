package yupdates

import "encoding/json"

// FeedItem is a single item read back from a feed. Items are returned
// most-recent-first; the service defines the ordering and the SDK never
// re-sorts.
//
// Content is only populated when the read was made with
// ReadOptions.IncludeItemContent set to true, so it is a pointer: nil
// means "not requested", while an empty string is a real, empty body.
type FeedItem struct {
	// FeedID is the feed this item belongs to.
	FeedID string `json:"feed_id"`
	// ItemID uniquely identifies the item within the service.
	ItemID string `json:"item_id"`
	// InputID identifies the input that produced the item.
	InputID string `json:"input_id"`
	// Title is the item headline.
	Title string `json:"title"`
	// Content is the full item body, present only when requested.
	Content *string `json:"content,omitempty"`
	// CanonicalURL is the item's canonical link.
	CanonicalURL string `json:"canonical_url"`
	// ItemTime is the normalized item time string, a unix epoch
	// millisecond with a five digit suffix, e.g. "1661564013555.00003".
	// It is the value to thread back as a continuation cursor.
	ItemTime string `json:"item_time"`
	// ItemTimeMS is the millisecond portion of ItemTime as an integer.
	ItemTimeMS uint64 `json:"item_time_ms"`
	// Deleted reports whether the item has been tombstoned.
	Deleted bool `json:"deleted"`
	// AssociatedFiles lists any enclosures attached to the item.
	AssociatedFiles []AssociatedFile `json:"associated_files,omitempty"`
}

// AssociatedFile is an enclosure attached to an item, such as a podcast
// audio file.
type AssociatedFile struct {
	// URL is the location of the file.
	URL string `json:"url" validate:"required,url"`
	// Length is the file size in bytes.
	Length uint64 `json:"length"`
	// TypeStr is the MIME type, e.g. "audio/mpeg".
	TypeStr string `json:"type_str" validate:"required"`
}

// InputItem is an item to be added to a feed via NewItems or
// NewItemsAll. The `validate` tags are enforced locally before any
// network call is made.
type InputItem struct {
	// Title is the item headline.
	Title string `json:"title" validate:"required"`
	// Content is the full item body.
	Content string `json:"content"`
	// CanonicalURL is the item's canonical link.
	CanonicalURL string `json:"canonical_url" validate:"omitempty,url"`
	// AssociatedFiles lists any enclosures to attach.
	AssociatedFiles []AssociatedFile `json:"associated_files,omitempty" validate:"omitempty,dive"`
}

// PingResponse is the body of a successful ping call.
//
// Example:
//
//	resp, err := client.Ping(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Message) // "pong"
type PingResponse struct {
	// Code echoes the HTTP status code.
	Code int `json:"code"`
	// Message is the service's ping message.
	Message string `json:"message"`
}

// NewItemsResponse is the body of a successful NewItems call.
type NewItemsResponse struct {
	// Code echoes the HTTP status code.
	Code int `json:"code"`
	// FeedID is the feed the items were added to. Useful because
	// feed-specific tokens imply the feed rather than naming it.
	FeedID string `json:"feed_id"`
	// Message is a human-readable confirmation.
	Message string `json:"message"`
}

// readFeedItemsResponse is the wire shape of a feed read. FeedItems is
// a pointer so a body that omits the field entirely is distinguishable
// from a legitimate empty page; the former is a schema violation.
type readFeedItemsResponse struct {
	Code      int         `json:"code"`
	FeedItems *[]FeedItem `json:"feed_items"`
}

// newItemsBody is the wire shape of a NewItems request.
type newItemsBody struct {
	Items []InputItem `json:"items"`
}

// apiErrorBody is the error body the service returns on non-2xx
// responses. All fields are optional; an empty or non-JSON body is
// also legal and handled by the error mapping.
type apiErrorBody struct {
	Code        *int    `json:"code,omitempty"`
	Error       *string `json:"error,omitempty"`
	ErrorDetail *string `json:"error_detail,omitempty"`
}

// decodeBody unmarshals a 2xx response body into v. It is the single
// place success bodies are decoded; the per-operation functions follow
// it with required-field checks so schema drift always surfaces as a
// deserialization error rather than a half-populated value.
func decodeBody(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return NewError(ErrorTypeDeserialization, "response body did not match the expected schema", err)
	}
	return nil
}
