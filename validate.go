package yupdates

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validateFeedID checks the feed identifier shape locally, before any
// network round trip. Feed IDs are always 45 characters.
func validateFeedID(feedID string) (string, error) {
	trimmed := strings.TrimSpace(feedID)
	if len(trimmed) != feedIDLength {
		return "", NewError(ErrorTypeValidation,
			fmt.Sprintf("feed_id is expected to be %d characters, got %q", feedIDLength, feedID), ErrInvalidInput)
	}
	return trimmed, nil
}

// validateInputItems checks each item against its declared validation
// tags, failing fast with a validation error naming the offending item
// and field rather than spending a network round trip.
func validateInputItems(items []InputItem) error {
	for i, item := range items {
		if err := validate.Struct(item); err != nil {
			verrors, ok := err.(validator.ValidationErrors)
			if !ok {
				return NewError(ErrorTypeValidation, fmt.Sprintf("item %d: %v", i, err), ErrInvalidInput)
			}
			parts := make([]string, len(verrors))
			for j, verror := range verrors {
				parts[j] = fmt.Sprintf("%s failed %q", verror.Field(), verror.Tag())
			}
			return NewError(ErrorTypeValidation,
				fmt.Sprintf("item %d: %s", i, strings.Join(parts, "; ")), ErrInvalidInput)
		}
	}
	return nil
}
