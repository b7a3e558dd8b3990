package yupdates

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	maxItemTimeMS   = 9_999_999_999_999
	maxItemTimeSlot = 99_999
)

// NormalizeItemTime accepts the various forms of an item time, validates
// it, and returns the canonical version the service uses for time-range
// queries.
//
// An item time is a unix epoch millisecond from 0 to 9999999999999 with
// an optional five digit suffix that disambiguates items sharing the
// same millisecond. Valid inputs include "1234", "1661564013555",
// "1661564013555.00003" and "123456.789"; the normalized form is always
// thirteen digits, a dot, and five digits, e.g. "0000000001234.00000".
func NormalizeItemTime(itemTime string) (string, error) {
	parts := strings.Split(itemTime, ".")
	var baseStr, slotStr string
	switch len(parts) {
	case 1:
		baseStr, slotStr = itemTime, "0"
	case 2:
		baseStr, slotStr = parts[0], parts[1]
	default:
		return "", NewError(ErrorTypeValidation, fmt.Sprintf("invalid item time: %q", itemTime), ErrInvalidInput)
	}
	baseMS, err := parseBoundedUint(baseStr, "base ms", maxItemTimeMS)
	if err != nil {
		return "", err
	}
	slot, err := parseBoundedUint(slotStr, "suffix", maxItemTimeSlot)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%013d.%05d", baseMS, slot), nil
}

// NormalizeItemTimeMS is NormalizeItemTime for integer timestamps.
func NormalizeItemTimeMS(itemTimeMS uint64) (string, error) {
	return NormalizeItemTime(strconv.FormatUint(itemTimeMS, 10))
}

func parseBoundedUint(s, name string, upperBound uint64) (uint64, error) {
	parsed, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, NewError(ErrorTypeValidation, fmt.Sprintf("invalid item time %s: %q", name, s), ErrInvalidInput)
	}
	if parsed > upperBound {
		return 0, NewError(ErrorTypeValidation,
			fmt.Sprintf("item time %s may not be larger than %d: %d", name, upperBound, parsed), ErrInvalidInput)
	}
	return parsed, nil
}
