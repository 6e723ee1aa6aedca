package parsers

import (
	"strings"
	"time"

	"bulbank-notification-parser/internal/models"
	"bulbank-notification-parser/pkg/errors"
)

// ParseDate parses DD.MM.YYYY[ HH:mm:ss] text in loc, trying each layout in
// order. A mismatch is a date format error for the named field.
func ParseDate(field, text string, layouts []string, loc *time.Location) (time.Time, error) {
	text = strings.TrimSpace(text)

	var lastErr error
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, text, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, errors.DateFormat(field, text, lastErr)
}

// ParseSum returns the amount text verbatim after trimming
func ParseSum(text string) string {
	return strings.TrimSpace(text)
}

// ParseEntryType maps a two-letter entry code. Unknown codes give
// EntryTypeInvalid and false; they are never an error.
func ParseEntryType(text string, codes map[string]models.EntryType) (models.EntryType, bool) {
	if entry, ok := codes[strings.ToUpper(strings.TrimSpace(text))]; ok {
		return entry, true
	}
	return models.EntryTypeInvalid, false
}
