package pantry

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var expirationLayouts = []string{
	dateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// NormalizeExpiration reduces an expiration to its calendar date. Blank input
// means no expiration and yields nil. Timestamps keep the date as written,
// without converting between zones.
func NormalizeExpiration(s string) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range expirationLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			d := t.Format(dateLayout)
			return &d, nil
		}
	}
	return nil, invalid("expiration", "must be a date like 2025-03-15")
}

func normalizeNotes(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
