package utils

import (
	"strings"
	"time"
)

const layoutDisplay = "Mon Jan 2, 2006 3:04 PM MST"

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// pickupLayouts are the ISO-8601 forms accepted for a pickup time, most specific first.
// Layouts without an offset are read as UTC.
var pickupLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParsePickupTime parses an ISO-8601 date or date-time and returns it in UTC.
func ParsePickupTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range pickupLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// FormatDisplay renders a timestamp for emails and receipts.
func FormatDisplay(t time.Time) string {
	return t.UTC().Format(layoutDisplay)
}
