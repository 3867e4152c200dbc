package utils

import "time"

// TimestampLayout is the ISO-8601 form stored in createdAt/updatedAt attributes.
// Millisecond precision keeps the values lexically sortable as index sort keys.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NowTimestamp returns the current time formatted for storage.
func NowTimestamp() string {
	return FormatTimestamp(time.Now())
}

// ParseTimestamp accepts both stored timestamps and client supplied RFC3339 values.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
