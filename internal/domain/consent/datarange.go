package consent

import (
	"time"
)

// HistoryWindow is how far back a consent requests data.
const HistoryWindow = 365 * 24 * time.Hour

// TimestampLayout matches the millisecond UTC timestamps the provider emits.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in the provider's timestamp format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// RequestedRange is the one-year window requested when creating a consent.
func RequestedRange(now time.Time) DataRange {
	return DataRange{
		From: FormatTimestamp(now.Add(-HistoryWindow)),
		To:   FormatTimestamp(now),
	}
}

// ResolveDataRange returns the first range present in candidates, in order.
// Without any, it derives one year up to consentStart; an unparseable or missing
// consentStart yields an empty range.
func ResolveDataRange(candidates []*DataRange, consentStart string) DataRange {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}

	if consentStart == "" {
		return DataRange{}
	}
	start, err := time.Parse(time.RFC3339Nano, consentStart)
	if err != nil {
		return DataRange{}
	}
	return DataRange{
		From: FormatTimestamp(start.Add(-HistoryWindow)),
		To:   FormatTimestamp(start),
	}
}
