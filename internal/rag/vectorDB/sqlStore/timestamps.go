package sqlStore

import (
	"fmt"
	"strings"
	"time"
)

// TextTimeLayout is fixed width so that text timestamps sort chronologically.
const TextTimeLayout = "2006-01-02T15:04:05.000000000Z"

var legacyLayouts = []string{
	TextTimeLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// FormatTextTime is the added_date encoding for stores without a native timestamp type.
func FormatTextTime(t time.Time) any {
	return t.UTC().Format(TextTimeLayout)
}

// FormatNativeTime binds the timestamp as time.Time for drivers that map it to DATETIME.
func FormatNativeTime(t time.Time) any {
	return t.UTC()
}

// parseTimestamp normalizes whatever the driver returned for added_date.
// NULL becomes the zero time. Text without a zone is read as UTC, which is
// what CURRENT_TIMESTAMP writes.
func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case []byte:
		return parseTimestampText(string(t))
	case string:
		return parseTimestampText(t)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func parseTimestampText(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range legacyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
