package medialib

import (
	"fmt"
	"time"
)

// TimestampLayout is the canonical text form timestamps are persisted in.
const TimestampLayout = time.RFC3339Nano

// naiveLayout accepts ISO 8601 values written without an offset; they are read as UTC.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// FormatTimestamp renders t in the canonical persisted form.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp reads a persisted timestamp that is either the canonical
// string form or an already structured time value. The result is always UTC.
func ParseTimestamp(v any) (time.Time, error) {
	switch ts := v.(type) {
	case time.Time:
		return ts.UTC(), nil
	case *time.Time:
		if ts == nil {
			return time.Time{}, fmt.Errorf("%w: nil timestamp", ErrInvalidRecord)
		}
		return ts.UTC(), nil
	case string:
		if t, err := time.Parse(TimestampLayout, ts); err == nil {
			return t.UTC(), nil
		}
		t, err := time.ParseInLocation(naiveLayout, ts, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: unparseable timestamp %q", ErrInvalidRecord, ts)
		}
		return t, nil
	case nil:
		return time.Time{}, fmt.Errorf("%w: missing timestamp", ErrInvalidRecord)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported timestamp type %T", ErrInvalidRecord, v)
	}
}
