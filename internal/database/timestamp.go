package database

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the single layout the store writes. It is fixed-width
// UTC, so string comparison in SQL orders the same way as time comparison.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// Display layouts used by the statistics views.
const (
	DateLayout     = "02.01.2006"
	DateTimeLayout = "02.01.2006 15:04"
)

// legacyLayouts are accepted on read only. Rows written by older deployments
// carry any of these; new rows always use TimestampLayout.
//
// Window and order predicates compare the TEXT values directly, so a legacy
// value sorts wrongly against canonical ones from the same day ('T' sorts
// after ' ', zone suffixes are ignored). NormalizeTimestamps rewrites such
// values at startup and before each VACUUM; values no layout parses are
// left as they are.
var legacyLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04",
	"2006-01-02",
}

// FormatTimestamp renders t in the canonical storage layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a stored timestamp in the canonical or any legacy layout.
// Values without a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(TimestampLayout, s, time.UTC); err == nil {
		return t, nil
	}
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Timestamp is a TEXT timestamp column. A value that cannot be parsed keeps
// its raw text so reads never fail on legacy data.
type Timestamp struct {
	Time  time.Time
	Raw   string
	Valid bool
}

// NewTimestamp wraps t as a valid Timestamp.
func NewTimestamp(t time.Time) Timestamp {
	t = t.UTC()
	return Timestamp{Time: t, Raw: FormatTimestamp(t), Valid: true}
}

// Scan implements sql.Scanner.
func (ts *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts = Timestamp{}
		return nil
	case time.Time:
		*ts = NewTimestamp(v)
		return nil
	case []byte:
		ts.setRaw(string(v))
		return nil
	case string:
		ts.setRaw(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", src)
	}
}

func (ts *Timestamp) setRaw(raw string) {
	ts.Raw = raw
	t, err := ParseTimestamp(raw)
	if err != nil {
		ts.Time = time.Time{}
		ts.Valid = false
		return
	}
	ts.Time = t
	ts.Valid = true
}

// Value implements driver.Valuer. Valid values are written canonically.
func (ts Timestamp) Value() (driver.Value, error) {
	if ts.Valid {
		return FormatTimestamp(ts.Time), nil
	}
	if ts.Raw != "" {
		return ts.Raw, nil
	}
	return nil, nil
}

// Format renders the timestamp with layout, or returns the raw stored text
// when it could not be parsed.
func (ts Timestamp) Format(layout string) string {
	if !ts.Valid {
		return ts.Raw
	}
	return ts.Time.Format(layout)
}

func (ts Timestamp) String() string {
	return ts.Format(TimestampLayout)
}
