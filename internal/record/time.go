package record

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Time is an optional UTC timestamp. The zero value is "not a date": it
// compares below every real timestamp and is never an error to produce.
type Time struct {
	t     time.Time
	valid bool
}

// NaT is the missing timestamp.
var NaT = Time{}

// layouts are tried in order by ParseTime.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// At wraps t as a present timestamp.
func At(t time.Time) Time {
	if t.IsZero() {
		return NaT
	}
	return Time{t: t.UTC(), valid: true}
}

// ParseTime parses s with the layouts the GitHub API and common exports use.
// Empty or unparsable input yields NaT.
func ParseTime(s string) Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return NaT
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return At(t)
		}
	}
	return NaT
}

// Valid reports whether the timestamp is present.
func (t Time) Valid() bool { return t.valid }

// Time returns the underlying time; the zero time.Time when missing.
func (t Time) Time() time.Time { return t.t }

// Before orders missing timestamps below all present ones.
func (t Time) Before(u Time) bool {
	switch {
	case !t.valid:
		return u.valid
	case !u.valid:
		return false
	default:
		return t.t.Before(u.t)
	}
}

// Latest returns the latest present timestamp among ts, or NaT.
func Latest(ts ...Time) Time {
	out := NaT
	for _, t := range ts {
		if out.Before(t) {
			out = t
		}
	}
	return out
}

// String formats present timestamps as RFC 3339 and missing ones as "NaT".
func (t Time) String() string {
	if !t.valid {
		return "NaT"
	}
	return t.t.Format(time.RFC3339)
}

// UnmarshalJSON never fails: anything other than a parsable date string
// decodes to NaT.
func (t *Time) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var s string
	if len(data) == 0 || data[0] != '"' || json.Unmarshal(data, &s) != nil {
		*t = NaT
		return nil
	}
	*t = ParseTime(s)
	return nil
}

// MarshalJSON encodes missing timestamps as null.
func (t Time) MarshalJSON() ([]byte, error) {
	if !t.valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.t.Format(time.RFC3339Nano))
}
