package utils

import (
	"errors"
	"strings"
	"time"
)

// ErrBadTime is returned by ParseTime when no supported layout matches.
var ErrBadTime = errors.New("unrecognized date/time format")

// departureLayouts are tried in order. Layouts without a zone are read as UTC.
var departureLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"1/2/06 15:04",
	"2006-01-02",
	"01/02/2006",
}

// ParseTime parses user-supplied timestamps from forms and spreadsheets.
// The result is always in UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrBadTime
	}
	for _, layout := range departureLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrBadTime
}
