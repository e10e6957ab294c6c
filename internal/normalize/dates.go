package normalize

import (
	"strings"
	"time"
)

// DateParser turns a column header into a calendar date.
type DateParser func(s string) (time.Time, bool)

func layoutParser(layout string) DateParser {
	return func(s string) (time.Time, bool) {
		t, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
}

// permissiveLayouts are tried, in order, after the two primary encodings.
var permissiveLayouts = []string{
	"1/2/2006",
	"01-02-2006",
	"1-2-06",
	"2006/01/02",
	"2006.01.02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2-Jan-2006",
	"02-Jan-06",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func permissiveParser(s string) (time.Time, bool) {
	for _, layout := range permissiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DefaultDateParsers: month/day/2-digit-year, then ISO year-month-day, then
// a permissive generic pass.
var DefaultDateParsers = []DateParser{
	layoutParser("1/2/06"),
	layoutParser("2006-01-02"),
	permissiveParser,
}

// ParseDate tries each parser in order and returns the date truncated to
// midnight UTC.
func ParseDate(header string, parsers []DateParser) (time.Time, bool) {
	s := strings.TrimSpace(header)
	if s == "" {
		return time.Time{}, false
	}
	for _, p := range parsers {
		if t, ok := p(s); ok {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
