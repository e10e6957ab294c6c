package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/mr1hm/go-covid-forecast/internal/models"
)

type DateField struct {
	Header string
	Date   time.Time
}

// Schema is the explicit column layout of a wide indicator table.
type Schema struct {
	Indicator        models.Indicator
	IdentifierFields []string
	DateFields       []DateField
}

// BuildSchema validates the identifier columns of a table and parses every
// date column header.
func BuildSchema(table models.RawTable, parsers []DateParser) (Schema, error) {
	nID := len(models.IdentifierFields)
	if len(table.Header) <= nID {
		return Schema{}, &SchemaMismatchError{
			Indicator: table.Indicator,
			Reason:    fmt.Sprintf("expected %d identifier columns followed by date columns, got %d columns", nID, len(table.Header)),
		}
	}

	for i, want := range models.IdentifierFields {
		got := strings.TrimSpace(table.Header[i])
		if !strings.EqualFold(got, want) {
			return Schema{}, &SchemaMismatchError{
				Indicator: table.Indicator,
				Reason:    fmt.Sprintf("column %d is %q, expected %q", i+1, got, want),
			}
		}
	}

	s := Schema{
		Indicator:        table.Indicator,
		IdentifierFields: models.IdentifierFields,
		DateFields:       make([]DateField, 0, len(table.Header)-nID),
	}

	seen := make(map[time.Time]string, len(table.Header)-nID)
	for _, h := range table.Header[nID:] {
		d, ok := ParseDate(h, parsers)
		if !ok {
			return Schema{}, &DateParseError{Indicator: table.Indicator, Header: h}
		}
		if prev, dup := seen[d]; dup {
			return Schema{}, &SchemaMismatchError{
				Indicator: table.Indicator,
				Reason:    fmt.Sprintf("columns %q and %q name the same date", prev, h),
			}
		}
		seen[d] = h
		s.DateFields = append(s.DateFields, DateField{Header: h, Date: d})
	}

	return s, nil
}

// checkSameDates requires other to carry exactly the dates of ref, in the same order.
func checkSameDates(ref, other Schema) error {
	if len(ref.DateFields) != len(other.DateFields) {
		return &SchemaMismatchError{
			Indicator: other.Indicator,
			Reason: fmt.Sprintf("%d date columns, %s table has %d",
				len(other.DateFields), ref.Indicator, len(ref.DateFields)),
		}
	}
	for i := range ref.DateFields {
		if !ref.DateFields[i].Date.Equal(other.DateFields[i].Date) {
			return &SchemaMismatchError{
				Indicator: other.Indicator,
				Reason: fmt.Sprintf("date column %d is %q, %s table has %q",
					i+1, other.DateFields[i].Header, ref.Indicator, ref.DateFields[i].Header),
			}
		}
	}
	return nil
}
