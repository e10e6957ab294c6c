package normalize

import (
	"errors"
	"fmt"

	"github.com/mr1hm/go-covid-forecast/internal/models"
)

var (
	ErrSchemaMismatch   = errors.New("schema mismatch")
	ErrDateParseFailure = errors.New("date parse failure")
	ErrInvalidCount     = errors.New("invalid count")
)

// SchemaMismatchError reports an indicator table whose columns disagree with
// the expected identifier fields or with the other tables' date columns.
type SchemaMismatchError struct {
	Indicator models.Indicator
	Reason    string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch in %s table: %s", e.Indicator, e.Reason)
}

func (e *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}

// DateParseError carries the column header no candidate layout could parse.
type DateParseError struct {
	Indicator models.Indicator
	Header    string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("cannot parse date column %q in %s table", e.Header, e.Indicator)
}

func (e *DateParseError) Unwrap() error {
	return ErrDateParseFailure
}

// InvalidCountError points at a value cell that is not a non-negative integer
// or whose running total overflows int64. Row is 1-based and excludes the
// header line; it is 0 when the overflow comes from summing a country's
// regions, in which case Country is set.
type InvalidCountError struct {
	Indicator models.Indicator
	Row       int
	Country   string
	Header    string
	Value     string
}

func (e *InvalidCountError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("count total for %s overflows in %s table, column %q", e.Country, e.Indicator, e.Header)
	}
	return fmt.Sprintf("invalid count %q in %s table, row %d, column %q", e.Value, e.Indicator, e.Row, e.Header)
}

func (e *InvalidCountError) Unwrap() error {
	return ErrInvalidCount
}
