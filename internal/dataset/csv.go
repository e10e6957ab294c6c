package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mr1hm/go-covid-forecast/internal/models"
)

var ErrTooFewColumns = errors.New("csv needs identifier columns and at least one date column")

// ParseCSV reads one wide time-series table. Cells are kept as text;
// validating them is the normalizer's job.
func ParseCSV(indicator models.Indicator, r io.Reader) (models.RawTable, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return models.RawTable{}, fmt.Errorf("error reading %s csv: %w", indicator, err)
	}
	if len(records) == 0 {
		return models.RawTable{}, fmt.Errorf("%s csv is empty: %w", indicator, ErrTooFewColumns)
	}

	header := records[0]
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) <= len(models.IdentifierFields) {
		return models.RawTable{}, fmt.Errorf("%s csv has %d columns: %w", indicator, len(header), ErrTooFewColumns)
	}

	return models.RawTable{
		Indicator: indicator,
		Header:    header,
		Rows:      records[1:],
	}, nil
}
