package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/mr1hm/go-covid-forecast/internal/models"
)

// Result is the normalized long-format dataset plus the number of long rows
// left out of it: rows missing from at least one indicator table, and rows
// with no country to aggregate under.
type Result struct {
	Records     []models.NormalizedRecord
	DroppedRows int
}

// regionKey is the full set of identifier values of one source row.
type regionKey [4]string

type aggKey struct {
	country string
	date    int
}

type Normalizer struct {
	Parsers []DateParser
}

func New() *Normalizer {
	return &Normalizer{Parsers: DefaultDateParsers}
}

// Normalize reshapes the three wide indicator tables into one record per
// (country, date) using the default date parsers.
func Normalize(confirmed, deaths, recovered models.RawTable) (*Result, error) {
	return New().Normalize(confirmed, deaths, recovered)
}

func (n *Normalizer) Normalize(confirmed, deaths, recovered models.RawTable) (*Result, error) {
	parsers := n.Parsers
	if len(parsers) == 0 {
		parsers = DefaultDateParsers
	}

	confirmed.Indicator = models.IndicatorConfirmed
	deaths.Indicator = models.IndicatorDeaths
	recovered.Indicator = models.IndicatorRecovered
	tables := []models.RawTable{confirmed, deaths, recovered}

	schemas := make([]Schema, len(tables))
	for i, t := range tables {
		s, err := BuildSchema(t, parsers)
		if err != nil {
			return nil, err
		}
		schemas[i] = s
	}
	for _, s := range schemas[1:] {
		if err := checkSameDates(schemas[0], s); err != nil {
			return nil, err
		}
	}

	long := make([]map[regionKey][]int64, len(tables))
	for i, t := range tables {
		m, err := melt(t, schemas[i])
		if err != nil {
			return nil, err
		}
		long[i] = m
	}

	nDates := len(schemas[0].DateFields)
	dropped := 0
	for i, m := range long {
		for key := range m {
			for j, other := range long {
				if i == j {
					continue
				}
				if _, ok := other[key]; !ok {
					dropped += nDates
					break
				}
			}
		}
	}

	sums := make(map[aggKey]*[3]int64)
	for key, c := range long[0] {
		d, okD := long[1][key]
		r, okR := long[2][key]
		if !okD || !okR {
			continue
		}
		country := key[models.CountryFieldIndex]
		if country == "" {
			dropped += nDates
			continue
		}
		for di := 0; di < nDates; di++ {
			k := aggKey{country: country, date: di}
			acc, ok := sums[k]
			if !ok {
				acc = new([3]int64)
				sums[k] = acc
			}
			for ii, v := range [3]int64{c[di], d[di], r[di]} {
				total, ok := addCount(acc[ii], v)
				if !ok {
					return nil, &InvalidCountError{
						Indicator: models.Indicators[ii],
						Country:   country,
						Header:    schemas[0].DateFields[di].Header,
						Value:     strconv.FormatInt(v, 10),
					}
				}
				acc[ii] = total
			}
		}
	}

	records := make([]models.NormalizedRecord, 0, len(sums))
	for k, v := range sums {
		records = append(records, models.NewRecord(k.country, schemas[0].DateFields[k.date].Date, v[0], v[1], v[2]))
	}
	models.SortRecords(records)

	return &Result{Records: records, DroppedRows: dropped}, nil
}

// melt turns one wide table into per-region count vectors indexed like
// schema.DateFields. Repeated identifier rows are summed.
func melt(table models.RawTable, schema Schema) (map[regionKey][]int64, error) {
	nID := len(schema.IdentifierFields)
	nDates := len(schema.DateFields)
	out := make(map[regionKey][]int64, len(table.Rows))

	for ri, row := range table.Rows {
		var key regionKey
		for i := 0; i < nID && i < len(row); i++ {
			key[i] = strings.TrimSpace(row[i])
		}
		key[2] = canonicalCoord(key[2])
		key[3] = canonicalCoord(key[3])

		counts, ok := out[key]
		if !ok {
			counts = make([]int64, nDates)
			out[key] = counts
		}

		for di := 0; di < nDates; di++ {
			col := nID + di
			if col >= len(row) {
				continue
			}
			v, err := parseCount(row[col])
			if err == nil {
				var ok bool
				if v, ok = addCount(counts[di], v); !ok {
					err = ErrInvalidCount
				}
			}
			if err != nil {
				return nil, &InvalidCountError{
					Indicator: table.Indicator,
					Row:       ri + 1,
					Header:    schema.DateFields[di].Header,
					Value:     row[col],
				}
			}
			counts[di] = v
		}
	}

	return out, nil
}

// parseCount accepts non-negative integers, integral floats ("12.0") and
// blanks, which count as zero.
func parseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		if v < 0 {
			return 0, ErrInvalidCount
		}
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f >= 1<<63 {
		return 0, ErrInvalidCount
	}
	return int64(f), nil
}

// addCount sums two non-negative counts, reporting false on int64 overflow.
func addCount(a, b int64) (int64, bool) {
	if a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}

// canonicalCoord formats coordinates uniformly so "33.0" and "33" join.
func canonicalCoord(s string) string {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
