package models

import (
	"sort"
	"time"
)

// Dataset is an immutable, country-indexed view over a set of normalized
// records. It is safe for concurrent readers; nothing mutates it after
// NewDataset returns.
type Dataset struct {
	records   []NormalizedRecord
	byCountry map[string][]NormalizedRecord
	countries []string
	lastDate  time.Time
}

// NewDataset copies records, orders them by (country, date) and indexes them
// by country.
func NewDataset(records []NormalizedRecord) *Dataset {
	sorted := make([]NormalizedRecord, len(records))
	copy(sorted, records)
	SortRecords(sorted)

	ds := &Dataset{
		records:   sorted,
		byCountry: make(map[string][]NormalizedRecord),
	}

	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || sorted[i].Country != sorted[start].Country {
			country := sorted[start].Country
			// full slice expression so appends by callers can't alias the next country
			ds.byCountry[country] = sorted[start:i:i]
			ds.countries = append(ds.countries, country)
			start = i
		}
	}

	for _, r := range sorted {
		if r.Date.After(ds.lastDate) {
			ds.lastDate = r.Date
		}
	}

	return ds
}

// SortRecords orders records by country then date ascending.
func SortRecords(records []NormalizedRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Country != records[j].Country {
			return records[i].Country < records[j].Country
		}
		return records[i].Date.Before(records[j].Date)
	})
}

// Records returns all records ordered by (country, date). The slice is
// shared and must not be modified.
func (d *Dataset) Records() []NormalizedRecord {
	return d.records
}

// Countries returns the sorted distinct country names.
func (d *Dataset) Countries() []string {
	return d.countries
}

func (d *Dataset) HasCountry(country string) bool {
	_, ok := d.byCountry[country]
	return ok
}

// Series returns a country's records ordered by date, or nil if unknown.
func (d *Dataset) Series(country string) []NormalizedRecord {
	return d.byCountry[country]
}

// Latest returns the most recent record of every country, ordered by country.
func (d *Dataset) Latest() []NormalizedRecord {
	latest := make([]NormalizedRecord, 0, len(d.countries))
	for _, c := range d.countries {
		series := d.byCountry[c]
		latest = append(latest, series[len(series)-1])
	}
	return latest
}

// LastDate is the most recent observation date across all countries.
func (d *Dataset) LastDate() time.Time {
	return d.lastDate
}

func (d *Dataset) Len() int {
	return len(d.records)
}
