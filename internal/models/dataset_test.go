package models

import (
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2020, 1, 22, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestRates_ZeroConfirmed(t *testing.T) {
	m, r := Rates(0, 5, 7)
	if m != 0 || r != 0 {
		t.Errorf("expected zero rates, got %v and %v", m, r)
	}
}

func TestRates(t *testing.T) {
	m, r := Rates(200, 10, 50)
	if m != 5 {
		t.Errorf("expected mortality 5, got %v", m)
	}
	if r != 25 {
		t.Errorf("expected recovery 25, got %v", r)
	}
}

func TestNewDataset_IndexesByCountry(t *testing.T) {
	ds := NewDataset([]NormalizedRecord{
		NewRecord("Italy", day(1), 20, 1, 0),
		NewRecord("Chile", day(0), 1, 0, 0),
		NewRecord("Italy", day(0), 10, 0, 0),
		NewRecord("Chile", day(1), 3, 0, 1),
	})

	if ds.Len() != 4 {
		t.Fatalf("expected 4 records, got %d", ds.Len())
	}

	countries := ds.Countries()
	if len(countries) != 2 || countries[0] != "Chile" || countries[1] != "Italy" {
		t.Errorf("unexpected countries: %v", countries)
	}

	italy := ds.Series("Italy")
	if len(italy) != 2 {
		t.Fatalf("expected 2 Italy records, got %d", len(italy))
	}
	if !italy[0].Date.Equal(day(0)) || italy[1].Confirmed != 20 {
		t.Errorf("Italy series not ordered by date: %+v", italy)
	}

	if ds.Series("Narnia") != nil {
		t.Error("expected nil series for unknown country")
	}
	if ds.HasCountry("Narnia") {
		t.Error("expected HasCountry false for unknown country")
	}
}

func TestNewDataset_Latest(t *testing.T) {
	ds := NewDataset([]NormalizedRecord{
		NewRecord("Italy", day(0), 10, 0, 0),
		NewRecord("Italy", day(5), 50, 2, 3),
		NewRecord("Chile", day(3), 7, 0, 0),
	})

	latest := ds.Latest()
	if len(latest) != 2 {
		t.Fatalf("expected 2 latest records, got %d", len(latest))
	}
	if latest[1].Country != "Italy" || latest[1].Confirmed != 50 {
		t.Errorf("expected Italy latest 50, got %+v", latest[1])
	}
	if !ds.LastDate().Equal(day(5)) {
		t.Errorf("expected last date %v, got %v", day(5), ds.LastDate())
	}
}

func TestNewDataset_DoesNotAliasInput(t *testing.T) {
	in := []NormalizedRecord{NewRecord("Italy", day(0), 10, 0, 0)}
	ds := NewDataset(in)

	in[0].Confirmed = 999
	if ds.Series("Italy")[0].Confirmed != 10 {
		t.Error("dataset should not share the caller's slice")
	}
}

func TestNewDataset_Empty(t *testing.T) {
	ds := NewDataset(nil)
	if ds.Len() != 0 || len(ds.Countries()) != 0 || len(ds.Latest()) != 0 {
		t.Error("expected empty dataset")
	}
	if !ds.LastDate().IsZero() {
		t.Error("expected zero last date")
	}
}
