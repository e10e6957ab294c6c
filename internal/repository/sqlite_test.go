package repository

import (
	"context"
	"testing"
	"time"

	"github.com/mr1hm/go-covid-forecast/internal/models"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	return db
}

func day(n int) time.Time {
	return time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestSQLiteDB_ReplaceAndListRecords(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	records := []models.NormalizedRecord{
		models.NewRecord("Italy", day(1), 200, 10, 5),
		models.NewRecord("Chile", day(0), 4, 0, 0),
		models.NewRecord("Italy", day(0), 100, 4, 1),
	}

	if err := db.ReplaceRecords(ctx, records); err != nil {
		t.Fatalf("ReplaceRecords failed: %v", err)
	}

	got, err := db.ListRecords(ctx, Filter{})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].Country != "Chile" || got[1].Country != "Italy" || !got[1].Date.Equal(day(0)) {
		t.Errorf("records not ordered by country, date: %+v", got)
	}
	if got[2].MortalityRate != 5 {
		t.Errorf("expected mortality rate 5, got %v", got[2].MortalityRate)
	}
}

func TestSQLiteDB_ReplaceRecordsOverwrites(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	if err := db.ReplaceRecords(ctx, []models.NormalizedRecord{models.NewRecord("Peru", day(0), 1, 0, 0)}); err != nil {
		t.Fatalf("ReplaceRecords failed: %v", err)
	}
	if err := db.ReplaceRecords(ctx, []models.NormalizedRecord{models.NewRecord("Chad", day(0), 2, 0, 0)}); err != nil {
		t.Fatalf("ReplaceRecords failed: %v", err)
	}

	countries, err := db.Countries(ctx)
	if err != nil {
		t.Fatalf("Countries failed: %v", err)
	}
	if len(countries) != 1 || countries[0] != "Chad" {
		t.Errorf("expected only Chad after replace, got %v", countries)
	}
}

func TestSQLiteDB_DuplicateRecordRollsBack(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	if err := db.ReplaceRecords(ctx, []models.NormalizedRecord{models.NewRecord("Peru", day(0), 1, 0, 0)}); err != nil {
		t.Fatalf("ReplaceRecords failed: %v", err)
	}

	dup := []models.NormalizedRecord{
		models.NewRecord("Chad", day(0), 1, 0, 0),
		models.NewRecord("Chad", day(0), 2, 0, 0),
	}
	if err := db.ReplaceRecords(ctx, dup); err == nil {
		t.Fatal("expected error for duplicate (country, date), got nil")
	}

	countries, err := db.Countries(ctx)
	if err != nil {
		t.Fatalf("Countries failed: %v", err)
	}
	if len(countries) != 1 || countries[0] != "Peru" {
		t.Errorf("expected previous snapshot to survive, got %v", countries)
	}
}

func TestSQLiteDB_ListRecords_WithFilters(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	var records []models.NormalizedRecord
	for i := 0; i < 5; i++ {
		records = append(records,
			models.NewRecord("Spain", day(i), int64(i*10), 0, 0),
			models.NewRecord("Japan", day(i), int64(i), 0, 0),
		)
	}
	if err := db.ReplaceRecords(ctx, records); err != nil {
		t.Fatalf("ReplaceRecords failed: %v", err)
	}

	results, err := db.ListRecords(ctx, Filter{Country: "Spain"})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("expected 5 Spain records, got %d", len(results))
	}

	since := day(3)
	results, err = db.ListRecords(ctx, Filter{Country: "Japan", Since: &since})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 Japan records since day 3, got %d", len(results))
	}

	results, err = db.ListRecords(ctx, Filter{Limit: 3})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 records with limit, got %d", len(results))
	}
}

func TestSQLiteDB_LoadRuns(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	loadedAt := time.Date(2021, 1, 2, 3, 4, 5, 6, time.UTC)

	first := &models.LoadRun{Source: "dir", LoadedAt: loadedAt, Records: 10, Countries: 2, DroppedRows: 1, Status: models.LoadStatusOK}
	second := &models.LoadRun{Source: "http", LoadedAt: loadedAt.Add(time.Hour), Status: models.LoadStatusFailed, Error: "boom"}

	for _, run := range []*models.LoadRun{first, second} {
		if err := db.AddLoadRun(ctx, run); err != nil {
			t.Fatalf("AddLoadRun failed: %v", err)
		}
	}
	if first.ID == 0 || second.ID <= first.ID {
		t.Errorf("expected increasing ids, got %d and %d", first.ID, second.ID)
	}

	runs, err := db.ListLoadRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListLoadRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Status != models.LoadStatusFailed || runs[0].Error != "boom" {
		t.Errorf("expected newest failed run first, got %+v", runs[0])
	}
	if !runs[1].LoadedAt.Equal(loadedAt) || runs[1].DroppedRows != 1 {
		t.Errorf("unexpected first run: %+v", runs[1])
	}

	runs, err = db.ListLoadRuns(ctx, 1)
	if err != nil {
		t.Fatalf("ListLoadRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run with limit, got %d", len(runs))
	}
}
