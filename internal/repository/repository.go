package repository

import (
	"context"
	"time"

	"github.com/mr1hm/go-covid-forecast/internal/models"
)

type Filter struct {
	Country string
	Since   *time.Time
	Limit   int
}

// RecordRepository stores the latest normalized snapshot. Forecasts are never
// persisted; they are recomputed from these records.
type RecordRepository interface {
	ReplaceRecords(ctx context.Context, records []models.NormalizedRecord) error
	ListRecords(ctx context.Context, opts Filter) ([]models.NormalizedRecord, error)
	Countries(ctx context.Context) ([]string, error)
}

type LoadRunRepository interface {
	AddLoadRun(ctx context.Context, run *models.LoadRun) error
	ListLoadRuns(ctx context.Context, limit int) ([]models.LoadRun, error)
}

// Store is everything the loader needs from persistence.
type Store interface {
	RecordRepository
	LoadRunRepository
}
