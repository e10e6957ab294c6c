// Package dataset fetches the raw indicator tables, normalizes them and
// publishes the resulting immutable dataset to readers.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mr1hm/go-covid-forecast/internal/events"
	"github.com/mr1hm/go-covid-forecast/internal/models"
	"github.com/mr1hm/go-covid-forecast/internal/normalize"
	"github.com/mr1hm/go-covid-forecast/internal/repository"
)

var ErrNoSnapshot = errors.New("no stored snapshot")

// Loader owns the current dataset. Readers call Current; a reload replaces
// the pointer and never mutates a published dataset.
type Loader struct {
	provider    Provider
	normalizer  *normalize.Normalizer
	store       repository.Store
	broadcaster *events.Broadcaster
	interval    time.Duration

	current atomic.Pointer[models.Dataset]
	wg      sync.WaitGroup
}

// NewLoader wires a loader. store and broadcaster may be nil; interval 0
// disables periodic reloads.
func NewLoader(provider Provider, store repository.Store, broadcaster *events.Broadcaster, interval time.Duration) *Loader {
	return &Loader{
		provider:    provider,
		normalizer:  normalize.New(),
		store:       store,
		broadcaster: broadcaster,
		interval:    interval,
	}
}

// Current returns the published dataset, or nil before the first load.
func (l *Loader) Current() *models.Dataset {
	return l.current.Load()
}

// Start performs the initial load, falling back to the stored snapshot when
// the provider fails, then starts the reload poller if an interval is set.
func (l *Loader) Start(ctx context.Context) error {
	if _, err := l.Load(ctx); err != nil {
		slog.Error("initial load failed", "source", l.provider.Source(), "error", err)

		if _, snapErr := l.LoadSnapshot(ctx); snapErr != nil {
			return fmt.Errorf("initial load: %w (snapshot: %v)", err, snapErr)
		}
	}

	if l.interval > 0 {
		l.wg.Add(1)
		go l.runPoller(ctx)
	}
	return nil
}

func (l *Loader) runPoller(ctx context.Context) {
	defer l.wg.Done()
	slog.Info("starting reload poller", "source", l.provider.Source(), "interval", l.interval)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("reload poller shutting down", "source", l.provider.Source())
			return
		case <-ticker.C:
			if _, err := l.Load(ctx); err != nil {
				slog.Error("reload failed, keeping current dataset", "source", l.provider.Source(), "error", err)
			}
		}
	}
}

// Stop waits for the poller; cancel the context passed to Start first.
func (l *Loader) Stop() {
	l.wg.Wait()
	slog.Info("dataset loader stopped")
}

// Load fetches and normalizes a fresh dataset and publishes it. On failure
// the current dataset is left in place.
func (l *Loader) Load(ctx context.Context) (*models.Dataset, error) {
	source := l.provider.Source()
	started := time.Now()
	slog.Debug("loading dataset", "source", source)

	tables, err := l.provider.Fetch(ctx)
	if err != nil {
		l.recordFailure(ctx, source, started, err)
		return nil, fmt.Errorf("fetch: %w", err)
	}

	res, err := l.normalizer.Normalize(tables.Confirmed, tables.Deaths, tables.Recovered)
	if err != nil {
		l.recordFailure(ctx, source, started, err)
		return nil, fmt.Errorf("normalize: %w", err)
	}
	if res.DroppedRows > 0 {
		slog.Warn("rows dropped while joining indicator tables", "source", source, "dropped_rows", res.DroppedRows)
	}

	ds := models.NewDataset(res.Records)
	l.current.Store(ds)

	if l.store != nil {
		if err := l.store.ReplaceRecords(ctx, ds.Records()); err != nil {
			slog.Warn("failed to store snapshot", "error", err)
		}
	}

	l.publish(ctx, source, started, ds, res.DroppedRows, models.LoadStatusOK)
	slog.Info("dataset loaded",
		"source", source,
		"records", ds.Len(),
		"countries", len(ds.Countries()),
		"duration", time.Since(started),
	)
	return ds, nil
}

// LoadSnapshot publishes the records last stored in the repository.
func (l *Loader) LoadSnapshot(ctx context.Context) (*models.Dataset, error) {
	if l.store == nil {
		return nil, ErrNoSnapshot
	}

	started := time.Now()
	records, err := l.store.ListRecords(ctx, repository.Filter{})
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoSnapshot
	}

	ds := models.NewDataset(records)
	l.current.Store(ds)
	l.publish(ctx, "snapshot", started, ds, 0, models.LoadStatusSnapshot)
	slog.Warn("serving stored snapshot", "records", ds.Len(), "last_date", ds.LastDate())
	return ds, nil
}

func (l *Loader) publish(ctx context.Context, source string, loadedAt time.Time, ds *models.Dataset, dropped int, status models.LoadStatus) {
	run := &models.LoadRun{
		Source:      source,
		LoadedAt:    loadedAt,
		Records:     ds.Len(),
		Countries:   len(ds.Countries()),
		DroppedRows: dropped,
		Status:      status,
	}
	l.recordRun(ctx, run)

	if l.broadcaster != nil {
		l.broadcaster.Broadcast(models.DatasetEvent{
			Source:      source,
			Status:      status,
			LoadedAt:    loadedAt,
			Records:     run.Records,
			Countries:   run.Countries,
			DroppedRows: dropped,
			LastDate:    ds.LastDate(),
		})
	}
}

func (l *Loader) recordFailure(ctx context.Context, source string, loadedAt time.Time, cause error) {
	l.recordRun(ctx, &models.LoadRun{
		Source:   source,
		LoadedAt: loadedAt,
		Status:   models.LoadStatusFailed,
		Error:    cause.Error(),
	})
}

func (l *Loader) recordRun(ctx context.Context, run *models.LoadRun) {
	if l.store == nil {
		return
	}
	if err := l.store.AddLoadRun(ctx, run); err != nil {
		slog.Warn("failed to record load run", "status", run.Status, "error", err)
	}
}
