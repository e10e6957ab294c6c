package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mr1hm/go-covid-forecast/internal/models"
)

const dateLayout = "2006-01-02"

type SQLiteDB struct {
	db *sql.DB
}

var _ Store = (*SQLiteDB)(nil)

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			country TEXT NOT NULL,
			date TEXT NOT NULL,
			confirmed INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			recovered INTEGER NOT NULL,
			mortality_rate REAL NOT NULL,
			recovery_rate REAL NOT NULL,
			PRIMARY KEY (country, date)
		);

		CREATE TABLE IF NOT EXISTS load_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			loaded_at TEXT NOT NULL,
			records INTEGER NOT NULL,
			countries INTEGER NOT NULL,
			dropped_rows INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_records_date ON records(date);
		CREATE INDEX IF NOT EXISTS idx_load_runs_loaded_at ON load_runs(loaded_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// ReplaceRecords swaps the stored snapshot for records in one transaction.
func (s *SQLiteDB) ReplaceRecords(ctx context.Context, records []models.NormalizedRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("error clearing records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (country, date, confirmed, deaths, recovered, mortality_rate, recovery_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.Country, r.Date.UTC().Format(dateLayout),
			r.Confirmed, r.Deaths, r.Recovered,
			r.MortalityRate, r.RecoveryRate,
		)
		if err != nil {
			return fmt.Errorf("error inserting record %s/%s: %w", r.Country, r.Date.Format(dateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing records: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ListRecords(ctx context.Context, opts Filter) ([]models.NormalizedRecord, error) {
	query := `SELECT country, date, confirmed, deaths, recovered, mortality_rate, recovery_rate FROM records`

	var (
		conds []string
		args  []any
	)
	if opts.Country != "" {
		conds = append(conds, "country = ?")
		args = append(args, opts.Country)
	}
	if opts.Since != nil {
		conds = append(conds, "date >= ?")
		args = append(args, opts.Since.UTC().Format(dateLayout))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY country, date"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying records: %w", err)
	}
	defer rows.Close()

	var records []models.NormalizedRecord
	for rows.Next() {
		var (
			r    models.NormalizedRecord
			date string
		)
		if err := rows.Scan(&r.Country, &date, &r.Confirmed, &r.Deaths, &r.Recovered, &r.MortalityRate, &r.RecoveryRate); err != nil {
			return nil, fmt.Errorf("error scanning record: %w", err)
		}
		r.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("error parsing stored date %q: %w", date, err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

func (s *SQLiteDB) Countries(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT country FROM records ORDER BY country`)
	if err != nil {
		return nil, fmt.Errorf("error querying countries: %w", err)
	}
	defer rows.Close()

	var countries []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("error scanning country: %w", err)
		}
		countries = append(countries, c)
	}

	return countries, rows.Err()
}

func (s *SQLiteDB) AddLoadRun(ctx context.Context, run *models.LoadRun) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO load_runs (source, loaded_at, records, countries, dropped_rows, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.Source, run.LoadedAt.UTC().Format(time.RFC3339Nano),
		run.Records, run.Countries, run.DroppedRows,
		string(run.Status), run.Error,
	)
	if err != nil {
		return fmt.Errorf("error inserting load run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading load run id: %w", err)
	}
	run.ID = id
	return nil
}

// ListLoadRuns returns the most recent runs first.
func (s *SQLiteDB) ListLoadRuns(ctx context.Context, limit int) ([]models.LoadRun, error) {
	query := `
		SELECT id, source, loaded_at, records, countries, dropped_rows, status, COALESCE(error, '')
		FROM load_runs ORDER BY id DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying load runs: %w", err)
	}
	defer rows.Close()

	var runs []models.LoadRun
	for rows.Next() {
		var (
			run      models.LoadRun
			loadedAt string
			status   string
		)
		if err := rows.Scan(&run.ID, &run.Source, &loadedAt, &run.Records, &run.Countries, &run.DroppedRows, &status, &run.Error); err != nil {
			return nil, fmt.Errorf("error scanning load run: %w", err)
		}
		run.LoadedAt, err = time.Parse(time.RFC3339Nano, loadedAt)
		if err != nil {
			return nil, fmt.Errorf("error parsing loaded_at %q: %w", loadedAt, err)
		}
		run.Status = models.LoadStatus(status)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
