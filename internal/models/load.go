package models

import "time"

type LoadStatus string

const (
	LoadStatusOK       LoadStatus = "ok"
	LoadStatusFailed   LoadStatus = "failed"
	LoadStatusSnapshot LoadStatus = "snapshot"
)

// LoadRun records the outcome of one dataset load.
type LoadRun struct {
	ID          int64      `json:"id"`
	Source      string     `json:"source"`
	LoadedAt    time.Time  `json:"loaded_at"`
	Records     int        `json:"records"`
	Countries   int        `json:"countries"`
	DroppedRows int        `json:"dropped_rows"`
	Status      LoadStatus `json:"status"`
	Error       string     `json:"error,omitempty"`
}

// DatasetEvent is published every time a new dataset replaces the current one.
type DatasetEvent struct {
	Source      string     `json:"source"`
	Status      LoadStatus `json:"status"`
	LoadedAt    time.Time  `json:"loaded_at"`
	Records     int        `json:"records"`
	Countries   int        `json:"countries"`
	DroppedRows int        `json:"dropped_rows"`
	LastDate    time.Time  `json:"last_date"`
}
