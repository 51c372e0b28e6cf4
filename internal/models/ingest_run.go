package models

import "time"

// IngestStatus is the outcome of one ingest step.
type IngestStatus string

const (
	IngestStatusRunning   IngestStatus = "running"
	IngestStatusSucceeded IngestStatus = "succeeded"
	IngestStatusFailed    IngestStatus = "failed"
)

// IngestRun records one reconcile step of a batch run (one kind, one source).
type IngestRun struct {
	Base
	Kind           string       `gorm:"not null;index" json:"kind"`
	Source         string       `gorm:"not null" json:"source"`
	Status         IngestStatus `gorm:"not null" json:"status"`
	Seen           int          `gorm:"not null;default:0" json:"seen"`
	Created        int          `gorm:"not null;default:0" json:"created"`
	PKsCreated     int          `gorm:"column:pks_created;not null;default:0" json:"pks_created"`
	TickersCreated int          `gorm:"not null;default:0" json:"tickers_created"`
	Linked         int          `gorm:"not null;default:0" json:"linked"`
	Skipped        int          `gorm:"not null;default:0" json:"skipped"`
	Invalid        int          `gorm:"not null;default:0" json:"invalid"`
	Unresolved     int          `gorm:"not null;default:0" json:"unresolved"`
	Conflicts      int          `gorm:"not null;default:0" json:"conflicts"`
	Existing       int          `gorm:"not null;default:0" json:"existing"`
	Error          string       `json:"error,omitempty"`
	StartedAt      time.Time    `gorm:"not null" json:"started_at"`
	FinishedAt     *time.Time   `json:"finished_at,omitempty"`
}
