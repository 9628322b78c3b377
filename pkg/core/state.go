package core

import "time"

// Store defines the interface for the rollup cache and run history.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Run operations
	CreateRun(cacheKey string) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetLatestRun() (*Run, error)

	// Rollup cache operations
	GetRollup(cacheKey string) ([]Row, bool, error)
	PutRollup(entry *CacheEntry, rows []Row) error
	ListRollups() ([]*CacheEntry, error)
	DeleteRollup(cacheKey string) error
	ClearRollups() (int64, error)
}

// RunStatus represents the status of a pipeline run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCached    RunStatus = "cached"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents one pipeline execution.
type Run struct {
	ID          string
	CacheKey    string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// CacheEntry describes a stored rollup.
type CacheEntry struct {
	Key       string
	RunID     string
	Taxonomy  string
	YearMin   *int
	YearMax   *int
	RowCount  int64
	CreatedAt time.Time
}
