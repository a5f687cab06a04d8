package stores

import (
	"context"
	"time"
)

// RunStatus represents the status of an install run.
type RunStatus string

const (
	RunStatusRunning    RunStatus = "running"
	RunStatusSucceeded  RunStatus = "succeeded"
	RunStatusFailed     RunStatus = "failed"
	RunStatusRolledBack RunStatus = "rolled_back"
)

// PluginOperation names the lifecycle call a result belongs to.
type PluginOperation string

const (
	OperationInstall   PluginOperation = "install"
	OperationVerify    PluginOperation = "verify"
	OperationUninstall PluginOperation = "uninstall"
)

// EventLevel represents the severity level of an event.
type EventLevel string

const (
	EventLevelInfo    EventLevel = "info"
	EventLevelWarning EventLevel = "warning"
	EventLevelError   EventLevel = "error"
)

// Run represents one install run against a target.
type Run struct {
	ID          string     `json:"id"`
	TargetDir   string     `json:"target_dir"`
	Status      RunStatus  `json:"status"`
	DryRun      bool       `json:"dry_run"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PluginRecord is the stored outcome of one plugin lifecycle call.
type PluginRecord struct {
	ID         string          `json:"id"`
	RunID      string          `json:"run_id"`
	PluginName string          `json:"plugin_name"`
	Operation  PluginOperation `json:"operation"`
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Errors     string          `json:"errors"` // JSON array
	FileCount  int             `json:"file_count"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Event represents an append-only log event tied to a run.
type Event struct {
	ID        int64      `json:"id"`
	RunID     *string    `json:"run_id,omitempty"`
	Level     EventLevel `json:"level"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}

// Store defines the interface for the install history persistence layer.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Run operations
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	UpdateRunStatus(ctx context.Context, id string, status RunStatus, errMsg *string) error
	ListRuns(ctx context.Context, limit, offset int) ([]*Run, error)

	// Plugin record operations
	RecordPluginResult(ctx context.Context, rec *PluginRecord) error
	ListPluginResultsByRun(ctx context.Context, runID string) ([]*PluginRecord, error)

	// Event operations
	AppendEvent(ctx context.Context, event *Event) error
	GetEvents(ctx context.Context, runID *string, limit, offset int) ([]*Event, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
