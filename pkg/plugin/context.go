package plugin

import (
	"github.com/kitstrap/kitstrap/pkg/telemetry"
)

// BackupManager is the optional backup collaborator carried by the execution
// context. Create snapshots the target's conventional directories and returns
// the snapshot location. LatestLocation returns the most recent snapshot path,
// or an empty string when no snapshot exists. Restore overwrites the target's
// tracked directories with the contents of the given snapshot.
type BackupManager interface {
	Create() (string, error)
	LatestLocation() string
	Restore(location string) error
}

// ExecutionContext is the caller-owned value bundle passed to every plugin
// lifecycle call. The registry and plugins read it; nothing in the engine
// mutates it.
type ExecutionContext struct {
	// TargetDir is the root of the environment being installed into.
	TargetDir string

	// ScriptsDir is the directory holding installable scripts.
	ScriptsDir string

	// TemplatesDir is the directory holding installable templates.
	TemplatesDir string

	// ProjectRoot is the enclosing project directory, when known.
	ProjectRoot string

	// FrameworkRoot is the framework source checkout, when installing
	// from source rather than from a packaged release.
	FrameworkRoot string

	// Logger receives structured install/verify/rollback logging.
	Logger *telemetry.Logger

	// Backup is the optional backup collaborator used by rollback.
	Backup BackupManager

	// DryRun makes plugins report what they would do without writing.
	DryRun bool

	// Metadata carries plugin-specific extension values.
	Metadata map[string]string
}

// NewExecutionContext creates a context for the given target directory with
// a default logger. Callers typically set the remaining fields directly.
func NewExecutionContext(targetDir string, logger *telemetry.Logger) *ExecutionContext {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	return &ExecutionContext{
		TargetDir: targetDir,
		Logger:    logger,
		Metadata:  make(map[string]string),
	}
}
