package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{Path: filepath.Join(t.TempDir(), "state.db")})
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newRun(targetDir string) *Run {
	return &Run{
		ID:        uuid.New().String(),
		TargetDir: targetDir,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

func TestSQLiteStore_RequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Fatal("Expected error for empty database path, got nil")
	}
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	run := newRun("/opt/app")
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.TargetDir != "/opt/app" || got.Status != RunStatusRunning {
		t.Errorf("Unexpected run: %+v", got)
	}

	errMsg := "plugin settings failed"
	if err := store.UpdateRunStatus(ctx, run.ID, RunStatusFailed, &errMsg); err != nil {
		t.Fatalf("UpdateRunStatus failed: %v", err)
	}

	got, err = store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != RunStatusFailed {
		t.Errorf("Expected status failed, got %s", got.Status)
	}
	if got.Error == nil || *got.Error != errMsg {
		t.Errorf("Expected stored error message, got %v", got.Error)
	}
	if got.CompletedAt == nil {
		t.Error("Expected completion time for a finished run")
	}
}

func TestSQLiteStore_UpdateRunStatus_UnknownRun(t *testing.T) {
	store := testStore(t)
	if err := store.UpdateRunStatus(context.Background(), "missing", RunStatusSucceeded, nil); err == nil {
		t.Fatal("Expected error for unknown run, got nil")
	}
}

func TestSQLiteStore_ListRuns_NewestFirst(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first := newRun("/opt/a")
	first.StartedAt = time.Now().UTC().Add(-time.Hour)
	second := newRun("/opt/b")

	if err := store.CreateRun(ctx, first); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := store.CreateRun(ctx, second); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second.ID {
		t.Errorf("Expected newest run first, got %s", runs[0].ID)
	}
}

func TestSQLiteStore_PluginResults(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	run := newRun("/opt/app")
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	records := []*PluginRecord{
		{
			ID:         uuid.New().String(),
			RunID:      run.ID,
			PluginName: "assets",
			Operation:  OperationInstall,
			Success:    true,
			Message:    "copied 3 files",
			FileCount:  3,
		},
		{
			ID:         uuid.New().String(),
			RunID:      run.ID,
			PluginName: "settings",
			Operation:  OperationInstall,
			Success:    false,
			Message:    "merge failed",
			Errors:     `["invalid fragment"]`,
		},
	}
	for _, rec := range records {
		if err := store.RecordPluginResult(ctx, rec); err != nil {
			t.Fatalf("RecordPluginResult failed: %v", err)
		}
	}

	got, err := store.ListPluginResultsByRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListPluginResultsByRun failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(got))
	}
	if got[0].PluginName != "assets" || got[1].PluginName != "settings" {
		t.Errorf("Expected insertion order, got %s then %s", got[0].PluginName, got[1].PluginName)
	}
	if got[0].Errors != "[]" {
		t.Errorf("Empty errors should normalize to an empty JSON array, got %q", got[0].Errors)
	}
	if got[1].Errors != `["invalid fragment"]` {
		t.Errorf("Unexpected stored errors: %q", got[1].Errors)
	}
}

func TestSQLiteStore_Events(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	run := newRun("/opt/app")
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	events := []*Event{
		{RunID: &run.ID, Level: EventLevelInfo, Message: "install started"},
		{RunID: &run.ID, Level: EventLevelError, Message: "plugin settings failed"},
		{Level: EventLevelInfo, Message: "global event without a run"},
	}
	for _, e := range events {
		if err := store.AppendEvent(ctx, e); err != nil {
			t.Fatalf("AppendEvent failed: %v", err)
		}
		if e.ID == 0 {
			t.Error("Expected an assigned event ID")
		}
	}

	scoped, err := store.GetEvents(ctx, &run.ID, 10, 0)
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}
	if len(scoped) != 2 {
		t.Errorf("Expected 2 run-scoped events, got %d", len(scoped))
	}

	all, err := store.GetEvents(ctx, nil, 10, 0)
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 events total, got %d", len(all))
	}
}

func TestSQLiteStore_HealthCheck(t *testing.T) {
	store := testStore(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}

	uninitialized := &SQLiteStore{path: "x"}
	if err := uninitialized.HealthCheck(context.Background()); err == nil {
		t.Error("Expected error for uninitialized store")
	}
}
