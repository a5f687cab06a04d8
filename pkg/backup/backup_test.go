package backup

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestManager_CreateAndRestore_RoundTrip(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "scripts", "run.sh"), "original script")
	writeFile(t, filepath.Join(target, "config", "settings.json"), "{}")

	m := NewManager(target, t.TempDir(), nil, nil)

	location, err := m.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := os.Stat(location); err != nil {
		t.Fatalf("Snapshot archive missing: %v", err)
	}

	// Mutate and pollute the tracked directories.
	writeFile(t, filepath.Join(target, "scripts", "run.sh"), "clobbered")
	writeFile(t, filepath.Join(target, "scripts", "extra.sh"), "should vanish")

	if err := m.Restore(location); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if got := readFile(t, filepath.Join(target, "scripts", "run.sh")); got != "original script" {
		t.Errorf("Expected restored content, got %q", got)
	}
	// Restore is a replacement, not a merge.
	if _, err := os.Stat(filepath.Join(target, "scripts", "extra.sh")); !os.IsNotExist(err) {
		t.Error("Expected post-snapshot file to be removed by restore")
	}
	if got := readFile(t, filepath.Join(target, "config", "settings.json")); got != "{}" {
		t.Errorf("Expected config to survive round trip, got %q", got)
	}
}

func TestManager_Restore_LeavesUntrackedDirectories(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "scripts", "run.sh"), "script")
	writeFile(t, filepath.Join(target, "userdata", "keep.txt"), "precious")

	m := NewManager(target, t.TempDir(), nil, nil)
	location, err := m.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := m.Restore(location); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if got := readFile(t, filepath.Join(target, "userdata", "keep.txt")); got != "precious" {
		t.Errorf("Untracked directory must survive restore, got %q", got)
	}
}

func TestManager_Create_SkipsMissingDirectories(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "templates", "base.tmpl"), "tmpl")
	// scripts, config, hooks do not exist; Create must not fail.

	m := NewManager(target, t.TempDir(), nil, nil)
	if _, err := m.Create(); err != nil {
		t.Fatalf("Create failed on partial target: %v", err)
	}
}

func TestManager_LatestLocation(t *testing.T) {
	target := t.TempDir()
	backupDir := t.TempDir()
	writeFile(t, filepath.Join(target, "scripts", "a.sh"), "a")

	m := NewManager(target, backupDir, nil, nil)

	if got := m.LatestLocation(); got != "" {
		t.Errorf("Expected empty location before any snapshot, got %s", got)
	}

	first, err := m.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got := m.LatestLocation(); got != first {
		t.Errorf("Expected latest %s, got %s", first, got)
	}

	second, err := m.Create()
	if err != nil {
		t.Fatalf("Second create failed: %v", err)
	}
	if first == second {
		t.Fatal("Expected distinct snapshot names")
	}

	snapshots, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(snapshots) != 2 {
		t.Errorf("Expected 2 snapshots, got %d", len(snapshots))
	}
}

func TestManager_CustomDirectories(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "custom", "x.txt"), "x")
	writeFile(t, filepath.Join(target, "scripts", "ignored.sh"), "ignored")

	m := NewManager(target, t.TempDir(), []string{"custom"}, nil)
	location, err := m.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// The untracked scripts directory survives the restore untouched.
	writeFile(t, filepath.Join(target, "custom", "x.txt"), "changed")
	if err := m.Restore(location); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if got := readFile(t, filepath.Join(target, "custom", "x.txt")); got != "x" {
		t.Errorf("Expected tracked custom directory restored, got %q", got)
	}
	if got := readFile(t, filepath.Join(target, "scripts", "ignored.sh")); got != "ignored" {
		t.Errorf("Expected untracked scripts directory untouched, got %q", got)
	}
}
