// Package backup implements the snapshot collaborator used by the installer.
// A Manager captures the target environment's conventional top-level
// directories into timestamped tar.gz snapshots, reports the most recent
// snapshot, and restores a snapshot's directories over the target.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kitstrap/kitstrap/pkg/telemetry"
)

// DefaultDirectories is the conventional set of top-level target directories
// captured and restored by default. Callers can override the set; see the
// policy note in DESIGN.md.
var DefaultDirectories = []string{"scripts", "templates", "config", "hooks"}

const snapshotPrefix = "kitstrap-backup-"

// Manager creates and restores snapshots of a target environment.
type Manager struct {
	targetDir   string
	backupDir   string
	directories []string
	logger      *telemetry.Logger
}

// Info describes one snapshot on disk.
type Info struct {
	// Location is the snapshot archive path.
	Location string `json:"location"`

	// CreatedAt is the snapshot's modification time.
	CreatedAt time.Time `json:"created_at"`

	// Size is the archive size in bytes.
	Size int64 `json:"size"`
}

// NewManager creates a snapshot manager for the given target. An empty
// directory set falls back to DefaultDirectories; a nil logger is replaced
// with a no-op logger.
func NewManager(targetDir, backupDir string, directories []string, logger *telemetry.Logger) *Manager {
	if len(directories) == 0 {
		directories = DefaultDirectories
	}
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	dirs := make([]string, len(directories))
	copy(dirs, directories)
	return &Manager{
		targetDir:   targetDir,
		backupDir:   backupDir,
		directories: dirs,
		logger:      logger.NewComponentLogger("backup"),
	}
}

// Create snapshots the tracked directories into a new tar.gz archive and
// returns its location. Tracked directories missing from the target are
// skipped, not treated as errors.
func (m *Manager) Create() (string, error) {
	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("%s%s-%s.tar.gz",
		snapshotPrefix,
		time.Now().UTC().Format("20060102T150405"),
		uuid.New().String()[:8])
	location := filepath.Join(m.backupDir, name)

	f, err := os.Create(location)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	captured := 0
	for _, dir := range m.directories {
		root := filepath.Join(m.targetDir, dir)
		if _, err := os.Stat(root); os.IsNotExist(err) {
			m.logger.Debugf("skipping missing directory %s", dir)
			continue
		}

		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(m.targetDir, path)
			if err != nil {
				return err
			}

			header, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}
			header.Name = filepath.ToSlash(rel)

			if err := tw.WriteHeader(header); err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}

			src, err := os.Open(path)
			if err != nil {
				return err
			}
			defer src.Close()
			_, err = io.Copy(tw, src)
			return err
		})
		if err != nil {
			return "", fmt.Errorf("failed to archive %s: %w", dir, err)
		}
		captured++
	}

	m.logger.Infof("created snapshot %s (%d directories)", location, captured)
	return location, nil
}

// LatestLocation returns the path of the most recent snapshot, or an empty
// string when none exists.
func (m *Manager) LatestLocation() string {
	snapshots, err := m.List()
	if err != nil || len(snapshots) == 0 {
		return ""
	}
	return snapshots[len(snapshots)-1].Location
}

// List returns the available snapshots sorted oldest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var snapshots []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), snapshotPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snapshots = append(snapshots, Info{
			Location:  filepath.Join(m.backupDir, entry.Name()),
			CreatedAt: info.ModTime(),
			Size:      info.Size(),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.Before(snapshots[j].CreatedAt)
	})
	return snapshots, nil
}

// Restore overwrites the target's tracked directories with the contents of
// the given snapshot. Tracked directories present in the target are removed
// first so the restore is a clean replacement, not a merge.
func (m *Manager) Restore(location string) error {
	f, err := os.Open(location)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	defer gz.Close()

	tracked := make(map[string]bool, len(m.directories))
	for _, dir := range m.directories {
		tracked[dir] = true
		if err := os.RemoveAll(filepath.Join(m.targetDir, dir)); err != nil {
			return fmt.Errorf("failed to clear %s before restore: %w", dir, err)
		}
	}

	tr := tar.NewReader(gz)
	restored := 0
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read snapshot entry: %w", err)
		}

		rel := filepath.Clean(filepath.FromSlash(header.Name))
		if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
			return fmt.Errorf("snapshot entry escapes target: %s", header.Name)
		}
		if !tracked[topLevel(rel)] {
			continue
		}

		dest := filepath.Join(m.targetDir, rel)
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, os.FileMode(header.Mode)); err != nil {
				return fmt.Errorf("failed to restore directory %s: %w", rel, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return fmt.Errorf("failed to restore %s: %w", rel, err)
			}
			out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("failed to restore %s: %w", rel, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("failed to restore %s: %w", rel, err)
			}
			out.Close()
			restored++
		default:
			m.logger.Warnf("skipping unsupported snapshot entry %s", header.Name)
		}
	}

	m.logger.Infof("restored %d files from %s", restored, location)
	return nil
}

// topLevel returns the first path element of a relative path.
func topLevel(rel string) string {
	for i := 0; i < len(rel); i++ {
		if os.IsPathSeparator(rel[i]) {
			return rel[:i]
		}
	}
	return rel
}
