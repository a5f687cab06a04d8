package registry

import (
	"os"
	"path/filepath"

	"github.com/kitstrap/kitstrap/pkg/plugin"
)

// RollbackInstallation reverses the current run's bookkeeping on a
// best-effort basis. Every file recorded as installed this run is deleted;
// a file that cannot be deleted is logged as a warning and skipped, never
// aborting the rest of the rollback. The top-level target directory of each
// plugin installed this run is then removed, in reverse install order, but
// only when it is empty - non-empty directories may hold content this run
// never tracked.
//
// When the context carries a backup collaborator with a known prior
// snapshot, the snapshot's tracked directories are restored over the target
// afterwards. Bookkeeping is cleared at the end regardless of partial
// failures.
func (r *Registry) RollbackInstallation(ctx *plugin.ExecutionContext) {
	log := ctxLogger(ctx)

	defer func() {
		r.installedPlugins = nil
		r.installedFiles = nil
	}()

	if r.metrics != nil {
		r.metrics.RecordRollbackStarted()
	}

	if ctx != nil && ctx.DryRun {
		log.Infof("dry-run: would roll back %d files from %d plugins",
			len(r.installedFiles), len(r.installedPlugins))
		return
	}

	log.Infof("rolling back %d files from %d plugins",
		len(r.installedFiles), len(r.installedPlugins))

	for _, path := range r.installedFiles {
		err := os.Remove(path)
		switch {
		case err == nil:
			log.Debugf("removed %s", path)
			if r.metrics != nil {
				r.metrics.RecordRollbackFile(true)
			}
		case os.IsNotExist(err):
			// Already gone; nothing to undo.
			if r.metrics != nil {
				r.metrics.RecordRollbackFile(true)
			}
		default:
			log.WithError(err).Warnf("failed to remove %s, leaving in place", path)
			if r.metrics != nil {
				r.metrics.RecordRollbackFile(false)
			}
		}
	}

	if ctx != nil {
		for i := len(r.installedPlugins) - 1; i >= 0; i-- {
			r.removeEmptyTargetDir(ctx, r.installedPlugins[i])
		}

		r.restoreFromBackup(ctx)
	}

	log.Info("rollback complete")
}

// removeEmptyTargetDir removes the plugin's top-level directory under the
// target root if and only if it is now empty.
func (r *Registry) removeEmptyTargetDir(ctx *plugin.ExecutionContext, name string) {
	log := ctxLogger(ctx)
	dir := filepath.Join(ctx.TargetDir, name)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warnf("cannot inspect %s during rollback", dir)
		}
		return
	}
	if len(entries) > 0 {
		log.Debugf("leaving non-empty directory %s", dir)
		return
	}

	if err := os.Remove(dir); err != nil {
		log.WithError(err).Warnf("failed to remove directory %s", dir)
		return
	}
	log.Debugf("removed empty directory %s", dir)
}

// restoreFromBackup overwrites the target's tracked directories with the
// most recent snapshot, when a backup collaborator is present and has one.
func (r *Registry) restoreFromBackup(ctx *plugin.ExecutionContext) {
	if ctx.Backup == nil {
		return
	}

	log := ctxLogger(ctx)
	location := ctx.Backup.LatestLocation()
	if location == "" {
		log.Debug("no prior backup available, skipping restore")
		return
	}

	log.Infof("restoring from backup %s", location)
	if err := ctx.Backup.Restore(location); err != nil {
		log.WithError(err).Warn("backup restore failed, residual files may remain")
	}
}
