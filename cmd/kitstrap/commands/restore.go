package commands

import (
	"github.com/spf13/cobra"
)

func newRestoreCommand() *cobra.Command {
	var snapshot string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore the target from a snapshot",
		Long: `Restore the target's tracked directories from a snapshot archive.

Restoring clears each tracked directory first, so the result is a clean
replacement rather than a merge. Without --snapshot the most recent
snapshot is used.`,
		Example: `  # Restore from the latest snapshot
  kitstrap restore

  # Restore a specific snapshot
  kitstrap restore --snapshot .kitstrap/backups/kitstrap-backup-20260825T120000-ab12cd34.tar.gz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			if rt.backup == nil {
				return errBackupsDisabled
			}

			location := snapshot
			if location == "" {
				location = rt.backup.LatestLocation()
			}
			if location == "" {
				return errNoSnapshots
			}

			rt.logger.Infof("restoring target from %s", location)
			return rt.backup.Restore(location)
		},
	}

	cmd.Flags().StringVar(&snapshot, "snapshot", "", "snapshot archive to restore (default: latest)")

	return cmd
}
