package commands

import (
	"github.com/spf13/cobra"
)

func newRollbackCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Roll back the target to the latest snapshot",
		Long: `Restore the target environment from the most recent snapshot.

Rollback is best-effort: it clears the tracked directories and replaces
them with the snapshot contents. It requires backups to be enabled in the
configuration and at least one existing snapshot.`,
		Example: `  # Restore the latest snapshot
  kitstrap rollback`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := loadRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			if rt.backup == nil {
				return errBackupsDisabled
			}

			location := rt.backup.LatestLocation()
			if location == "" {
				return errNoSnapshots
			}

			rt.logger.Infof("restoring target from %s", location)
			return rt.backup.Restore(location)
		},
	}

	return cmd
}
