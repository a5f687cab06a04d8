package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newBackupCommand() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the target environment",
		Long: `Create a snapshot of the target's tracked directories.

The snapshot is a timestamped tar.gz archive in the configured backup
directory. Tracked directories missing from the target are skipped.`,
		Example: `  # Create a snapshot
  kitstrap backup

  # List existing snapshots
  kitstrap backup --list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			if rt.backup == nil {
				return errBackupsDisabled
			}

			if list {
				snapshots, err := rt.backup.List()
				if err != nil {
					return err
				}
				if jsonOutput {
					return json.NewEncoder(os.Stdout).Encode(snapshots)
				}
				for _, s := range snapshots {
					fmt.Printf("%s  %d bytes  %s\n", s.CreatedAt.Format("2006-01-02 15:04:05"), s.Size, s.Location)
				}
				return nil
			}

			location, err := rt.backup.Create()
			if err != nil {
				return err
			}
			fmt.Println(location)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list existing snapshots instead of creating one")

	return cmd
}
