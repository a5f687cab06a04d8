package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the installed components",
		Long: `Verify every registered component plugin against the target environment.

Verification visits every plugin in execution order and continues through
failures, so the output is always a complete health picture. The command
exits non-zero when any plugin fails verification.`,
		Example: `  # Verify the install
  kitstrap verify

  # Machine-readable output
  kitstrap verify --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := loadRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			results, err := rt.reg.VerifyAll(rt.execContext())
			if err != nil {
				return err
			}

			printResults(results)
			if failed := failedPlugins(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d plugins failed verification", len(failed), len(results))
			}
			return nil
		},
	}

	return cmd
}
