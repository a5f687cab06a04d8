package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUninstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall <plugin>",
		Short: "Uninstall a single component",
		Long: `Uninstall one component plugin from the target environment.

The uninstall is refused when other registered plugins still depend on the
named plugin; the error names every blocking dependent. Plugins without an
uninstall step are removed from the registry without touching the target.`,
		Example: `  # Remove the settings component
  kitstrap uninstall settings`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			rt, err := loadRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			res := rt.reg.Uninstall(rt.execContext(), name)
			if !res.Success {
				for _, e := range res.Errors {
					rt.logger.WithPlugin(name).Error(e)
				}
				return fmt.Errorf("%s", res.Message)
			}

			fmt.Println(res.Message)
			return nil
		},
	}

	return cmd
}
