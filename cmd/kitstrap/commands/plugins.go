package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newPluginsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect the registered component plugins",
	}

	cmd.AddCommand(newPluginsListCommand())
	cmd.AddCommand(newPluginsOrderCommand())
	cmd.AddCommand(newPluginsDependentsCommand())

	return cmd
}

func newPluginsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			type pluginRow struct {
				Name         string   `json:"name"`
				Priority     int      `json:"priority"`
				Dependencies []string `json:"dependencies"`
			}

			var rows []pluginRow
			for _, name := range rt.reg.Plugins() {
				p, _ := rt.reg.Get(name)
				rows = append(rows, pluginRow{
					Name:         p.Name(),
					Priority:     p.Priority(),
					Dependencies: p.Dependencies(),
				})
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(rows)
			}
			fmt.Printf("%-20s %-8s %s\n", "NAME", "PRIORITY", "DEPENDENCIES")
			for _, row := range rows {
				fmt.Printf("%-20s %-8d %s\n", row.Name, row.Priority, strings.Join(row.Dependencies, ", "))
			}
			return nil
		},
	}
}

func newPluginsOrderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "order",
		Short: "Show the execution order",
		Long: `Show the order plugins would run in: dependencies before dependents,
independent plugins by ascending priority, name as the final tie-break.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			order, err := rt.reg.ExecutionOrder()
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(order)
			}
			for i, name := range order {
				fmt.Printf("%d. %s\n", i+1, name)
			}
			return nil
		},
	}
}

func newPluginsDependentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dependents <plugin>",
		Short: "List the plugins that depend on a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			dependents := rt.reg.Dependents(args[0])
			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(dependents)
			}
			if len(dependents) == 0 {
				fmt.Printf("nothing depends on %s\n", args[0])
				return nil
			}
			for _, name := range dependents {
				fmt.Println(name)
			}
			return nil
		},
	}
}
