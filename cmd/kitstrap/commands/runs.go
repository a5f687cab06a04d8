package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect install history",
	}

	cmd.AddCommand(newRunsListCommand())
	cmd.AddCommand(newRunsShowCommand())

	return cmd
}

func newRunsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent install runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := loadRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			if rt.store == nil {
				return errHistoryDisabled
			}

			runs, err := rt.store.ListRuns(ctx, limit, 0)
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(runs)
			}
			fmt.Printf("%-36s %-12s %-8s %s\n", "RUN", "STATUS", "DRY-RUN", "STARTED")
			for _, run := range runs {
				fmt.Printf("%-36s %-12s %-8v %s\n",
					run.ID, run.Status, run.DryRun, run.StartedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")

	return cmd
}

func newRunsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its plugin results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := loadRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			if rt.store == nil {
				return errHistoryDisabled
			}

			run, err := rt.store.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			records, err := rt.store.ListPluginResultsByRun(ctx, run.ID)
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(struct {
					Run     interface{} `json:"run"`
					Results interface{} `json:"results"`
				}{run, records})
			}

			fmt.Printf("run %s (%s)\n", run.ID, run.Status)
			fmt.Printf("target: %s\n", run.TargetDir)
			if run.Error != nil {
				fmt.Printf("error: %s\n", *run.Error)
			}
			for _, rec := range records {
				status := "ok"
				if !rec.Success {
					status = "FAILED"
				}
				fmt.Printf("  %-20s %-10s %-8s %s (%d files)\n",
					rec.PluginName, rec.Operation, status, rec.Message, rec.FileCount)
			}
			return nil
		},
	}
}
