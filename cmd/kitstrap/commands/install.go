package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kitstrap/kitstrap/pkg/plugin"
	"github.com/kitstrap/kitstrap/pkg/stores"
	"github.com/kitstrap/kitstrap/pkg/telemetry"
)

func newInstallCommand(version string) *cobra.Command {
	var (
		exclude           []string
		dryRun            bool
		noBackup          bool
		skipPolicy        bool
		rollbackOnFailure bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install framework components into the target",
		Long: `Install every registered component plugin into the target environment.

Plugins run in dependency order; independent plugins run by ascending
priority. Installation stops at the first plugin that fails. Components
already installed keep their effects unless --rollback-on-failure is set.`,
		Example: `  # Install everything
  kitstrap install

  # Preview without writing
  kitstrap install --dry-run

  # Skip the settings plugin
  kitstrap install --exclude settings`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := loadRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			if dryRun {
				rt.cfg.DryRun = true
			}

			tracer, err := telemetry.NewTracer(rt.cfg.Telemetry.Tracing,
				rt.cfg.Telemetry.ServiceName, version, rt.cfg.Telemetry.Environment)
			if err != nil {
				return fmt.Errorf("failed to create tracer: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tracer.Shutdown(shutdownCtx)
			}()

			if rt.cfg.Telemetry.Metrics.Enabled {
				go func() {
					if err := rt.metrics.Serve(); err != nil {
						rt.logger.WithError(err).Warn("metrics endpoint stopped")
					}
				}()
			}

			runID := uuid.New().String()
			ctx, span := tracer.StartRunSpan(ctx, runID)
			defer span.End()

			log := rt.logger.WithRunID(runID)
			log.Infof("starting install into %s", rt.cfg.TargetDir)

			excluded := append([]string{}, rt.cfg.Exclude...)
			excluded = append(excluded, exclude...)
			if !skipPolicy {
				denied, err := rt.policyExclusions(ctx, rt.cfg.DryRun)
				if err != nil {
					telemetry.RecordError(span, err)
					return err
				}
				excluded = append(excluded, denied...)
			}

			if rt.backup != nil && !rt.cfg.DryRun && !noBackup {
				location, err := rt.backup.Create()
				if err != nil {
					telemetry.RecordError(span, err)
					return fmt.Errorf("failed to create pre-install snapshot: %w", err)
				}
				log.Infof("snapshot created at %s", location)
			}

			if rt.store != nil {
				run := &stores.Run{
					ID:        runID,
					TargetDir: rt.cfg.TargetDir,
					Status:    stores.RunStatusRunning,
					DryRun:    rt.cfg.DryRun,
					StartedAt: time.Now().UTC(),
				}
				if err := rt.store.CreateRun(ctx, run); err != nil {
					log.WithError(err).Warn("failed to record run start")
				}
			}

			ectx := rt.execContext()
			ectx.Logger = log
			results, err := rt.reg.InstallAll(ectx, excluded)
			recordResults(ctx, rt, runID, stores.OperationInstall, results)

			if err != nil {
				finishRun(ctx, rt, runID, stores.RunStatusFailed, err.Error())
				telemetry.RecordError(span, err)
				return err
			}

			failed := failedPlugins(results)
			if len(failed) == 0 {
				finishRun(ctx, rt, runID, stores.RunStatusSucceeded, "")
				telemetry.RecordSuccess(span)
				printResults(results)
				log.Info("install completed")
				return nil
			}

			installErr := fmt.Errorf("install failed at plugin %s", strings.Join(failed, ", "))
			telemetry.RecordError(span, installErr)
			printResults(results)

			if rollbackOnFailure && !rt.cfg.DryRun {
				log.Warn("rolling back failed installation")
				rt.reg.RollbackInstallation(ectx)
				finishRun(ctx, rt, runID, stores.RunStatusRolledBack, installErr.Error())
				return installErr
			}

			finishRun(ctx, rt, runID, stores.RunStatusFailed, installErr.Error())
			return installErr
		},
	}

	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "plugin names to skip")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be installed without writing")
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "skip the pre-install snapshot")
	cmd.Flags().BoolVar(&skipPolicy, "skip-policy", false, "skip policy evaluation")
	cmd.Flags().BoolVar(&rollbackOnFailure, "rollback-on-failure", false, "roll back automatically when a plugin fails")

	return cmd
}

// recordResults persists plugin results to the history store when one is
// configured. Recording failures are logged, never fatal.
func recordResults(ctx context.Context, rt *runtime, runID string, op stores.PluginOperation, results map[string]*plugin.Result) {
	if rt.store == nil {
		return
	}
	for name, res := range results {
		errs := "[]"
		if len(res.Errors) > 0 {
			if data, err := json.Marshal(res.Errors); err == nil {
				errs = string(data)
			}
		}
		rec := &stores.PluginRecord{
			ID:         uuid.New().String(),
			RunID:      runID,
			PluginName: name,
			Operation:  op,
			Success:    res.Success,
			Message:    res.Message,
			Errors:     errs,
			FileCount:  len(res.InstalledFiles),
		}
		if err := rt.store.RecordPluginResult(ctx, rec); err != nil {
			rt.logger.WithError(err).WithPlugin(name).Warn("failed to record plugin result")
		}
	}
}

// finishRun updates the stored run status when a history store is configured.
func finishRun(ctx context.Context, rt *runtime, runID string, status stores.RunStatus, errMsg string) {
	if rt.store == nil {
		return
	}
	var msg *string
	if errMsg != "" {
		msg = &errMsg
	}
	if err := rt.store.UpdateRunStatus(ctx, runID, status, msg); err != nil {
		rt.logger.WithError(err).Warn("failed to record run completion")
	}
}

// failedPlugins returns the names of failed results.
func failedPlugins(results map[string]*plugin.Result) []string {
	var failed []string
	for name, res := range results {
		if !res.Success {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)
	return failed
}

// printResults writes per-plugin outcomes to stdout, as JSON when --json is
// set and as a short status table otherwise.
func printResults(results map[string]*plugin.Result) {
	if jsonOutput {
		_ = json.NewEncoder(os.Stdout).Encode(results)
		return
	}
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		res := results[name]
		status := "ok"
		if !res.Success {
			status = "FAILED"
		}
		fmt.Printf("%-20s %-8s %s\n", name, status, res.Message)
		for _, e := range res.Errors {
			fmt.Printf("%-20s %-8s   %s\n", "", "", e)
		}
	}
}
