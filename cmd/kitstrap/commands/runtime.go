package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/kitstrap/kitstrap/pkg/backup"
	"github.com/kitstrap/kitstrap/pkg/components"
	"github.com/kitstrap/kitstrap/pkg/config"
	"github.com/kitstrap/kitstrap/pkg/plugin"
	"github.com/kitstrap/kitstrap/pkg/policy"
	"github.com/kitstrap/kitstrap/pkg/registry"
	"github.com/kitstrap/kitstrap/pkg/stores"
	"github.com/kitstrap/kitstrap/pkg/telemetry"
)

var (
	errBackupsDisabled = errors.New("backups are disabled in the configuration")
	errNoSnapshots     = errors.New("no snapshots exist for this target")
	errHistoryDisabled = errors.New("install history is disabled: set state_path in the configuration")
)

// runtime bundles the collaborators every command needs: the loaded
// configuration, the telemetry stack, the plugin registry with the shipped
// components registered, and the optional backup manager and history store.
type runtime struct {
	cfg     *config.Config
	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	reg     *registry.Registry
	backup  *backup.Manager
	store   stores.Store
}

// loadRuntime builds the runtime from the --config file. The history store
// is opened and migrated only when a state path is configured; the backup
// manager exists only when backups are enabled.
func loadRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Telemetry.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	logger, err := telemetry.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	metrics, err := telemetry.NewMetrics(cfg.Telemetry.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	reg := registry.New()
	reg.SetMetrics(metrics)
	for _, p := range []plugin.Plugin{
		components.NewAssetsPlugin(),
		components.NewSettingsPlugin(),
	} {
		if err := reg.Register(p); err != nil {
			return nil, err
		}
	}

	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		reg:     reg,
	}

	if cfg.Backup.Enabled {
		rt.backup = backup.NewManager(cfg.TargetDir, cfg.Backup.Dir, cfg.Backup.Directories, logger)
	}

	if cfg.StatePath != "" {
		store, err := stores.NewSQLiteStore(stores.Config{Path: cfg.StatePath})
		if err != nil {
			return nil, err
		}
		if err := store.Init(ctx); err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		rt.store = store
	}

	return rt, nil
}

// close releases runtime resources.
func (rt *runtime) close() {
	if rt.store != nil {
		_ = rt.store.Close()
	}
}

// execContext builds the execution context plugins receive.
func (rt *runtime) execContext() *plugin.ExecutionContext {
	ectx := plugin.NewExecutionContext(rt.cfg.TargetDir, rt.logger)
	ectx.ScriptsDir = rt.cfg.ScriptsDir
	ectx.TemplatesDir = rt.cfg.TemplatesDir
	ectx.ProjectRoot = rt.cfg.ProjectRoot
	ectx.FrameworkRoot = rt.cfg.FrameworkRoot
	ectx.DryRun = rt.cfg.DryRun
	for k, v := range rt.cfg.Metadata {
		ectx.Metadata[k] = v
	}
	if rt.backup != nil {
		ectx.Backup = rt.backup
	}
	return ectx
}

// policyExclusions evaluates the configured policies against the current
// plan and returns the plugin names denied by error-severity violations.
// Warning violations are logged and do not exclude anything.
func (rt *runtime) policyExclusions(ctx context.Context, dryRun bool) ([]string, error) {
	engine, err := policy.NewEngine(rt.logger.Zerolog())
	if err != nil {
		return nil, err
	}
	if len(rt.cfg.PolicyPaths) > 0 {
		if err := engine.LoadPolicies(ctx, rt.cfg.PolicyPaths); err != nil {
			return nil, err
		}
	}

	plan := &policy.Plan{
		TargetDir: rt.cfg.TargetDir,
		DryRun:    dryRun,
	}
	for _, name := range rt.reg.Plugins() {
		p, _ := rt.reg.Get(name)
		plan.Plugins = append(plan.Plugins, policy.PluginInfo{
			Name:         p.Name(),
			Priority:     p.Priority(),
			Dependencies: p.Dependencies(),
		})
	}

	result, err := engine.EvaluatePlan(ctx, plan)
	if err != nil {
		return nil, err
	}

	for _, v := range result.Violations {
		if v.Severity == policy.SeverityError {
			rt.logger.WithPlugin(v.Plugin).Errorf("policy %s: %s", v.Policy, v.Message)
		} else {
			rt.logger.WithPlugin(v.Plugin).Warnf("policy %s: %s", v.Policy, v.Message)
		}
	}
	for _, w := range result.Warnings {
		rt.logger.Warn(w)
	}

	if !result.Allowed {
		return nil, fmt.Errorf("install blocked by policy: every plugin in the plan is denied")
	}
	return result.Denied(), nil
}
