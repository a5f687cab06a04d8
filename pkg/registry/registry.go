package registry

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kitstrap/kitstrap/pkg/plugin"
	"github.com/kitstrap/kitstrap/pkg/telemetry"
)

// Registry owns the set of registered plugins and drives their lifecycle.
// It keeps transient per-run bookkeeping for rollback: the plugin names that
// installed successfully this run and the file paths they wrote. The
// bookkeeping is reset at the start of every InstallAll and is never
// persisted.
type Registry struct {
	plugins map[string]plugin.Plugin

	// Per-run bookkeeping, reset by InstallAll.
	installedPlugins []string
	installedFiles   []string

	metrics *telemetry.Metrics
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		plugins: make(map[string]plugin.Plugin),
	}
}

// SetMetrics attaches an optional metrics collector. A nil collector
// disables metric recording.
func (r *Registry) SetMetrics(m *telemetry.Metrics) {
	r.metrics = m
}

// Register adds a plugin under its name. Registering a second plugin with
// the same name fails without mutating the registry.
func (r *Registry) Register(p plugin.Plugin) error {
	if p == nil {
		return NewPermanentError("plugin is nil", nil).
			WithCode(ErrCodeValidation).WithOperation("register")
	}

	name := p.Name()
	if name == "" {
		return NewPermanentError("plugin has empty name", nil).
			WithCode(ErrCodeValidation).WithOperation("register")
	}

	if _, exists := r.plugins[name]; exists {
		return NewPermanentError(fmt.Sprintf("plugin already registered: %s", name), nil).
			WithCode(ErrCodeAlreadyExists).WithPlugin(name).WithOperation("register")
	}

	r.plugins[name] = p
	return nil
}

// Plugins returns the registered plugin names in sorted order.
func (r *Registry) Plugins() []string {
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the registered plugin with the given name.
func (r *Registry) Get(name string) (plugin.Plugin, bool) {
	p, ok := r.plugins[name]
	return p, ok
}

// Dependents returns every registered plugin whose declared dependency list
// contains name, in sorted order. It is a pure query.
func (r *Registry) Dependents(name string) []string {
	var dependents []string
	for candidate, p := range r.plugins {
		for _, dep := range p.Dependencies() {
			if dep == name {
				dependents = append(dependents, candidate)
				break
			}
		}
	}
	sort.Strings(dependents)
	return dependents
}

// InstallAll installs every registered plugin in execution order, skipping
// names present in exclude. The order is validated up front: a missing or
// circular dependency aborts before any plugin runs. Installation halts at
// the first plugin that reports failure; plugins already installed keep
// their effects, and rolling them back is a separate explicit call.
//
// Excluded plugins are not invoked and do not appear in the result map, but
// their dependency edges still shape the order.
func (r *Registry) InstallAll(ctx *plugin.ExecutionContext, exclude []string) (map[string]*plugin.Result, error) {
	if ctx == nil {
		return nil, NewPermanentError("execution context is nil", nil).
			WithCode(ErrCodeValidation).WithOperation("install")
	}

	// Reset per-run bookkeeping before anything can fail.
	r.installedPlugins = nil
	r.installedFiles = nil

	order, err := r.ExecutionOrder()
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}

	log := ctxLogger(ctx)
	runStart := time.Now()
	if r.metrics != nil {
		r.metrics.RecordRunStarted()
	}

	results := make(map[string]*plugin.Result)
	status := "succeeded"

	for _, name := range order {
		if excluded[name] {
			log.WithPlugin(name).Debug("plugin excluded, skipping")
			continue
		}

		p := r.plugins[name]
		plog := log.WithPlugin(name)
		plog.Info("installing plugin")

		start := time.Now()
		res := p.Install(ctx)
		if res == nil {
			// A plugin returning no result is a contract violation,
			// not an expected failure.
			return results, NewPermanentError("plugin returned no result", nil).
				WithCode(ErrCodeInternal).WithPlugin(name).WithOperation("install")
		}

		if r.metrics != nil {
			r.metrics.RecordPluginCall(name, "install", resultStatus(res), time.Since(start))
		}
		results[name] = res

		if !res.Success {
			plog.Errorf("install failed: %s", strings.Join(res.Errors, "; "))
			status = "failed"
			break
		}

		r.installedPlugins = append(r.installedPlugins, name)
		r.installedFiles = append(r.installedFiles, res.InstalledFiles...)
		plog.Infof("installed (%d files)", len(res.InstalledFiles))
	}

	if r.metrics != nil {
		r.metrics.RecordRunCompleted(status, time.Since(runStart))
	}

	return results, nil
}

// VerifyAll calls Verify on every registered plugin in execution order. A
// verification failure does not stop the loop; the caller always receives a
// complete picture of every plugin's health.
func (r *Registry) VerifyAll(ctx *plugin.ExecutionContext) (map[string]*plugin.Result, error) {
	if ctx == nil {
		return nil, NewPermanentError("execution context is nil", nil).
			WithCode(ErrCodeValidation).WithOperation("verify")
	}

	order, err := r.ExecutionOrder()
	if err != nil {
		return nil, err
	}

	log := ctxLogger(ctx)
	results := make(map[string]*plugin.Result)

	for _, name := range order {
		p := r.plugins[name]

		start := time.Now()
		res := p.Verify(ctx)
		if res == nil {
			res = plugin.NewFailure(name, "verify returned no result")
		}

		if r.metrics != nil {
			r.metrics.RecordPluginCall(name, "verify", resultStatus(res), time.Since(start))
		}
		results[name] = res

		if !res.Success {
			log.WithPlugin(name).Warnf("verification failed: %s", res.Message)
		}
	}

	return results, nil
}

// Uninstall removes the named plugin from the registry, invoking its
// Uninstall capability when it has one. It fails without side effects when
// the plugin is unknown or when other registered plugins still depend on it;
// the failure names every blocking dependent.
func (r *Registry) Uninstall(ctx *plugin.ExecutionContext, name string) *plugin.Result {
	p, exists := r.plugins[name]
	if !exists {
		return plugin.NewFailure(name, fmt.Sprintf("plugin not registered: %s", name))
	}

	if dependents := r.Dependents(name); len(dependents) > 0 {
		if r.metrics != nil {
			r.metrics.RecordUninstallBlocked(name)
		}
		return plugin.NewFailure(name,
			fmt.Sprintf("cannot uninstall %s: required by %s", name, strings.Join(dependents, ", ")),
			fmt.Sprintf("dependents: %s", strings.Join(dependents, ", ")))
	}

	log := ctxLogger(ctx).WithPlugin(name)

	if u, ok := p.(plugin.Uninstaller); ok {
		start := time.Now()
		res := u.Uninstall(ctx)
		if res == nil {
			return plugin.NewFailure(name, "uninstall returned no result")
		}
		if r.metrics != nil {
			r.metrics.RecordPluginCall(name, "uninstall", resultStatus(res), time.Since(start))
		}
		if !res.Success {
			return res
		}
		delete(r.plugins, name)
		log.Info("plugin uninstalled")
		return res
	}

	// No uninstall capability: removal is pure bookkeeping.
	delete(r.plugins, name)
	log.Info("plugin removed from registry (no uninstall step)")
	return plugin.NewResult(name, fmt.Sprintf("removed %s from registry", name))
}

// InstalledThisRun returns the plugin names that installed successfully in
// the current run, in install order.
func (r *Registry) InstalledThisRun() []string {
	installed := make([]string, len(r.installedPlugins))
	copy(installed, r.installedPlugins)
	return installed
}

// ctxLogger returns the context's logger, or a no-op logger when the caller
// left it unset.
func ctxLogger(ctx *plugin.ExecutionContext) *telemetry.Logger {
	if ctx == nil || ctx.Logger == nil {
		return telemetry.NopLogger()
	}
	return ctx.Logger
}

func resultStatus(res *plugin.Result) string {
	if res.Success {
		return "succeeded"
	}
	return "failed"
}
