// Package registry implements the plugin orchestration engine: it owns the
// set of registered plugins, derives a dependency- and priority-aware
// execution order, and drives the install, verify, rollback, and uninstall
// lifecycle across them.
//
// Ordering is computed with Kahn's algorithm over the declared dependency
// graph; among plugins whose dependencies are satisfied, the one with the
// lowest numeric priority runs first. Missing dependencies and cycles are
// detected before any plugin executes, so a topologically invalid registry
// never produces side effects.
//
// InstallAll is sequential and halts at the first failed plugin; later
// plugins may rely on earlier side effects beyond the declared graph, so
// continuing after a failure is unsafe. Rollback of a run's tracked file
// writes is a separate, explicit, best-effort step - the registry never rolls
// back on its own.
//
// A Registry is not safe for concurrent use; callers run one lifecycle
// operation at a time against a given instance.
package registry
