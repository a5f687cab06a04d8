package plugin

// DefaultPriority is the neutral priority assigned to plugins that do not
// care about their position among plugins with satisfied dependencies.
const DefaultPriority = 100

// Plugin is the capability contract every installable component implements.
// Name must be unique within a registry and immutable once registered.
// Priority orders plugins whose dependencies are already satisfied; lower
// values run earlier. Dependencies returns the names of plugins that must
// install successfully before this one; it must be pure and side-effect free.
type Plugin interface {
	// Name returns the unique identifier of the plugin.
	Name() string

	// Priority returns the ordering hint; lower values execute earlier.
	Priority() int

	// Dependencies returns the names of plugins this plugin requires.
	Dependencies() []string

	// Install performs the component's deployment action. Expected failure
	// conditions are reported via the Result, not by panicking.
	Install(ctx *ExecutionContext) *Result

	// Verify checks that a prior Install succeeded and is still intact.
	// It must be safe to call repeatedly and must not mutate state.
	Verify(ctx *ExecutionContext) *Result
}

// Uninstaller is the optional capability for plugins that can reverse their
// installation. Plugins without it are uninstalled by the registry as a pure
// bookkeeping removal with no side effects.
type Uninstaller interface {
	// Uninstall reverses the effects of Install.
	Uninstall(ctx *ExecutionContext) *Result
}

// Base provides name, priority, and dependency storage for concrete plugins.
// Embed it and implement Install and Verify.
type Base struct {
	name         string
	priority     int
	dependencies []string
}

// NewBase creates the embeddable plugin core. A non-positive priority is
// replaced with DefaultPriority.
func NewBase(name string, priority int, dependencies ...string) Base {
	if priority <= 0 {
		priority = DefaultPriority
	}
	deps := make([]string, len(dependencies))
	copy(deps, dependencies)
	return Base{
		name:         name,
		priority:     priority,
		dependencies: deps,
	}
}

// Name returns the plugin name.
func (b Base) Name() string {
	return b.name
}

// Priority returns the plugin priority.
func (b Base) Priority() int {
	return b.priority
}

// Dependencies returns a copy of the declared dependency names.
func (b Base) Dependencies() []string {
	deps := make([]string, len(b.dependencies))
	copy(deps, b.dependencies)
	return deps
}
