package plugin

// Result is the value object returned by every lifecycle call. It is built
// once by the plugin and treated as immutable by the registry.
type Result struct {
	// Success reports whether the lifecycle call achieved its goal.
	Success bool `json:"success"`

	// PluginName is the name of the plugin that produced this result.
	PluginName string `json:"plugin_name"`

	// Message is a human-readable summary of the outcome.
	Message string `json:"message"`

	// Errors holds diagnostic details for failed calls. Empty on success.
	Errors []string `json:"errors,omitempty"`

	// InstalledFiles lists the paths the plugin wrote during Install.
	// The registry records them for rollback bookkeeping only.
	InstalledFiles []string `json:"installed_files,omitempty"`
}

// NewResult creates a successful result.
func NewResult(pluginName, message string) *Result {
	return &Result{
		Success:    true,
		PluginName: pluginName,
		Message:    message,
	}
}

// NewFailure creates a failed result with diagnostic details.
func NewFailure(pluginName, message string, errs ...string) *Result {
	return &Result{
		Success:    false,
		PluginName: pluginName,
		Message:    message,
		Errors:     errs,
	}
}

// WithFiles records the file paths written during Install and returns the
// result for chaining.
func (r *Result) WithFiles(paths ...string) *Result {
	r.InstalledFiles = append(r.InstalledFiles, paths...)
	return r
}
