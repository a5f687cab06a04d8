// Package components contains the concrete plugins shipped with kitstrap:
// the assets plugin that copies script and template trees into the target,
// and the settings plugin that merges a JSON settings fragment into the
// target's settings file.
package components
