package policy

import (
	"time"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for warnings that should be reviewed but do not
	// block an install.
	SeverityWarning Severity = "warning"

	// SeverityError is for violations that exclude a plugin from the run.
	SeverityError Severity = "error"
)

// Policy represents a policy rule with its Rego code.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`
}

// Violation represents a single policy violation.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// Plugin is the plugin the violation applies to.
	Plugin string `json:"plugin,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`
}

// Result represents the outcome of evaluating all policies against a plan.
type Result struct {
	// Allowed indicates whether the install may proceed at all.
	Allowed bool `json:"allowed"`

	// Violations lists all policy violations.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists evaluation problems that did not block anything.
	Warnings []string `json:"warnings,omitempty"`

	// EvaluatedAt is when the policies were evaluated.
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Denied returns the plugin names excluded by error-severity violations.
func (r *Result) Denied() []string {
	seen := make(map[string]bool)
	var denied []string
	for i := range r.Violations {
		v := &r.Violations[i]
		if v.Severity != SeverityError || v.Plugin == "" || seen[v.Plugin] {
			continue
		}
		seen[v.Plugin] = true
		denied = append(denied, v.Plugin)
	}
	return denied
}

// PluginInfo describes one plugin in the install plan for policy input.
type PluginInfo struct {
	// Name is the plugin name.
	Name string `json:"name"`

	// Priority is the plugin's ordering hint.
	Priority int `json:"priority"`

	// Dependencies lists the plugin's declared dependency names.
	Dependencies []string `json:"dependencies"`
}

// Plan describes the install being gated.
type Plan struct {
	// TargetDir is the install target root.
	TargetDir string `json:"target_dir"`

	// DryRun indicates a dry-run install.
	DryRun bool `json:"dry_run"`

	// Plugins lists every plugin in the plan.
	Plugins []PluginInfo `json:"plugins"`
}

// Input is the input document for a single policy evaluation.
type Input struct {
	// Plugin is the plugin under evaluation.
	Plugin *PluginInfo `json:"plugin"`

	// Plan is the whole install plan for cross-plugin rules.
	Plan *Plan `json:"plan"`

	// Timestamp is when the evaluation is occurring.
	Timestamp time.Time `json:"timestamp"`
}
