package policy

// BuiltinPolicies returns the policies shipped with the installer.
func BuiltinPolicies() []Policy {
	return []Policy{
		{
			Name:        "unresolved-dependency",
			Description: "Flags plugins whose declared dependencies are not part of the plan. Advisory: the registry rejects such plans outright; this surfaces the problem during gating.",
			Severity:    SeverityError,
			Enabled:     true,
			Rego: `package kitstrap.policies.unresolved_dependency

import rego.v1

plan_names contains name if {
	some p in input.plan.plugins
	name := p.name
}

deny contains msg if {
	some dep in input.plugin.dependencies
	not plan_names[dep]
	msg := sprintf("plugin %s depends on %s, which is not in the plan", [input.plugin.name, dep])
}
`,
		},
		{
			Name:        "duplicate-priority",
			Description: "Warns when two independent plugins share a priority, making their relative order depend on name ordering alone.",
			Severity:    SeverityWarning,
			Enabled:     true,
			Rego: `package kitstrap.policies.duplicate_priority

import rego.v1

deny contains msg if {
	some other in input.plan.plugins
	other.name != input.plugin.name
	other.priority == input.plugin.priority
	input.plugin.name < other.name
	msg := sprintf("plugins %s and %s share priority %d", [input.plugin.name, other.name, input.plugin.priority])
}
`,
		},
	}
}
