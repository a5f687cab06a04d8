// Package policy gates plugin installation with Rego policies. Policies deny
// individual plugins (which the caller feeds into the registry's exclude set)
// or flag the whole plan; enforcement of the dependency graph itself stays in
// the registry.
package policy

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog"
)

// Engine evaluates Rego policies against install plans.
type Engine struct {
	mu       sync.RWMutex
	policies map[string]*Policy
	logger   zerolog.Logger
}

// NewEngine creates a policy engine preloaded with the built-in policies.
func NewEngine(logger zerolog.Logger) (*Engine, error) {
	e := &Engine{
		policies: make(map[string]*Policy),
		logger:   logger.With().Str("component", "policy-engine").Logger(),
	}

	for _, p := range BuiltinPolicies() {
		policy := p
		if err := e.addPolicy(&policy); err != nil {
			return nil, fmt.Errorf("failed to load built-in policy %s: %w", p.Name, err)
		}
	}

	return e, nil
}

// LoadPolicies loads additional policy files from the given paths.
func (e *Engine) LoadPolicies(ctx context.Context, paths []string) error {
	policies, err := LoadFromPaths(paths)
	if err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range policies {
		if err := e.addPolicyLocked(&policies[i]); err != nil {
			return fmt.Errorf("failed to load policy %s: %w", policies[i].Name, err)
		}
	}

	e.logger.Info().Int("count", len(policies)).Msg("Policies loaded")
	return nil
}

// EvaluatePlan evaluates every enabled policy against each plugin in the
// plan. Error-severity violations exclude the named plugin; a policy that
// fails to evaluate produces a warning, never a silent pass.
func (e *Engine) EvaluatePlan(ctx context.Context, plan *Plan) (*Result, error) {
	if plan == nil {
		return nil, fmt.Errorf("plan is nil")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	result := &Result{
		Allowed:     true,
		EvaluatedAt: time.Now(),
	}

	for _, p := range e.policies {
		if !p.Enabled {
			continue
		}

		for i := range plan.Plugins {
			input := &Input{
				Plugin:    &plan.Plugins[i],
				Plan:      plan,
				Timestamp: time.Now(),
			}

			violations, err := e.evaluatePolicy(ctx, p, input)
			if err != nil {
				e.logger.Error().Err(err).
					Str("policy", p.Name).
					Str("plugin", plan.Plugins[i].Name).
					Msg("Policy evaluation failed")
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("policy %s evaluation failed: %v", p.Name, err))
				continue
			}

			result.Violations = append(result.Violations, violations...)
		}
	}

	// The plan as a whole is blocked only when every plugin is denied.
	denied := result.Denied()
	if len(denied) > 0 && len(denied) == len(plan.Plugins) {
		result.Allowed = false
	}

	e.logger.Debug().
		Int("violations", len(result.Violations)).
		Int("denied", len(denied)).
		Msg("Plan policy evaluation completed")

	return result, nil
}

// evaluatePolicy evaluates a single policy against one input document.
func (e *Engine) evaluatePolicy(ctx context.Context, p *Policy, input *Input) ([]Violation, error) {
	query := fmt.Sprintf("data.%s.deny", extractPackageName(p.Rego))

	r := rego.New(
		rego.Module(p.Name, p.Rego),
		rego.Query(query),
		rego.Input(input),
	)

	results, err := r.Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy evaluation error: %w", err)
	}

	var violations []Violation
	for _, result := range results {
		if len(result.Expressions) == 0 {
			continue
		}
		denySet, ok := result.Expressions[0].Value.([]interface{})
		if !ok {
			continue
		}
		for _, d := range denySet {
			violations = append(violations, e.createViolation(p, d, input))
		}
	}

	return violations, nil
}

// createViolation builds a Violation from one deny result.
func (e *Engine) createViolation(p *Policy, result interface{}, input *Input) Violation {
	violation := Violation{
		Policy:   p.Name,
		Severity: p.Severity,
	}
	if input.Plugin != nil {
		violation.Plugin = input.Plugin.Name
	}

	switch v := result.(type) {
	case string:
		violation.Message = v
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			violation.Message = msg
		}
		if sev, ok := v["severity"].(string); ok {
			violation.Severity = Severity(sev)
		}
		if plug, ok := v["plugin"].(string); ok {
			violation.Plugin = plug
		}
	default:
		violation.Message = fmt.Sprintf("%v", result)
	}

	return violation
}

// addPolicy validates and stores a policy.
func (e *Engine) addPolicy(p *Policy) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addPolicyLocked(p)
}

func (e *Engine) addPolicyLocked(p *Policy) error {
	// Compile once up front so broken policies fail at load time.
	r := rego.New(
		rego.Module(p.Name, p.Rego),
		rego.Query(fmt.Sprintf("data.%s.deny", extractPackageName(p.Rego))),
	)
	if _, err := r.PrepareForEval(context.Background()); err != nil {
		return fmt.Errorf("failed to compile policy: %w", err)
	}

	e.policies[p.Name] = p
	return nil
}

// ListPolicies returns all loaded policies.
func (e *Engine) ListPolicies() []Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	policies := make([]Policy, 0, len(e.policies))
	for _, p := range e.policies {
		policies = append(policies, *p)
	}
	return policies
}

// extractPackageName extracts the package name from Rego code.
func extractPackageName(code string) string {
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "package ") {
			parts := strings.Fields(trimmed)
			if len(parts) >= 2 {
				return parts[1]
			}
		}
	}
	return "kitstrap.policies"
}
