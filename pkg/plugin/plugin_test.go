package plugin

import (
	"testing"
)

func TestNewBase_DefaultPriority(t *testing.T) {
	for _, priority := range []int{0, -1, -100} {
		b := NewBase("p", priority)
		if b.Priority() != DefaultPriority {
			t.Errorf("Priority %d should map to default %d, got %d",
				priority, DefaultPriority, b.Priority())
		}
	}

	b := NewBase("p", 42)
	if b.Priority() != 42 {
		t.Errorf("Expected priority 42, got %d", b.Priority())
	}
}

func TestBase_DependenciesCopied(t *testing.T) {
	deps := []string{"a", "b"}
	b := NewBase("p", 10, deps...)

	// Mutating the caller's slice must not leak into the plugin.
	deps[0] = "mutated"
	if got := b.Dependencies(); got[0] != "a" {
		t.Errorf("Expected dependency a, got %s", got[0])
	}

	// Mutating the returned slice must not leak either.
	got := b.Dependencies()
	got[1] = "mutated"
	if again := b.Dependencies(); again[1] != "b" {
		t.Errorf("Expected dependency b, got %s", again[1])
	}
}

func TestResult_Builders(t *testing.T) {
	ok := NewResult("p", "done").WithFiles("/tmp/a", "/tmp/b")
	if !ok.Success {
		t.Error("NewResult should be successful")
	}
	if ok.PluginName != "p" || ok.Message != "done" {
		t.Errorf("Unexpected result fields: %+v", ok)
	}
	if len(ok.InstalledFiles) != 2 {
		t.Errorf("Expected 2 installed files, got %d", len(ok.InstalledFiles))
	}

	fail := NewFailure("p", "broke", "cause one", "cause two")
	if fail.Success {
		t.Error("NewFailure should not be successful")
	}
	if len(fail.Errors) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(fail.Errors))
	}
}

func TestNewExecutionContext_Defaults(t *testing.T) {
	ctx := NewExecutionContext("/target", nil)
	if ctx.TargetDir != "/target" {
		t.Errorf("Expected target /target, got %s", ctx.TargetDir)
	}
	if ctx.Logger == nil {
		t.Error("Expected a non-nil fallback logger")
	}
	if ctx.Metadata == nil {
		t.Error("Expected an initialized metadata map")
	}
	if ctx.DryRun {
		t.Error("DryRun should default to false")
	}
}
