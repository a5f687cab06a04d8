package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kitstrap/kitstrap/pkg/plugin"
)

// fakePlugin is a scriptable plugin for registry tests. Install order is
// appended to the shared callLog so tests can assert sequencing.
type fakePlugin struct {
	plugin.Base
	failInstall bool
	failVerify  bool
	files       []string
	callLog     *[]string
}

func newFakePlugin(name string, priority int, deps ...string) *fakePlugin {
	return &fakePlugin{Base: plugin.NewBase(name, priority, deps...)}
}

func (f *fakePlugin) Install(ctx *plugin.ExecutionContext) *plugin.Result {
	if f.callLog != nil {
		*f.callLog = append(*f.callLog, f.Name())
	}
	if f.failInstall {
		return plugin.NewFailure(f.Name(), "install failed", "simulated failure")
	}
	return plugin.NewResult(f.Name(), "installed").WithFiles(f.files...)
}

func (f *fakePlugin) Verify(ctx *plugin.ExecutionContext) *plugin.Result {
	if f.failVerify {
		return plugin.NewFailure(f.Name(), "verify failed")
	}
	return plugin.NewResult(f.Name(), "verified")
}

// uninstallablePlugin adds the optional uninstall capability.
type uninstallablePlugin struct {
	fakePlugin
	uninstalled bool
}

func (u *uninstallablePlugin) Uninstall(ctx *plugin.ExecutionContext) *plugin.Result {
	u.uninstalled = true
	return plugin.NewResult(u.Name(), "uninstalled")
}

func testContext(t *testing.T) *plugin.ExecutionContext {
	t.Helper()
	return plugin.NewExecutionContext(t.TempDir(), nil)
}

func mustRegister(t *testing.T, r *Registry, plugins ...plugin.Plugin) {
	t.Helper()
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			t.Fatalf("Register(%s) failed: %v", p.Name(), err)
		}
	}
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	r := New()
	mustRegister(t, r, newFakePlugin("a", 10))

	err := r.Register(newFakePlugin("a", 20))
	if err == nil {
		t.Fatal("Expected error for duplicate registration, got nil")
	}
	if !HasCode(err, ErrCodeAlreadyExists) {
		t.Errorf("Expected %s error code, got: %v", ErrCodeAlreadyExists, err)
	}

	// The first registration must survive unchanged.
	p, ok := r.Get("a")
	if !ok {
		t.Fatal("Expected plugin a to remain registered")
	}
	if p.Priority() != 10 {
		t.Errorf("Expected original plugin to survive, got priority %d", p.Priority())
	}
}

func TestRegistry_Register_NilPlugin(t *testing.T) {
	r := New()
	if err := r.Register(nil); err == nil {
		t.Fatal("Expected error for nil plugin, got nil")
	}
}

func TestRegistry_Register_EmptyName(t *testing.T) {
	r := New()
	if err := r.Register(newFakePlugin("", 10)); err == nil {
		t.Fatal("Expected error for empty plugin name, got nil")
	}
}

func TestRegistry_Dependents(t *testing.T) {
	r := New()
	mustRegister(t, r,
		newFakePlugin("a", 10),
		newFakePlugin("b", 20, "a"),
		newFakePlugin("c", 30, "a", "b"),
	)

	dependents := r.Dependents("a")
	if len(dependents) != 2 || dependents[0] != "b" || dependents[1] != "c" {
		t.Errorf("Expected dependents [b c], got %v", dependents)
	}

	if deps := r.Dependents("c"); len(deps) != 0 {
		t.Errorf("Expected no dependents for c, got %v", deps)
	}

	// A pure query: nothing is removed or mutated.
	if got := r.Plugins(); len(got) != 3 {
		t.Errorf("Expected 3 plugins after Dependents, got %d", len(got))
	}
}

func TestRegistry_InstallAll_Order(t *testing.T) {
	var calls []string
	a := newFakePlugin("a", 10)
	b := newFakePlugin("b", 20, "a")
	c := newFakePlugin("c", 30, "b")
	for _, p := range []*fakePlugin{a, b, c} {
		p.callLog = &calls
	}

	r := New()
	// Register in reverse to prove registration order is irrelevant.
	mustRegister(t, r, c, b, a)

	results, err := r.InstallAll(testContext(t), nil)
	if err != nil {
		t.Fatalf("InstallAll failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("Expected 3 results, got %d", len(results))
	}
	if strings.Join(calls, ",") != "a,b,c" {
		t.Errorf("Expected install order a,b,c, got %v", calls)
	}
}

func TestRegistry_InstallAll_Exclude(t *testing.T) {
	var calls []string
	a := newFakePlugin("a", 10)
	b := newFakePlugin("b", 20)
	a.callLog = &calls
	b.callLog = &calls

	r := New()
	mustRegister(t, r, a, b)

	results, err := r.InstallAll(testContext(t), []string{"b"})
	if err != nil {
		t.Fatalf("InstallAll failed: %v", err)
	}

	if _, ok := results["b"]; ok {
		t.Error("Excluded plugin b should not appear in results")
	}
	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}
	if strings.Join(calls, ",") != "a" {
		t.Errorf("Expected only a to install, got %v", calls)
	}
}

func TestRegistry_InstallAll_ExcludedDependencyStillShapesOrder(t *testing.T) {
	var calls []string
	a := newFakePlugin("a", 50)
	b := newFakePlugin("b", 10, "a")
	a.callLog = &calls
	b.callLog = &calls

	r := New()
	mustRegister(t, r, a, b)

	// Excluding a does not free b to run first; the edge still orders b
	// after a's slot.
	results, err := r.InstallAll(testContext(t), []string{"a"})
	if err != nil {
		t.Fatalf("InstallAll failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}
	if strings.Join(calls, ",") != "b" {
		t.Errorf("Expected only b to install, got %v", calls)
	}
}

func TestRegistry_InstallAll_StopsAtFirstFailure(t *testing.T) {
	var calls []string
	a := newFakePlugin("a", 10)
	b := newFakePlugin("b", 20, "a")
	c := newFakePlugin("c", 30, "b")
	b.failInstall = true
	for _, p := range []*fakePlugin{a, b, c} {
		p.callLog = &calls
	}

	r := New()
	mustRegister(t, r, a, b, c)

	results, err := r.InstallAll(testContext(t), nil)
	if err != nil {
		t.Fatalf("InstallAll returned unexpected error: %v", err)
	}

	if strings.Join(calls, ",") != "a,b" {
		t.Errorf("Expected install to stop after b, got calls %v", calls)
	}
	if _, ok := results["c"]; ok {
		t.Error("Plugin c should not have a result after b failed")
	}
	if results["a"] == nil || !results["a"].Success {
		t.Error("Expected a to succeed")
	}
	if results["b"] == nil || results["b"].Success {
		t.Error("Expected b to fail")
	}

	installed := r.InstalledThisRun()
	if len(installed) != 1 || installed[0] != "a" {
		t.Errorf("Expected only a in install bookkeeping, got %v", installed)
	}
}

func TestRegistry_InstallAll_InvalidOrderAborts(t *testing.T) {
	var calls []string
	a := newFakePlugin("a", 10, "missing")
	a.callLog = &calls

	r := New()
	mustRegister(t, r, a)

	_, err := r.InstallAll(testContext(t), nil)
	if err == nil {
		t.Fatal("Expected error for missing dependency, got nil")
	}
	if len(calls) != 0 {
		t.Errorf("No plugin should run when the order is invalid, got calls %v", calls)
	}
}

func TestRegistry_InstallAll_NilContext(t *testing.T) {
	r := New()
	if _, err := r.InstallAll(nil, nil); err == nil {
		t.Fatal("Expected error for nil execution context, got nil")
	}
}

func TestRegistry_VerifyAll_ContinuesThroughFailures(t *testing.T) {
	a := newFakePlugin("a", 10)
	b := newFakePlugin("b", 20)
	c := newFakePlugin("c", 30)
	b.failVerify = true

	r := New()
	mustRegister(t, r, a, b, c)

	results, err := r.VerifyAll(testContext(t))
	if err != nil {
		t.Fatalf("VerifyAll failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results["b"].Success {
		t.Error("Expected b to fail verification")
	}
	if !results["a"].Success || !results["c"].Success {
		t.Error("Expected a and c to pass verification")
	}
}

func TestRegistry_Uninstall_NotRegistered(t *testing.T) {
	r := New()
	res := r.Uninstall(testContext(t), "ghost")
	if res.Success {
		t.Fatal("Expected failure for unknown plugin")
	}
}

func TestRegistry_Uninstall_BlockedByDependents(t *testing.T) {
	r := New()
	mustRegister(t, r,
		newFakePlugin("a", 10),
		newFakePlugin("b", 20, "a"),
	)

	res := r.Uninstall(testContext(t), "a")
	if res.Success {
		t.Fatal("Expected uninstall of a to be blocked")
	}
	if !strings.Contains(res.Message, "b") {
		t.Errorf("Failure should name the blocking dependent, got: %s", res.Message)
	}

	// The blocked plugin stays registered.
	if _, ok := r.Get("a"); !ok {
		t.Error("Plugin a should remain registered after blocked uninstall")
	}
}

func TestRegistry_Uninstall_WithCapability(t *testing.T) {
	u := &uninstallablePlugin{fakePlugin: *newFakePlugin("a", 10)}
	r := New()
	mustRegister(t, r, u)

	res := r.Uninstall(testContext(t), "a")
	if !res.Success {
		t.Fatalf("Expected uninstall to succeed, got: %s", res.Message)
	}
	if !u.uninstalled {
		t.Error("Expected the plugin's Uninstall to be invoked")
	}
	if _, ok := r.Get("a"); ok {
		t.Error("Plugin a should be removed from the registry")
	}
}

func TestRegistry_Uninstall_WithoutCapability(t *testing.T) {
	r := New()
	mustRegister(t, r, newFakePlugin("a", 10))

	res := r.Uninstall(testContext(t), "a")
	if !res.Success {
		t.Fatalf("Expected bookkeeping removal to succeed, got: %s", res.Message)
	}
	if _, ok := r.Get("a"); ok {
		t.Error("Plugin a should be removed from the registry")
	}
}

func TestRegistry_InstallAll_ResetsBookkeeping(t *testing.T) {
	dir := t.TempDir()
	staleFile := filepath.Join(dir, "stale.txt")
	if err := os.WriteFile(staleFile, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	a := newFakePlugin("a", 10)
	a.files = []string{staleFile}

	r := New()
	mustRegister(t, r, a)

	ctx := testContext(t)
	if _, err := r.InstallAll(ctx, nil); err != nil {
		t.Fatalf("First InstallAll failed: %v", err)
	}

	// The second run excludes a, so its bookkeeping must not leak into
	// the new run.
	if _, err := r.InstallAll(ctx, []string{"a"}); err != nil {
		t.Fatalf("Second InstallAll failed: %v", err)
	}
	if installed := r.InstalledThisRun(); len(installed) != 0 {
		t.Errorf("Expected empty bookkeeping after excluded run, got %v", installed)
	}

	r.RollbackInstallation(ctx)
	if _, err := os.Stat(staleFile); err != nil {
		t.Errorf("Rollback of the second run must not touch the first run's files: %v", err)
	}
}

func TestRegistry_InstallAll_EmptyRegistry(t *testing.T) {
	r := New()
	results, err := r.InstallAll(testContext(t), nil)
	if err != nil {
		t.Fatalf("InstallAll on empty registry failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected empty result map, got %d entries", len(results))
	}
}

func TestRegistry_Plugins_Sorted(t *testing.T) {
	r := New()
	mustRegister(t, r,
		newFakePlugin("zeta", 10),
		newFakePlugin("alpha", 20),
		newFakePlugin("mid", 30),
	)

	names := r.Plugins()
	expected := []string{"alpha", "mid", "zeta"}
	if fmt.Sprint(names) != fmt.Sprint(expected) {
		t.Errorf("Expected %v, got %v", expected, names)
	}
}
