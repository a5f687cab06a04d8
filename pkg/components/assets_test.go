package components

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kitstrap/kitstrap/pkg/plugin"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
}

func assetsContext(t *testing.T) *plugin.ExecutionContext {
	t.Helper()
	ctx := plugin.NewExecutionContext(t.TempDir(), nil)
	ctx.ScriptsDir = t.TempDir()
	ctx.TemplatesDir = t.TempDir()
	writeFile(t, filepath.Join(ctx.ScriptsDir, "run.sh"), "#!/bin/sh")
	writeFile(t, filepath.Join(ctx.ScriptsDir, "lib", "util.sh"), "util")
	writeFile(t, filepath.Join(ctx.TemplatesDir, "base.tmpl"), "tmpl")
	return ctx
}

func TestAssetsPlugin_Install(t *testing.T) {
	ctx := assetsContext(t)
	p := NewAssetsPlugin()

	res := p.Install(ctx)
	if !res.Success {
		t.Fatalf("Install failed: %s %v", res.Message, res.Errors)
	}
	if len(res.InstalledFiles) != 3 {
		t.Errorf("Expected 3 installed files, got %d", len(res.InstalledFiles))
	}

	copied, err := os.ReadFile(filepath.Join(ctx.TargetDir, "scripts", "lib", "util.sh"))
	if err != nil {
		t.Fatalf("Expected nested file to be copied: %v", err)
	}
	if string(copied) != "util" {
		t.Errorf("Expected copied content util, got %q", copied)
	}
}

func TestAssetsPlugin_Install_DryRun(t *testing.T) {
	ctx := assetsContext(t)
	ctx.DryRun = true
	p := NewAssetsPlugin()

	res := p.Install(ctx)
	if !res.Success {
		t.Fatalf("Dry-run install failed: %s", res.Message)
	}
	if len(res.InstalledFiles) != 0 {
		t.Errorf("Dry-run must not report installed files, got %v", res.InstalledFiles)
	}
	if _, err := os.Stat(filepath.Join(ctx.TargetDir, "scripts")); !os.IsNotExist(err) {
		t.Error("Dry-run must not write to the target")
	}
}

func TestAssetsPlugin_Install_MissingSource(t *testing.T) {
	ctx := plugin.NewExecutionContext(t.TempDir(), nil)
	ctx.ScriptsDir = filepath.Join(t.TempDir(), "does-not-exist")
	p := NewAssetsPlugin()

	res := p.Install(ctx)
	if res.Success {
		t.Fatal("Expected install to fail for missing source tree")
	}
}

func TestAssetsPlugin_Install_NoSourcesConfigured(t *testing.T) {
	ctx := plugin.NewExecutionContext(t.TempDir(), nil)
	p := NewAssetsPlugin()

	res := p.Install(ctx)
	if res.Success {
		t.Fatal("Expected install to fail with no sources configured")
	}
}

func TestAssetsPlugin_Verify(t *testing.T) {
	ctx := assetsContext(t)
	p := NewAssetsPlugin()

	if res := p.Install(ctx); !res.Success {
		t.Fatalf("Install failed: %s", res.Message)
	}
	if res := p.Verify(ctx); !res.Success {
		t.Fatalf("Verify failed after install: %s %v", res.Message, res.Errors)
	}

	// Delete a copied file and verification must name it.
	removed := filepath.Join(ctx.TargetDir, "scripts", "run.sh")
	if err := os.Remove(removed); err != nil {
		t.Fatalf("Failed to remove file: %v", err)
	}
	res := p.Verify(ctx)
	if res.Success {
		t.Fatal("Expected verification to fail after deleting a file")
	}
	if len(res.Errors) != 1 {
		t.Errorf("Expected 1 missing file, got %v", res.Errors)
	}
}

func TestAssetsPlugin_Uninstall(t *testing.T) {
	ctx := assetsContext(t)
	p := NewAssetsPlugin()

	if res := p.Install(ctx); !res.Success {
		t.Fatalf("Install failed: %s", res.Message)
	}

	// A file the user added alongside the installed ones must survive.
	userFile := filepath.Join(ctx.TargetDir, "scripts", "mine.sh")
	writeFile(t, userFile, "mine")

	res := p.Uninstall(ctx)
	if !res.Success {
		t.Fatalf("Uninstall failed: %s %v", res.Message, res.Errors)
	}

	if _, err := os.Stat(filepath.Join(ctx.TargetDir, "scripts", "run.sh")); !os.IsNotExist(err) {
		t.Error("Expected installed file to be removed")
	}
	if _, err := os.Stat(userFile); err != nil {
		t.Errorf("User file must survive uninstall: %v", err)
	}
}

func TestAssetsPlugin_Contract(t *testing.T) {
	p := NewAssetsPlugin()
	if p.Name() != "assets" {
		t.Errorf("Expected name assets, got %s", p.Name())
	}
	if len(p.Dependencies()) != 0 {
		t.Errorf("Expected no dependencies, got %v", p.Dependencies())
	}
	// The assets plugin advertises the optional uninstall capability.
	if _, ok := interface{}(p).(plugin.Uninstaller); !ok {
		t.Error("Expected AssetsPlugin to implement Uninstaller")
	}
}
