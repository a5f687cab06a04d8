package components

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kitstrap/kitstrap/pkg/plugin"
)

// AssetsPlugin copies the scripts and templates source trees into the
// target environment. It implements the optional uninstall capability by
// removing the files it installed.
type AssetsPlugin struct {
	plugin.Base
}

// NewAssetsPlugin creates the assets plugin. It has no dependencies and a
// low priority so it runs before plugins that build on the copied trees.
func NewAssetsPlugin() *AssetsPlugin {
	return &AssetsPlugin{
		Base: plugin.NewBase("assets", 10),
	}
}

// sources returns the configured source trees and their destinations under
// the target root.
func (a *AssetsPlugin) sources(ctx *plugin.ExecutionContext) map[string]string {
	src := make(map[string]string)
	if ctx.ScriptsDir != "" {
		src[ctx.ScriptsDir] = filepath.Join(ctx.TargetDir, "scripts")
	}
	if ctx.TemplatesDir != "" {
		src[ctx.TemplatesDir] = filepath.Join(ctx.TargetDir, "templates")
	}
	return src
}

// Install copies every file from the configured source trees into the
// target, preserving relative layout.
func (a *AssetsPlugin) Install(ctx *plugin.ExecutionContext) *plugin.Result {
	sources := a.sources(ctx)
	if len(sources) == 0 {
		return plugin.NewFailure(a.Name(), "no asset sources configured",
			"both scripts and templates directories are unset")
	}

	for src := range sources {
		if _, err := os.Stat(src); err != nil {
			return plugin.NewFailure(a.Name(), "asset source missing",
				fmt.Sprintf("cannot read %s: %v", src, err))
		}
	}

	if ctx.DryRun {
		return plugin.NewResult(a.Name(), fmt.Sprintf("dry-run: would copy %d source trees", len(sources)))
	}

	var installed []string
	for src, dest := range sources {
		files, err := copyTree(src, dest)
		if err != nil {
			return plugin.NewFailure(a.Name(), "asset copy failed", err.Error()).
				WithFiles(installed...)
		}
		installed = append(installed, files...)
	}

	return plugin.NewResult(a.Name(), fmt.Sprintf("copied %d files", len(installed))).
		WithFiles(installed...)
}

// Verify checks that every source file has a counterpart in the target.
func (a *AssetsPlugin) Verify(ctx *plugin.ExecutionContext) *plugin.Result {
	sources := a.sources(ctx)
	if len(sources) == 0 {
		return plugin.NewFailure(a.Name(), "no asset sources configured")
	}

	var missing []string
	for src, dest := range sources {
		err := walkFiles(src, func(rel string) error {
			if _, err := os.Stat(filepath.Join(dest, rel)); err != nil {
				missing = append(missing, filepath.Join(dest, rel))
			}
			return nil
		})
		if err != nil {
			return plugin.NewFailure(a.Name(), "verification failed", err.Error())
		}
	}

	if len(missing) > 0 {
		errs := make([]string, len(missing))
		for i, path := range missing {
			errs[i] = fmt.Sprintf("missing: %s", path)
		}
		return plugin.NewFailure(a.Name(), fmt.Sprintf("%d files missing from target", len(missing)), errs...)
	}
	return plugin.NewResult(a.Name(), "all assets present")
}

// Uninstall removes the target copies of every source file, leaving
// anything else in the target directories untouched.
func (a *AssetsPlugin) Uninstall(ctx *plugin.ExecutionContext) *plugin.Result {
	if ctx.DryRun {
		return plugin.NewResult(a.Name(), "dry-run: would remove installed assets")
	}

	removed := 0
	var errs []string
	for src, dest := range a.sources(ctx) {
		err := walkFiles(src, func(rel string) error {
			target := filepath.Join(dest, rel)
			if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("cannot remove %s: %v", target, err))
				return nil
			}
			removed++
			return nil
		})
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return plugin.NewFailure(a.Name(), "uninstall left residual files", errs...)
	}
	return plugin.NewResult(a.Name(), fmt.Sprintf("removed %d files", removed))
}

// copyTree copies every regular file under src into dest, preserving the
// relative layout, and returns the destination paths written.
func copyTree(src, dest string) ([]string, error) {
	var written []string
	err := walkFiles(src, func(rel string) error {
		target := filepath.Join(dest, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("cannot create %s: %w", filepath.Dir(target), err)
		}
		if err := copyFile(filepath.Join(src, rel), target); err != nil {
			return err
		}
		written = append(written, target)
		return nil
	})
	return written, err
}

// walkFiles calls fn with the source-relative path of every regular file
// under root.
func walkFiles(root string, fn func(rel string) error) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return fn(rel)
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("cannot copy to %s: %w", dest, err)
	}
	return nil
}
