package components

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kitstrap/kitstrap/pkg/plugin"
)

// FragmentMetadataKey is the execution-context metadata key naming the JSON
// settings fragment to merge. When unset, the fragment is read from
// settings.json in the templates directory.
const FragmentMetadataKey = "settings_fragment"

// settingsRelPath is where the merged settings live under the target root.
const settingsRelPath = "config/settings.json"

// SettingsPlugin merges a JSON settings fragment into the target's settings
// file. Existing keys not present in the fragment are preserved; the merge
// builds a new document rather than mutating the loaded one. The plugin has
// no uninstall capability: removing merged keys cannot be done safely
// without knowing which of them the user has since edited.
type SettingsPlugin struct {
	plugin.Base
}

// NewSettingsPlugin creates the settings plugin. It depends on the assets
// plugin having placed the fragment in the target's template tree.
func NewSettingsPlugin() *SettingsPlugin {
	return &SettingsPlugin{
		Base: plugin.NewBase("settings", 20, "assets"),
	}
}

func (s *SettingsPlugin) fragmentPath(ctx *plugin.ExecutionContext) string {
	if path, ok := ctx.Metadata[FragmentMetadataKey]; ok && path != "" {
		return path
	}
	return filepath.Join(ctx.TemplatesDir, "settings.json")
}

// Install merges the fragment into the target settings file.
func (s *SettingsPlugin) Install(ctx *plugin.ExecutionContext) *plugin.Result {
	fragment, err := loadJSON(s.fragmentPath(ctx))
	if err != nil {
		return plugin.NewFailure(s.Name(), "cannot read settings fragment", err.Error())
	}

	settingsPath := filepath.Join(ctx.TargetDir, settingsRelPath)
	existing, err := loadJSON(settingsPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return plugin.NewFailure(s.Name(), "cannot read target settings", err.Error())
		}
		existing = map[string]interface{}{}
	}

	merged := mergeMaps(existing, fragment)

	if ctx.DryRun {
		return plugin.NewResult(s.Name(), fmt.Sprintf("dry-run: would merge %d keys into %s", len(fragment), settingsRelPath))
	}

	if err := os.MkdirAll(filepath.Dir(settingsPath), 0755); err != nil {
		return plugin.NewFailure(s.Name(), "cannot create config directory", err.Error())
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return plugin.NewFailure(s.Name(), "cannot encode merged settings", err.Error())
	}
	if err := os.WriteFile(settingsPath, data, 0644); err != nil {
		return plugin.NewFailure(s.Name(), "cannot write settings file", err.Error())
	}

	return plugin.NewResult(s.Name(), fmt.Sprintf("merged %d keys into %s", len(fragment), settingsRelPath)).
		WithFiles(settingsPath)
}

// Verify checks that every top-level fragment key is present in the target
// settings file.
func (s *SettingsPlugin) Verify(ctx *plugin.ExecutionContext) *plugin.Result {
	fragment, err := loadJSON(s.fragmentPath(ctx))
	if err != nil {
		return plugin.NewFailure(s.Name(), "cannot read settings fragment", err.Error())
	}

	settingsPath := filepath.Join(ctx.TargetDir, settingsRelPath)
	current, err := loadJSON(settingsPath)
	if err != nil {
		return plugin.NewFailure(s.Name(), "cannot read target settings", err.Error())
	}

	var missing []string
	for key := range fragment {
		if _, ok := current[key]; !ok {
			missing = append(missing, fmt.Sprintf("missing key: %s", key))
		}
	}
	if len(missing) > 0 {
		return plugin.NewFailure(s.Name(), "settings incomplete", missing...)
	}
	return plugin.NewResult(s.Name(), "settings intact")
}

// loadJSON reads a JSON object from path.
func loadJSON(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return m, nil
}

// mergeMaps returns a new map holding base overlaid with fragment. Nested
// objects merge recursively; any other fragment value replaces the base
// value. Neither input is mutated.
func mergeMaps(base, fragment map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(fragment))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range fragment {
		fragMap, fragIsMap := v.(map[string]interface{})
		baseMap, baseIsMap := merged[k].(map[string]interface{})
		if fragIsMap && baseIsMap {
			merged[k] = mergeMaps(baseMap, fragMap)
			continue
		}
		merged[k] = v
	}
	return merged
}
