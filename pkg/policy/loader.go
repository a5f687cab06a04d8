package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadFromPaths reads Rego policy files from the given paths. A path may be
// a single .rego file or a directory, in which case every .rego file in it
// is loaded (non-recursively). The policy name is the file name without
// extension; loaded policies default to error severity and enabled.
func LoadFromPaths(paths []string) ([]Policy, error) {
	var policies []Policy

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat policy path %s: %w", path, err)
		}

		if !info.IsDir() {
			p, err := loadFile(path)
			if err != nil {
				return nil, err
			}
			policies = append(policies, p)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read policy directory %s: %w", path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".rego") {
				continue
			}
			p, err := loadFile(filepath.Join(path, entry.Name()))
			if err != nil {
				return nil, err
			}
			policies = append(policies, p)
		}
	}

	return policies, nil
}

func loadFile(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Policy{
		Name:     name,
		Rego:     string(data),
		Severity: SeverityError,
		Enabled:  true,
	}, nil
}
