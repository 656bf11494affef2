package connector

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseDefinitionYAML decodes and validates a single definition payload.
func ParseDefinitionYAML(data []byte) (Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Definition{}, fmt.Errorf("connector: definition payload is empty")
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("connector: decode definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def.Normalized(), nil
}

// LoadDefinitionFile reads one YAML definition from disk.
func LoadDefinitionFile(path string) (DefinitionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("connector: read %s: %w", path, err)
	}
	def, err := ParseDefinitionYAML(data)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("connector: %s: %w", path, err)
	}
	return DefinitionFile{Definition: def, Path: filepath.Clean(path)}, nil
}

// LoadDir scans a directory for connector definitions: *.yaml files plus *.go
// scripts. A missing directory means "no extra connectors", not an error.
// Duplicate names across files are rejected.
func LoadDir(dir string) ([]DefinitionFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("connector: read %s: %w", trimmed, err)
	}
	var defs []DefinitionFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(trimmed, name)
		switch {
		case isYAMLFile(name):
			def, err := LoadDefinitionFile(path)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
		case filepath.Ext(name) == ".go":
			goDefs, err := loadGoDefinitionFile(path)
			if err != nil {
				return nil, err
			}
			defs = append(defs, goDefs...)
		}
	}
	if len(defs) == 0 {
		return nil, nil
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Definition.Name < defs[j].Definition.Name })
	seen := map[string]string{}
	for _, def := range defs {
		key := strings.ToLower(def.Definition.Name)
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("connector: duplicate name %q in %s and %s", def.Definition.Name, prev, def.Path)
		}
		seen[key] = def.Path
	}
	return defs, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
