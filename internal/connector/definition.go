// Package connector loads source-connector definitions from the scripts
// folder. A definition names a watcher the orchestrator should supervise;
// definitions come from plain YAML files or from Go scripts evaluated with
// yaegi, so operators can add sources without rebuilding the binary.
package connector

import (
	"fmt"
	"strings"
	"time"
)

// KindFilesystem polls a drop folder for new files.
const KindFilesystem = "filesystem"

// Definition describes one connector a watcher process can run.
type Definition struct {
	Name      string `json:"name" yaml:"name"`
	Kind      string `json:"kind" yaml:"kind"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	Interval  int    `json:"interval,omitempty" yaml:"interval,omitempty"`
	StateFile string `json:"state_file,omitempty" yaml:"state_file,omitempty"`
}

// Normalized returns a trimmed copy of the definition.
func (def Definition) Normalized() Definition {
	return Definition{
		Name:      strings.TrimSpace(def.Name),
		Kind:      strings.ToLower(strings.TrimSpace(def.Kind)),
		Path:      strings.TrimSpace(def.Path),
		Interval:  def.Interval,
		StateFile: strings.TrimSpace(def.StateFile),
	}
}

// Validate ensures the definition is well-formed.
func (def Definition) Validate() error {
	normalized := def.Normalized()
	if normalized.Name == "" {
		return fmt.Errorf("connector: name is required")
	}
	switch normalized.Kind {
	case KindFilesystem:
	default:
		return fmt.Errorf("connector %s: unsupported kind %q", normalized.Name, def.Kind)
	}
	if normalized.Interval < 0 {
		return fmt.Errorf("connector %s: interval must be >= 0", normalized.Name)
	}
	return nil
}

// CheckInterval converts the configured interval to a duration; zero means
// "use the watcher default".
func (def Definition) CheckInterval() time.Duration {
	if def.Interval <= 0 {
		return 0
	}
	return time.Duration(def.Interval) * time.Second
}

// DefinitionFile pairs a parsed definition with its on-disk source.
type DefinitionFile struct {
	Definition Definition
	Path       string
}
