// internal/config/config.go
//
// This package handles configuration and the vault directory structure.
// The vault is the task pipeline itself: a file's presence in one of the
// lifecycle folders is the only record of its state, so the layout here
// is load-bearing, not cosmetic.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the optional project config seeded into the vault root.
	ConfigFileName = "conveyor.yaml"

	defaultIntervalSeconds = 60
	defaultMonthlyGoal     = "$10,000"
)

// ErrVaultMissing is returned when the vault path does not exist. This is the
// one configuration error that is fatal to the whole process.
var ErrVaultMissing = errors.New("config: vault path does not exist")

const defaultProjectConfigYAML = `# conveyor project configuration
version: 1

# Seconds between orchestrator / watcher cycles.
interval: 60

# Monthly revenue goal shown on the dashboard.
monthly_goal: "$10,000"

# Watchers the orchestrator supervises. Kind "filesystem" polls a drop
# folder and emits action files into Needs_Action.
watchers:
  - name: drop-folder
    kind: filesystem
    # path: /path/to/drop/folder   (default: <vault>/Inbox)
`

// WatcherRef declares one supervised watcher entry inside conveyor.yaml.
type WatcherRef struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`
	Path      string `yaml:"path,omitempty"`
	Interval  int    `yaml:"interval,omitempty"`
	StateFile string `yaml:"state_file,omitempty"`
}

// ProjectConfig models conveyor.yaml.
type ProjectConfig struct {
	Version     int          `yaml:"version"`
	Interval    int          `yaml:"interval"`
	MonthlyGoal string       `yaml:"monthly_goal"`
	Watchers    []WatcherRef `yaml:"watchers"`
}

// Config holds the runtime configuration for one vault.
type Config struct {
	// VaultDir is the pipeline root containing the lifecycle folders.
	VaultDir string

	// ScriptsDir holds the Dashboard, Company Handbook and Business Goals.
	// Defaults to a sibling of the vault named "scripts".
	ScriptsDir string

	Project ProjectConfig
}

// New validates the vault path and loads project settings. scriptsOverride may
// be empty, in which case the scripts folder defaults to <vault>/../scripts.
func New(vaultDir, scriptsOverride string) (*Config, error) {
	info, err := os.Stat(vaultDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrVaultMissing, vaultDir)
		}
		return nil, fmt.Errorf("config: stat vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrVaultMissing, vaultDir)
	}

	absVault, err := filepath.Abs(vaultDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve vault path: %w", err)
	}

	scripts := strings.TrimSpace(scriptsOverride)
	if scripts == "" {
		scripts = filepath.Join(filepath.Dir(absVault), "scripts")
	} else if !filepath.IsAbs(scripts) {
		scripts = filepath.Clean(scripts)
	}

	cfg := &Config{
		VaultDir:   absVault,
		ScriptsDir: scripts,
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitVault creates the lifecycle directory structure and the scripts folder.
// Safe to call on every startup; existing directories are left alone.
//
// Structure created:
// <vault>/
// ├── Inbox/              <- raw drop folder counted on the dashboard
// ├── Needs_Action/       <- intake for the lifecycle engine
// ├── Plans/              <- generated plan scaffolds
// ├── Pending_Approval/   <- awaiting a human decision
// ├── Approved/           <- decision made, ready to execute
// ├── Done/               <- completed work
// └── Logs/               <- action log, process logs, watcher state
func (c *Config) InitVault() error {
	dirs := []string{
		c.InboxDir(),
		c.IntakeDir(),
		c.PlansDir(),
		c.PendingApprovalDir(),
		c.ApprovedDir(),
		c.DoneDir(),
		c.LogsDir(),
		c.ScriptsDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	return ensureProjectConfig(c.ProjectConfigPath())
}

// InboxDir returns the raw drop folder inside the vault.
func (c *Config) InboxDir() string { return filepath.Join(c.VaultDir, "Inbox") }

// IntakeDir returns the Needs_Action folder where watchers emit action files.
func (c *Config) IntakeDir() string { return filepath.Join(c.VaultDir, "Needs_Action") }

// PlansDir returns the folder holding generated plan scaffolds.
func (c *Config) PlansDir() string { return filepath.Join(c.VaultDir, "Plans") }

// PendingApprovalDir returns the folder for items awaiting a human decision.
func (c *Config) PendingApprovalDir() string { return filepath.Join(c.VaultDir, "Pending_Approval") }

// ApprovedDir returns the folder for items cleared for execution.
func (c *Config) ApprovedDir() string { return filepath.Join(c.VaultDir, "Approved") }

// DoneDir returns the folder for completed items.
func (c *Config) DoneDir() string { return filepath.Join(c.VaultDir, "Done") }

// LogsDir returns the folder holding logs and watcher state files.
func (c *Config) LogsDir() string { return filepath.Join(c.VaultDir, "Logs") }

// DashboardPath returns the dashboard artifact in the scripts folder.
func (c *Config) DashboardPath() string { return filepath.Join(c.ScriptsDir, "Dashboard.md") }

// HandbookPath returns the company handbook consumed by the external
// action-processing step. The engine only references it, never reads it.
func (c *Config) HandbookPath() string { return filepath.Join(c.ScriptsDir, "Company_Handbook.md") }

// BusinessGoalsPath returns the business goals document in the scripts folder.
func (c *Config) BusinessGoalsPath() string { return filepath.Join(c.ScriptsDir, "Business_Goals.md") }

// ConnectorsDir returns the folder scanned for connector definitions.
func (c *Config) ConnectorsDir() string { return filepath.Join(c.ScriptsDir, "connectors") }

// ProjectConfigPath returns the on-disk location for conveyor.yaml.
func (c *Config) ProjectConfigPath() string { return filepath.Join(c.VaultDir, ConfigFileName) }

// Interval returns the configured cycle interval.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Project.Interval) * time.Second
}

// MonthlyGoal returns the revenue goal rendered on the dashboard.
func (c *Config) MonthlyGoal() string { return c.Project.MonthlyGoal }

// Watchers returns the configured watcher references.
func (c *Config) Watchers() []WatcherRef { return c.Project.Watchers }

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.VaultDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:     1,
		Interval:    defaultIntervalSeconds,
		MonthlyGoal: defaultMonthlyGoal,
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Interval <= 0 {
		pc.Interval = defaultIntervalSeconds
	}
	if strings.TrimSpace(pc.MonthlyGoal) == "" {
		pc.MonthlyGoal = defaultMonthlyGoal
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.MonthlyGoal = strings.TrimSpace(pc.MonthlyGoal)
	for i := range pc.Watchers {
		pc.Watchers[i].normalize(base)
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	seen := map[string]struct{}{}
	for i := range pc.Watchers {
		if err := pc.Watchers[i].validate(); err != nil {
			return fmt.Errorf("watchers[%d]: %w", i, err)
		}
		key := strings.ToLower(pc.Watchers[i].Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("watchers[%d]: duplicate name %q", i, pc.Watchers[i].Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (w *WatcherRef) normalize(base string) {
	w.Name = strings.TrimSpace(w.Name)
	w.Kind = strings.ToLower(strings.TrimSpace(w.Kind))
	w.Path = resolvePath(base, w.Path)
	w.StateFile = strings.TrimSpace(w.StateFile)
}

func (w WatcherRef) validate() error {
	if w.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch w.Kind {
	case "filesystem":
		return nil
	default:
		return fmt.Errorf("kind must be 'filesystem'")
	}
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
