package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kingrea/conveyor/internal/config"
)

// DropFolderSource is the filesystem-delta connector: it treats every file
// that appears in a drop folder as one unit of inbound work. Identity is
// name plus modification time, so an edited file is picked up again while an
// untouched one is not.
type DropFolderSource struct {
	name      string
	dropDir   string
	intakeDir string
	set       *ProcessedSet
	now       func() time.Time
}

// NewDropFolderSource builds the connector and loads its processed-ID state.
// dropDir defaults to the vault's Inbox; stateFile defaults per ProcessedSet.
func NewDropFolderSource(cfg *config.Config, name, dropDir, stateFile string) (*DropFolderSource, error) {
	if strings.TrimSpace(name) == "" {
		name = "drop-folder"
	}
	if strings.TrimSpace(dropDir) == "" {
		dropDir = cfg.InboxDir()
	}
	if err := os.MkdirAll(dropDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "ensure drop folder %s", dropDir)
	}
	set, err := LoadProcessedSet(cfg.LogsDir(), stateFile)
	if err != nil {
		return nil, err
	}
	return &DropFolderSource{
		name:      name,
		dropDir:   dropDir,
		intakeDir: cfg.IntakeDir(),
		set:       set,
		now:       time.Now,
	}, nil
}

// Name identifies this connector in logs and the action log.
func (s *DropFolderSource) Name() string { return s.name }

// CheckForUpdates scans the drop folder and returns the files not seen before.
func (s *DropFolderSource) CheckForUpdates() ([]SourceItem, error) {
	entries, err := os.ReadDir(s.dropDir)
	if err != nil {
		return nil, errors.Wrapf(err, "read drop folder %s", s.dropDir)
	}
	var items []SourceItem
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		id := fmt.Sprintf("%s|%d", entry.Name(), info.ModTime().Unix())
		if s.set.Has(id) {
			continue
		}
		items = append(items, SourceItem{
			ID:      id,
			Title:   entry.Name(),
			Payload: filepath.Join(s.dropDir, entry.Name()),
		})
	}
	return items, nil
}

// CreateActionFile writes one markdown action file into intake and persists
// the item's identifier so it is never emitted twice, restarts included.
func (s *DropFolderSource) CreateActionFile(item SourceItem) (string, error) {
	content, err := os.ReadFile(item.Payload)
	if err != nil {
		return "", errors.Wrapf(err, "read dropped file %s", item.Payload)
	}

	now := s.now()
	stem := strings.TrimSuffix(item.Title, filepath.Ext(item.Title))
	name := fmt.Sprintf("FILE_%s_%s.md", Sanitize(stem), now.Format("20060102_150405"))
	path := filepath.Join(s.intakeDir, name)

	var b strings.Builder
	fmt.Fprintf(&b, "# New File: %s\n\n", item.Title)
	fmt.Fprintf(&b, "- Source: %s\n", item.Payload)
	fmt.Fprintf(&b, "- Detected: %s\n\n", now.Format(time.RFC3339))
	b.WriteString("## Content\n\n")
	b.WriteString("```\n")
	b.Write(content)
	if len(content) > 0 && content[len(content)-1] != '\n' {
		b.WriteString("\n")
	}
	b.WriteString("```\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", errors.Wrapf(err, "write action file %s", path)
	}

	s.set.Add(item.ID)
	if err := s.set.Save(); err != nil {
		// The action file exists; losing the state write means a duplicate on
		// the next run, which beats silently dropping the item.
		return path, err
	}
	return path, nil
}
