package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DefaultStateFile is the state file used when a watcher does not name its own.
const DefaultStateFile = "processed_ids.txt"

// ProcessedSet holds the identifiers of source items already emitted to
// intake. It is scoped to a single owning watcher; concurrent writers to the
// same state file are out of contract.
type ProcessedSet struct {
	path string
	ids  map[string]struct{}
}

// LoadProcessedSet reads the newline-delimited state file from the logs
// directory. A missing file yields an empty set, never an error, so first runs
// always start clean.
func LoadProcessedSet(logsDir, stateFile string) (*ProcessedSet, error) {
	if strings.TrimSpace(stateFile) == "" {
		stateFile = DefaultStateFile
	}
	set := &ProcessedSet{
		path: filepath.Join(logsDir, stateFile),
		ids:  make(map[string]struct{}),
	}
	data, err := os.ReadFile(set.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return set, nil
		}
		return nil, errors.Wrapf(err, "read state file %s", set.path)
	}
	for _, line := range strings.Split(string(data), "\n") {
		id := strings.TrimSpace(line)
		if id != "" {
			set.ids[id] = struct{}{}
		}
	}
	return set, nil
}

// Has reports whether an identifier was already processed.
func (s *ProcessedSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Add marks an identifier as processed in memory. Call Save to persist.
func (s *ProcessedSet) Add(id string) {
	s.ids[id] = struct{}{}
}

// Len returns the number of tracked identifiers.
func (s *ProcessedSet) Len() int { return len(s.ids) }

// Save rewrites the state file wholesale, one identifier per line, sorted for
// stable diffs. Not an append: the file always reflects the full set.
func (s *ProcessedSet) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "ensure state dir")
	}
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	content := strings.Join(ids, "\n")
	if err := os.WriteFile(s.path, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "write state file %s", s.path)
	}
	return nil
}
