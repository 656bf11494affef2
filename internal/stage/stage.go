// Package stage is the lifecycle store. A task's state is which lifecycle
// folder currently holds its file; the store keeps no index of its own and
// re-reads the filesystem on every call.
package stage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kingrea/conveyor/internal/config"
)

// Stage identifies one lifecycle folder.
type Stage string

const (
	StageUnknown         Stage = "unknown"
	StageIntake          Stage = "intake"
	StagePlans           Stage = "plans"
	StagePendingApproval Stage = "pending-approval"
	StageApproved        Stage = "approved"
	StageDone            Stage = "done"
)

// Stages lists the lifecycle folders in pipeline order.
var Stages = []Stage{StageIntake, StagePlans, StagePendingApproval, StageApproved, StageDone}

// ErrDestinationExists signals that a move would overwrite a file already in
// the destination stage. The source file is left untouched.
var ErrDestinationExists = errors.New("stage: destination file already exists")

// Entry describes one markdown file found in a lifecycle folder.
type Entry struct {
	Name    string
	Path    string
	ModTime time.Time
}

// Store resolves stages to directories and performs listings and moves.
type Store struct {
	cfg *config.Config
}

// NewStore builds a store over the vault layout.
func NewStore(cfg *config.Config) *Store {
	return &Store{cfg: cfg}
}

// Dir returns the directory backing a stage.
func (s *Store) Dir(st Stage) string {
	switch st {
	case StageIntake:
		return s.cfg.IntakeDir()
	case StagePlans:
		return s.cfg.PlansDir()
	case StagePendingApproval:
		return s.cfg.PendingApprovalDir()
	case StageApproved:
		return s.cfg.ApprovedDir()
	case StageDone:
		return s.cfg.DoneDir()
	default:
		return ""
	}
}

// List returns the markdown files currently in a stage, sorted by name.
// Every call is a fresh directory read; files appearing mid-cycle may or may
// not be included.
func (s *Store) List(st Stage) ([]Entry, error) {
	dir := s.Dir(st)
	if dir == "" {
		return nil, fmt.Errorf("stage: unknown stage %q", st)
	}
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stage: list %s: %w", dir, err)
	}
	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.EqualFold(filepath.Ext(de.Name()), ".md") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:    de.Name(),
			Path:    filepath.Join(dir, de.Name()),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Count returns how many markdown files a stage holds.
func (s *Store) Count(st Stage) int {
	entries, err := s.List(st)
	if err != nil {
		return 0
	}
	return len(entries)
}

// CountDoneToday returns how many Done files were last modified on the same
// calendar day as now.
func (s *Store) CountDoneToday(now time.Time) int {
	entries, err := s.List(StageDone)
	if err != nil {
		return 0
	}
	count := 0
	y, m, d := now.Date()
	for _, entry := range entries {
		ey, em, ed := entry.ModTime.Date()
		if ey == y && em == m && ed == d {
			count++
		}
	}
	return count
}

// Move relocates a file between stages with a single rename. Either the file
// ends up in the destination or it stays in the source; there is no state
// where it is gone from both. Refuses to clobber an existing destination.
func (s *Store) Move(name string, from, to Stage) error {
	src := filepath.Join(s.Dir(from), name)
	dst := filepath.Join(s.Dir(to), name)
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%w: %s in %s", ErrDestinationExists, name, to)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stage: stat %s: %w", dst, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("stage: move %s from %s to %s: %w", name, from, to, err)
	}
	return nil
}

// Locate reports which stage currently holds the named file. Used by tests and
// the status board; production code trusts the directory it is iterating.
func (s *Store) Locate(name string) (Stage, bool) {
	for _, st := range Stages {
		if _, err := os.Stat(filepath.Join(s.Dir(st), name)); err == nil {
			return st, true
		}
	}
	return StageUnknown, false
}
