// Package watcher provides the polling core every source connector runs on.
// A connector supplies two capabilities, checking its source and writing an
// action file; the core supplies the loop, dedup bookkeeping and logging.
package watcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kingrea/conveyor/internal/actionlog"
	"github.com/kingrea/conveyor/internal/config"
	"github.com/kingrea/conveyor/internal/logging"
)

// DefaultInterval is the pause between source checks when none is configured.
const DefaultInterval = 60 * time.Second

// SourceItem is one new item reported by a source.
type SourceItem struct {
	// ID is the opaque identifier used for deduplication. Stable across runs.
	ID string
	// Title is a human-readable label used in logs and filenames.
	Title string
	// Payload carries connector-specific data the source needs later to
	// build the action file. The core never interprets it; the drop-folder
	// source stores the dropped file's path here, other connectors may
	// carry the body itself.
	Payload string
}

// Source is the contract a concrete connector must satisfy. The core never
// interprets items beyond their ID and title.
type Source interface {
	Name() string
	CheckForUpdates() ([]SourceItem, error)
	CreateActionFile(item SourceItem) (string, error)
}

// Watcher drives one Source on a fixed interval.
type Watcher struct {
	cfg      *config.Config
	source   Source
	logger   *logrus.Logger
	logClose io.Closer
	alog     *actionlog.Log
	interval time.Duration
}

// Option customizes a Watcher during construction.
type Option func(*Watcher)

// WithInterval overrides the check interval.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLogger injects a logger, replacing the default file+console one.
func WithLogger(logger *logrus.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New builds a watcher around a source. Construction ensures the Logs and
// intake directories exist and wires per-watcher logging to both a file and
// the console.
func New(cfg *config.Config, source Source, opts ...Option) (*Watcher, error) {
	for _, dir := range []string{cfg.LogsDir(), cfg.IntakeDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "ensure %s", dir)
		}
	}
	w := &Watcher{
		cfg:      cfg,
		source:   source,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		logger, closer, err := logging.New("watcher_"+source.Name(), cfg.LogsDir())
		if err != nil {
			return nil, err
		}
		w.logger = logger
		w.logClose = closer
	}
	alog, err := actionlog.New(cfg.LogsDir())
	if err != nil {
		return nil, err
	}
	w.alog = alog
	return w, nil
}

// Close releases the watcher's log file, if it owns one.
func (w *Watcher) Close() error {
	if w.logClose == nil {
		return nil
	}
	return w.logClose.Close()
}

// Run loops until the context is cancelled: check the source, emit action
// files, sleep. A failing check or a failing item never stops the loop.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Infof("Starting watcher %s", w.source.Name())
	w.logger.Infof("Vault path: %s", w.cfg.VaultDir)
	w.logger.Infof("Check interval: %s", w.interval)

	timer := time.NewTimer(0)
	defer timer.Stop()
	// Drain the immediate first tick so the first cycle runs right away.
	<-timer.C
	for {
		w.RunCycle()
		timer.Reset(w.interval)
		select {
		case <-ctx.Done():
			w.logger.Infof("Stopping watcher %s", w.source.Name())
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunCycle performs exactly one check-and-emit pass and returns how many
// action files were created. Per-item failures are logged and skipped; the
// rest of the batch still runs.
func (w *Watcher) RunCycle() int {
	items, err := w.source.CheckForUpdates()
	if err != nil {
		w.logger.Errorf("Error in check loop: %v", err)
		return 0
	}
	if len(items) == 0 {
		w.logger.Debug("No new items")
		return 0
	}
	w.logger.Infof("Found %d new item(s)", len(items))

	created := 0
	for _, item := range items {
		path, err := w.source.CreateActionFile(item)
		if err != nil {
			w.logger.Errorf("Error creating action file for %s: %v", item.ID, err)
			_ = w.alog.Failure(w.source.Name(), "create_action_file", item.ID)
			continue
		}
		w.logger.Infof("Created action file: %s", filepath.Base(path))
		_ = w.alog.Success(w.source.Name(), "create_action_file", filepath.Base(path))
		created++
	}
	return created
}
