// Package orchestrator drives the task lifecycle: it drains approved work
// into Done, drafts plans for intake files, keeps the dashboard current and
// supervises watcher subprocesses. It never makes the approval decision
// itself; a human moves files into Approved.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kingrea/conveyor/internal/actionlog"
	"github.com/kingrea/conveyor/internal/config"
	"github.com/kingrea/conveyor/internal/connector"
	"github.com/kingrea/conveyor/internal/logging"
	"github.com/kingrea/conveyor/internal/plan"
	"github.com/kingrea/conveyor/internal/stage"
)

// Actor is the identity recorded on action-log entries written here.
const Actor = "orchestrator"

// Orchestrator coordinates one vault.
type Orchestrator struct {
	cfg      *config.Config
	store    *stage.Store
	alog     *actionlog.Log
	logger   *logrus.Logger
	logClose io.Closer
	sup      *Supervisor
	now      func() time.Time
}

// Option customizes an Orchestrator during construction.
type Option func(*Orchestrator)

// WithLogger injects a logger, replacing the default file+console one.
func WithLogger(logger *logrus.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the clock used for timestamps and "done today" counts.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.now = clock
		}
	}
}

// New builds an orchestrator for a vault, ensuring the lifecycle directories
// exist before any cycle runs.
func New(cfg *config.Config, opts ...Option) (*Orchestrator, error) {
	if err := cfg.InitVault(); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		cfg:   cfg,
		store: stage.NewStore(cfg),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		logger, closer, err := logging.New("orchestrator", cfg.LogsDir())
		if err != nil {
			return nil, err
		}
		o.logger = logger
		o.logClose = closer
	}
	alog, err := actionlog.New(cfg.LogsDir(), actionlog.WithClock(func() time.Time { return o.now() }))
	if err != nil {
		return nil, err
	}
	o.alog = alog
	o.sup = NewSupervisor(o.logger)

	o.logger.Infof("Orchestrator initialized for vault: %s", cfg.VaultDir)
	o.logger.Infof("Scripts path: %s", cfg.ScriptsDir)
	return o, nil
}

// Close releases the orchestrator's log file, if it owns one.
func (o *Orchestrator) Close() error {
	if o.logClose == nil {
		return nil
	}
	return o.logClose.Close()
}

// Store exposes the lifecycle store, mainly for the status board.
func (o *Orchestrator) Store() *stage.Store { return o.store }

// ActionLog exposes the structured action log, mainly for the status board.
func (o *Orchestrator) ActionLog() *actionlog.Log { return o.alog }

// Supervisor exposes the watcher supervisor.
func (o *Orchestrator) Supervisor() *Supervisor { return o.sup }

// ProcessIntake drafts a plan for every markdown file currently in intake and
// returns how many files were processed successfully. Intake files are not
// moved: the plan is a companion artifact and the approval decision stays
// with a human. An I/O failure on one file is logged and skipped; the rest of
// the listing still runs.
func (o *Orchestrator) ProcessIntake() int {
	entries, err := o.store.List(stage.StageIntake)
	if err != nil {
		o.logger.Errorf("Failed to list intake: %v", err)
		return 0
	}
	if len(entries) == 0 {
		o.logger.Info("No files to process in Needs_Action")
		_ = o.alog.Success(Actor, "process_intake", "no_items")
		return 0
	}
	o.logger.Infof("Found %d file(s) to process", len(entries))

	processed := 0
	for _, entry := range entries {
		if err := o.processIntakeFile(entry); err != nil {
			o.logger.Errorf("Error processing %s: %v", entry.Name, err)
			_ = o.alog.Failure(Actor, "process_file", entry.Name)
			continue
		}
		processed++
	}
	o.logger.Infof("Processed %d file(s)", processed)
	return processed
}

func (o *Orchestrator) processIntakeFile(entry stage.Entry) error {
	o.logger.Infof("Processing: %s", entry.Name)

	// Read is part of the contract even though the engine treats the payload
	// as opaque: an unreadable intake file must count as a failure.
	if _, err := os.ReadFile(entry.Path); err != nil {
		return fmt.Errorf("read intake file: %w", err)
	}
	if err := o.alog.Success(Actor, "process_file", entry.Name); err != nil {
		return err
	}

	content, err := plan.Render(entry.Name, o.now())
	if err != nil {
		return err
	}
	planPath := filepath.Join(o.cfg.PlansDir(), plan.FileName(entry.Name))
	if err := os.WriteFile(planPath, content, 0o644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	o.logger.Infof("Created plan: %s", filepath.Base(planPath))

	return o.UpdateDashboard()
}

// ProcessApproved executes every approved file by moving it to Done and
// returns how many moves succeeded. A failed move is logged loudly and leaves
// the file in Approved; the remaining files still attempt their move.
func (o *Orchestrator) ProcessApproved() int {
	entries, err := o.store.List(stage.StageApproved)
	if err != nil {
		o.logger.Errorf("Failed to list approved: %v", err)
		return 0
	}
	if len(entries) == 0 {
		o.logger.Info("No approved files to process")
		return 0
	}
	o.logger.Infof("Found %d approved file(s) to execute", len(entries))

	processed := 0
	for _, entry := range entries {
		o.logger.Infof("Executing approved action: %s", entry.Name)
		if err := o.store.Move(entry.Name, stage.StageApproved, stage.StageDone); err != nil {
			o.logger.Errorf("Error executing %s: %v", entry.Name, err)
			_ = o.alog.Failure(Actor, "execute_approved", entry.Name)
			continue
		}
		_ = o.alog.Success(Actor, "execute_approved", entry.Name)
		o.logger.Infof("Moved to Done: %s", entry.Name)
		if err := o.UpdateDashboard(); err != nil {
			o.logger.Errorf("Dashboard update failed: %v", err)
		}
		processed++
	}
	return processed
}

// StartWatchers spawns one watcher subprocess per declared watcher and
// returns how many started. Declarations come from the conveyor.yaml
// watchers list plus the connector definitions directory; a name declared in
// both places keeps the conveyor.yaml entry and the connector-dir duplicate
// is logged and skipped. With no declarations at all, a single built-in
// drop-folder watcher on the Inbox is started instead. A watcher that fails
// to spawn is logged and skipped.
func (o *Orchestrator) StartWatchers() int {
	var defs []connector.Definition
	seen := make(map[string]struct{})
	for _, ref := range o.cfg.Watchers() {
		defs = append(defs, connector.Definition{
			Name:      ref.Name,
			Kind:      ref.Kind,
			Path:      ref.Path,
			Interval:  ref.Interval,
			StateFile: ref.StateFile,
		})
		seen[strings.ToLower(ref.Name)] = struct{}{}
	}

	files, err := connector.LoadDir(o.cfg.ConnectorsDir())
	if err != nil {
		o.logger.Errorf("Failed to load connector definitions: %v", err)
		return 0
	}
	for _, file := range files {
		key := strings.ToLower(file.Definition.Name)
		if _, dup := seen[key]; dup {
			o.logger.Errorf("Watcher %s from %s duplicates a conveyor.yaml entry, skipping", file.Definition.Name, file.Path)
			_ = o.alog.Failure(Actor, "start_watcher", file.Definition.Name)
			continue
		}
		seen[key] = struct{}{}
		defs = append(defs, file.Definition)
	}

	if len(defs) == 0 {
		defs = []connector.Definition{{Name: "drop-folder", Kind: connector.KindFilesystem}}
	}

	started := 0
	for _, def := range defs {
		spec := Spec{
			Name:      def.Name,
			VaultDir:  o.cfg.VaultDir,
			SourceDir: def.Path,
			StateFile: def.StateFile,
			Interval:  def.CheckInterval(),
		}
		if _, err := o.sup.Start(spec); err != nil {
			o.logger.Errorf("Failed to start watcher %s: %v", def.Name, err)
			_ = o.alog.Failure(Actor, "start_watcher", def.Name)
			continue
		}
		_ = o.alog.Success(Actor, "start_watcher", def.Name)
		started++
	}
	return started
}

// RunOnce executes a single cycle: approved first, then intake, then a final
// dashboard refresh. The ordering keeps the completed-today count monotone
// within the cycle.
func (o *Orchestrator) RunOnce() {
	o.logger.Info("Running single processing cycle")
	o.ProcessApproved()
	o.ProcessIntake()
	if err := o.UpdateDashboard(); err != nil {
		o.logger.Errorf("Dashboard update failed: %v", err)
	}
	o.logger.Info("Processing cycle complete")
}

// RunContinuous repeats RunOnce on a fixed interval until the context is
// cancelled, then stops every supervised watcher before returning.
func (o *Orchestrator) RunContinuous(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = o.cfg.Interval()
	}
	o.logger.Infof("Starting continuous mode (interval: %s)", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		o.RunOnce()
		select {
		case <-ctx.Done():
			o.logger.Info("Stopping continuous mode...")
			o.sup.StopAll()
			return
		case <-ticker.C:
		}
	}
}
