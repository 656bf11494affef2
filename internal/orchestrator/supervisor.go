package orchestrator

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// stopGrace is how long StopAll waits after a terminate signal before killing.
const stopGrace = 5 * time.Second

// WatchBinaryName is the watcher executable spawned next to the orchestrator.
const WatchBinaryName = "conveyor-watch"

// Spec describes one watcher subprocess to launch.
type Spec struct {
	Name      string
	VaultDir  string
	SourceDir string
	StateFile string
	Interval  time.Duration
}

// WatcherStatus is a point-in-time view of a supervised process.
type WatcherStatus struct {
	Name    string
	PID     int
	Running bool
}

type process struct {
	name string
	cmd  *exec.Cmd
	done chan struct{}
}

// Supervisor owns the watcher subprocesses the orchestrator starts. There is
// no restart-on-crash policy: a crashed watcher stays down until it is started
// again explicitly.
type Supervisor struct {
	logger  *logrus.Logger
	makeCmd func(Spec) (*exec.Cmd, error)

	mu    sync.Mutex
	procs map[string]*process
}

// NewSupervisor builds an empty supervisor.
func NewSupervisor(logger *logrus.Logger) *Supervisor {
	return &Supervisor{
		logger:  logger,
		makeCmd: defaultWatchCommand,
		procs:   make(map[string]*process),
	}
}

// defaultWatchCommand launches the conveyor-watch binary that ships next to
// the current executable.
func defaultWatchCommand(spec Spec) (*exec.Cmd, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("supervisor: find executable: %w", err)
	}
	binary := filepath.Join(filepath.Dir(self), WatchBinaryName)
	args := []string{spec.VaultDir, "--name", spec.Name}
	if spec.SourceDir != "" {
		args = append(args, "--source", spec.SourceDir)
	}
	if spec.StateFile != "" {
		args = append(args, "--state", spec.StateFile)
	}
	if spec.Interval > 0 {
		args = append(args, "--interval", strconv.Itoa(int(spec.Interval/time.Second)))
	}
	cmd := exec.Command(binary, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd, nil
}

// Start spawns a watcher process and records its handle. A watcher name can
// run at most once at a time.
func (s *Supervisor) Start(spec Spec) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.procs[spec.Name]; ok && existing.running() {
		return 0, fmt.Errorf("supervisor: watcher %s already running (PID %d)", spec.Name, existing.cmd.Process.Pid)
	}

	cmd, err := s.makeCmd(spec)
	if err != nil {
		return 0, err
	}
	s.logger.Infof("Starting watcher %s: %s", spec.Name, cmd.String())
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("supervisor: start %s: %w", spec.Name, err)
	}

	proc := &process{name: spec.Name, cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(proc.done)
	}()
	s.procs[spec.Name] = proc

	s.logger.Infof("Watcher %s started (PID: %d)", spec.Name, cmd.Process.Pid)
	return cmd.Process.Pid, nil
}

// StopAll terminates every recorded watcher: terminate signal first, then a
// bounded wait, then a hard kill for anything still alive. The handle list is
// cleared afterwards.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	procs := s.procs
	s.procs = make(map[string]*process)
	s.mu.Unlock()

	for _, proc := range procs {
		if !proc.running() {
			continue
		}
		pid := proc.cmd.Process.Pid
		if err := proc.cmd.Process.Signal(syscall.SIGTERM); err != nil {
			s.logger.Warnf("Terminate watcher %s (PID %d): %v", proc.name, pid, err)
		}
		select {
		case <-proc.done:
			s.logger.Infof("Terminated watcher %s (PID: %d)", proc.name, pid)
		case <-time.After(stopGrace):
			if err := proc.cmd.Process.Kill(); err != nil {
				s.logger.Errorf("Kill watcher %s (PID %d): %v", proc.name, pid, err)
				continue
			}
			<-proc.done
			s.logger.Warnf("Killed watcher %s (PID: %d) after %s grace", proc.name, pid, stopGrace)
		}
	}
}

// Statuses reports every recorded watcher and whether it is still alive,
// sorted by name.
func (s *Supervisor) Statuses() []WatcherStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	statuses := make([]WatcherStatus, 0, len(s.procs))
	for _, proc := range s.procs {
		statuses = append(statuses, WatcherStatus{
			Name:    proc.name,
			PID:     proc.cmd.Process.Pid,
			Running: proc.running(),
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

func (p *process) running() bool {
	if p == nil || p.cmd == nil || p.cmd.Process == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}
