// internal/tui/board.go
//
// Live status board for a vault. Built on bubbletea's Elm loop: the model
// holds a snapshot of the vault, a tick message refreshes it every few
// seconds, and View renders it as styled tables.

package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/conveyor/internal/actionlog"
	"github.com/kingrea/conveyor/internal/config"
	"github.com/kingrea/conveyor/internal/orchestrator"
	"github.com/kingrea/conveyor/internal/stage"
)

const (
	boardRefreshInterval = 3 * time.Second
	activityTailSize     = 8
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// snapshotMsg carries one refresh of the vault state into Update.
type snapshotMsg struct {
	counts   map[stage.Stage]int
	inbox    int
	tail     []actionlog.Entry
	watchers []orchestrator.WatcherStatus
	err      error
}

// BoardOption customizes Board construction.
type BoardOption func(*Board)

// WithSupervisor attaches a live supervisor so the board can show watcher
// processes. Without one the watcher table reads "none".
func WithSupervisor(sup *orchestrator.Supervisor) BoardOption {
	return func(b *Board) { b.sup = sup }
}

// WithBoardClock overrides the clock, mainly so tests pin the activity day.
func WithBoardClock(clock func() time.Time) BoardOption {
	return func(b *Board) {
		if clock != nil {
			b.now = clock
		}
	}
}

// Board is the bubbletea model for the status view.
type Board struct {
	cfg   *config.Config
	store *stage.Store
	alog  *actionlog.Log
	sup   *orchestrator.Supervisor
	now   func() time.Time

	spin     spinner.Model
	counts   map[stage.Stage]int
	inbox    int
	tail     []actionlog.Entry
	watchers []orchestrator.WatcherStatus
	loadErr  string

	width  int
	height int
}

// NewBoard builds a board over an existing vault.
func NewBoard(cfg *config.Config, opts ...BoardOption) (*Board, error) {
	alog, err := actionlog.New(cfg.LogsDir())
	if err != nil {
		return nil, err
	}
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))

	b := &Board{
		cfg:   cfg,
		store: stage.NewStore(cfg),
		alog:  alog,
		now:   time.Now,
		spin:  spin,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Run blocks inside the bubbletea event loop until the user quits.
func Run(cfg *config.Config, opts ...BoardOption) error {
	board, err := NewBoard(cfg, opts...)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(board, tea.WithAltScreen()).Run()
	return err
}

func (b *Board) Init() tea.Cmd {
	return tea.Batch(b.spin.Tick, b.fetchSnapshot())
}

func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return b, tea.Quit
		case "r":
			return b, b.fetchSnapshot()
		}
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
	case snapshotMsg:
		b.applySnapshot(msg)
		return b, b.scheduleRefresh()
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spin, cmd = b.spin.Update(msg)
		return b, cmd
	}
	return b, nil
}

func (b *Board) applySnapshot(msg snapshotMsg) {
	if msg.err != nil {
		b.loadErr = msg.err.Error()
		return
	}
	b.loadErr = ""
	b.counts = msg.counts
	b.inbox = msg.inbox
	b.tail = msg.tail
	b.watchers = msg.watchers
}

func (b *Board) fetchSnapshot() tea.Cmd {
	return func() tea.Msg { return b.buildSnapshot() }
}

func (b *Board) scheduleRefresh() tea.Cmd {
	return tea.Tick(boardRefreshInterval, func(time.Time) tea.Msg {
		return b.buildSnapshot()
	})
}

func (b *Board) buildSnapshot() snapshotMsg {
	counts := make(map[stage.Stage]int, len(stage.Stages))
	for _, st := range stage.Stages {
		counts[st] = b.store.Count(st)
	}

	inbox := 0
	if entries, err := os.ReadDir(b.cfg.InboxDir()); err == nil {
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			inbox++
		}
	}

	tail, err := b.alog.Tail(b.now(), activityTailSize)
	if err != nil {
		return snapshotMsg{err: err}
	}

	var watchers []orchestrator.WatcherStatus
	if b.sup != nil {
		watchers = b.sup.Statuses()
	}
	return snapshotMsg{counts: counts, inbox: inbox, tail: tail, watchers: watchers}
}

func (b *Board) View() string {
	var sections []string
	sections = append(sections, titleStyle.Render("⬡ CONVEYOR STATUS")+"  "+b.spin.View()+dimStyle.Render(b.cfg.VaultDir))
	if b.loadErr != "" {
		sections = append(sections, failureStyle.Render("error: "+b.loadErr))
	}
	sections = append(sections,
		boxStyle.Render(b.renderStages()),
		boxStyle.Render(b.renderWatchers()),
		boxStyle.Render(b.renderActivity()),
		dimStyle.Render("r refresh · q quit"),
	)
	return strings.Join(sections, "\n") + "\n"
}

func (b *Board) renderStages() string {
	rows := []string{headerStyle.Render("STAGES")}
	rows = append(rows, fmt.Sprintf("%-18s %4d", "Inbox", b.inbox))
	labels := map[stage.Stage]string{
		stage.StageIntake:          "Needs_Action",
		stage.StagePlans:           "Plans",
		stage.StagePendingApproval: "Pending_Approval",
		stage.StageApproved:        "Approved",
		stage.StageDone:            "Done",
	}
	for _, st := range stage.Stages {
		rows = append(rows, fmt.Sprintf("%-18s %4d", labels[st], b.counts[st]))
	}
	return strings.Join(rows, "\n")
}

func (b *Board) renderWatchers() string {
	rows := []string{headerStyle.Render("WATCHERS")}
	if len(b.watchers) == 0 {
		rows = append(rows, dimStyle.Render("none"))
		return strings.Join(rows, "\n")
	}
	for _, w := range b.watchers {
		state := successStyle.Render("running")
		if !w.Running {
			state = failureStyle.Render("stopped")
		}
		rows = append(rows, fmt.Sprintf("%-18s %6d  %s", w.Name, w.PID, state))
	}
	return strings.Join(rows, "\n")
}

func (b *Board) renderActivity() string {
	rows := []string{headerStyle.Render("TODAY'S ACTIVITY")}
	if len(b.tail) == 0 {
		rows = append(rows, dimStyle.Render("no actions logged today"))
		return strings.Join(rows, "\n")
	}
	for _, entry := range b.tail {
		mark := successStyle.Render("✓")
		if entry.Result == actionlog.ResultFailure {
			mark = failureStyle.Render("✗")
		}
		rows = append(rows, fmt.Sprintf("%s %-16s %-18s %s", mark, entry.Actor, entry.ActionType, entry.Target))
	}
	return strings.Join(rows, "\n")
}
