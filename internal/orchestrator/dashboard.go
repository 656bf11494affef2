package orchestrator

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kingrea/conveyor/internal/stage"
)

// Stats is the snapshot of directory counts a dashboard is rendered from.
type Stats struct {
	Inbox           int
	Intake          int
	PendingApproval int
	DoneToday       int
	MonthlyGoal     string
	Watchers        []WatcherStatus
}

// CollectStats reads the current counts from the lifecycle store.
func (o *Orchestrator) CollectStats() Stats {
	inbox := 0
	if entries, err := os.ReadDir(o.cfg.InboxDir()); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
				inbox++
			}
		}
	}
	return Stats{
		Inbox:           inbox,
		Intake:          o.store.Count(stage.StageIntake),
		PendingApproval: o.store.Count(stage.StagePendingApproval),
		DoneToday:       o.store.CountDoneToday(o.now()),
		MonthlyGoal:     o.cfg.MonthlyGoal(),
		Watchers:        o.sup.Statuses(),
	}
}

// UpdateDashboard recomputes the stats and fully rewrites Dashboard.md.
// Regeneration is idempotent apart from the refreshed timestamps.
func (o *Orchestrator) UpdateDashboard() error {
	o.logger.Debug("Updating dashboard")
	content := RenderDashboard(o.CollectStats(), o.now())
	if err := os.WriteFile(o.cfg.DashboardPath(), []byte(content), 0o644); err != nil {
		return fmt.Errorf("orchestrator: write dashboard: %w", err)
	}
	o.logger.Info("Dashboard updated")
	return nil
}

// RenderDashboard is a pure function from stats + time to the dashboard
// document. The whole artifact is replaced on every call, never diffed.
func RenderDashboard(stats Stats, now time.Time) string {
	goal := stats.MonthlyGoal
	if goal == "" {
		goal = "$10,000"
	}
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "last_updated: %s\n", now.Format(time.RFC3339))
	b.WriteString("status: active\n")
	b.WriteString("---\n\n")
	b.WriteString("# Conveyor Dashboard\n\n")
	fmt.Fprintf(&b, "> **Last Refresh:** %s\n\n", now.Format("2006-01-02 15:04:05"))

	b.WriteString("## Quick Stats\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Pending Tasks | %d |\n", stats.Intake)
	fmt.Fprintf(&b, "| Awaiting Approval | %d |\n", stats.PendingApproval)
	fmt.Fprintf(&b, "| Completed Today | %d |\n", stats.DoneToday)
	b.WriteString("| Revenue MTD | $0 |\n\n")
	b.WriteString("---\n\n")

	b.WriteString("## Inbox Status\n\n")
	b.WriteString("| Folder | Count |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| /Inbox | %d |\n", stats.Inbox)
	fmt.Fprintf(&b, "| /Needs_Action | %d |\n", stats.Intake)
	fmt.Fprintf(&b, "| /Pending_Approval | %d |\n\n", stats.PendingApproval)
	b.WriteString("---\n\n")

	b.WriteString("## Recent Activity\n\n")
	b.WriteString("*Check /Done folder for completed tasks.*\n\n")
	b.WriteString("---\n\n")

	b.WriteString("## Business Health\n\n")
	b.WriteString("### Revenue Tracking\n")
	fmt.Fprintf(&b, "- **Monthly Goal:** %s\n", goal)
	b.WriteString("- **Current MTD:** $0 (0%)\n")
	b.WriteString("- **Projected:** On track\n\n")
	b.WriteString("### Active Projects\n")
	b.WriteString("1. *No active projects*\n\n")
	b.WriteString("---\n\n")

	b.WriteString("## System Status\n\n")
	b.WriteString("| Component | Status |\n")
	b.WriteString("|-----------|--------|\n")
	if len(stats.Watchers) == 0 {
		b.WriteString("| File Watcher | ⚪ Not Running |\n")
	}
	for _, w := range stats.Watchers {
		state := "🟢 Running"
		if !w.Running {
			state = "⚪ Not Running"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", w.Name, state)
	}
	b.WriteString("| Orchestrator | 🟢 Active |\n\n")
	b.WriteString("---\n\n")

	b.WriteString("## Quick Commands\n\n")
	b.WriteString("```bash\n")
	b.WriteString("# Process Needs_Action folder\n")
	b.WriteString("conveyor <vault> --process\n\n")
	b.WriteString("# Execute approved actions\n")
	b.WriteString("conveyor <vault> --approved\n\n")
	b.WriteString("# Run everything continuously\n")
	b.WriteString("conveyor <vault> --continuous --watchers\n")
	b.WriteString("```\n\n")
	b.WriteString("---\n\n")
	b.WriteString("*Generated by Conveyor*\n")
	return b.String()
}
