// Package plan builds the scaffold artifact the orchestrator derives from each
// intake file. The scaffold is inert: an external processing step fills in the
// objective and works the checklist; the engine only writes the frame.
package plan

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// FilePrefix derives a plan's identity from its source stem.
	FilePrefix = "PLAN_"

	// StatusPending is the status every freshly generated plan carries.
	StatusPending = "pending"

	typeActionPlan = "action_plan"
)

// FileName returns the plan filename for an intake file, PLAN_<stem>.md.
// Regenerating a plan for the same source overwrites the previous scaffold.
func FileName(sourceName string) string {
	stem := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	return FilePrefix + stem + ".md"
}

// Render produces the full plan document for one intake file.
func Render(sourceName string, now time.Time) ([]byte, error) {
	stem := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	meta := Meta{
		Created:    now,
		Status:     StatusPending,
		SourceFile: sourceName,
		Type:       typeActionPlan,
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Action Plan: %s\n\n", stem)
	b.WriteString("## Objective\n")
	b.WriteString("*Describe the main objective here*\n\n")
	b.WriteString("## Context\n")
	b.WriteString("*Summary of the situation based on the action file*\n\n")
	b.WriteString("## Steps\n")
	b.WriteString("- [ ] Analyze the request\n")
	b.WriteString("- [ ] Check Company_Handbook.md for applicable rules\n")
	b.WriteString("- [ ] Determine if approval is required\n")
	b.WriteString("- [ ] Execute action or create approval request\n")
	b.WriteString("- [ ] Log the action\n")
	b.WriteString("- [ ] Move to /Done when complete\n\n")
	b.WriteString("## Notes\n")
	b.WriteString("*Add any relevant notes here*\n\n")
	b.WriteString("## Approval Required?\n")
	b.WriteString("- [ ] Yes → Created file in /Pending_Approval\n")
	b.WriteString("- [ ] No → Can proceed autonomously\n")

	return WriteFrontMatter(meta, []byte(b.String()))
}
