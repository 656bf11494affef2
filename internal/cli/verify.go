package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kingrea/conveyor/internal/config"
	"github.com/kingrea/conveyor/internal/logging"
	"github.com/kingrea/conveyor/internal/orchestrator"
	"github.com/kingrea/conveyor/internal/plan"
)

const verifySampleName = "VERIFY_SAMPLE.md"

// Verify runs the vault self-check: folder layout, key files, then a
// functional pass that seeds a sample intake file and runs one cycle. Every
// check prints a pass/fail line; the returned bool is the overall verdict.
// The error return is reserved for an unusable vault path.
func Verify(out io.Writer, vaultDir, scriptsOverride string) (bool, error) {
	cfg, err := config.New(vaultDir, scriptsOverride)
	if err != nil {
		return false, err
	}

	allPassed := true
	check := func(name string, ok bool, detail string) {
		mark := "✓"
		if !ok {
			mark = "✗"
			allPassed = false
		}
		fmt.Fprintf(out, "  %s %s: %s\n", mark, name, detail)
	}

	fmt.Fprintln(out, "VAULT STRUCTURE")
	folders := []struct {
		name string
		path string
	}{
		{"Inbox folder", cfg.InboxDir()},
		{"Needs_Action folder", cfg.IntakeDir()},
		{"Plans folder", cfg.PlansDir()},
		{"Pending_Approval folder", cfg.PendingApprovalDir()},
		{"Approved folder", cfg.ApprovedDir()},
		{"Done folder", cfg.DoneDir()},
		{"Logs folder", cfg.LogsDir()},
	}
	for _, folder := range folders {
		info, err := os.Stat(folder.path)
		check(folder.name, err == nil && info.IsDir(), folder.path)
	}

	fmt.Fprintln(out, "KEY FILES")
	files := []struct {
		name string
		path string
	}{
		{"Company Handbook", cfg.HandbookPath()},
		{"Business Goals", cfg.BusinessGoalsPath()},
	}
	for _, file := range files {
		_, err := os.Stat(file.path)
		check(file.name, err == nil, file.path)
	}

	fmt.Fprintln(out, "FUNCTIONAL")
	o, err := orchestrator.New(cfg, orchestrator.WithLogger(logging.Discard()))
	if err != nil {
		check("orchestrator", false, err.Error())
	} else {
		defer o.Close()
		check("orchestrator", true, "initialized")

		sample := filepath.Join(cfg.IntakeDir(), verifySampleName)
		planPath := filepath.Join(cfg.PlansDir(), plan.FileName(verifySampleName))
		if err := os.WriteFile(sample, []byte("self-check sample task\n"), 0o644); err != nil {
			check("sample intake file", false, err.Error())
		} else {
			o.RunOnce()
			_, planErr := os.Stat(planPath)
			check("plan drafted", planErr == nil, filepath.Base(planPath))
			_, dashErr := os.Stat(cfg.DashboardPath())
			check("dashboard written", dashErr == nil, cfg.DashboardPath())
			os.Remove(sample)
			os.Remove(planPath)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "VERIFICATION PASSED")
	} else {
		fmt.Fprintln(out, "VERIFICATION FAILED")
	}
	return allPassed, nil
}
