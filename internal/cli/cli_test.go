package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kingrea/conveyor/internal/config"
	"github.com/kingrea/conveyor/internal/plan"
)

func newVault(t *testing.T) (vault, scripts string) {
	t.Helper()
	root := t.TempDir()
	vault = filepath.Join(root, "vault")
	scripts = filepath.Join(root, "scripts")
	require.NoError(t, os.MkdirAll(vault, 0o755))
	return vault, scripts
}

func runRoot(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestRootWithoutArgsShowsUsage(t *testing.T) {
	require.NoError(t, runRoot(t))
}

func TestRootWithoutActionFlagsShowsUsage(t *testing.T) {
	vault, _ := newVault(t)
	// A vault alone requests nothing; usage is not an error.
	require.NoError(t, runRoot(t, vault))
}

func TestRootMissingVaultFails(t *testing.T) {
	err := runRoot(t, filepath.Join(t.TempDir(), "nope"), "--process")
	require.Error(t, err)
}

func TestRootProcessDraftsPlan(t *testing.T) {
	vault, scripts := newVault(t)
	require.NoError(t, os.MkdirAll(filepath.Join(vault, "Needs_Action"), 0o755))
	intake := filepath.Join(vault, "Needs_Action", "task.md")
	require.NoError(t, os.WriteFile(intake, []byte("do it"), 0o644))

	require.NoError(t, runRoot(t, vault, "--scripts", scripts, "--process"))

	_, err := os.Stat(filepath.Join(vault, "Plans", plan.FileName("task.md")))
	require.NoError(t, err)
	// The intake file must still be in place.
	_, err = os.Stat(intake)
	require.NoError(t, err)
}

func TestRootDashboardFlag(t *testing.T) {
	vault, scripts := newVault(t)
	require.NoError(t, runRoot(t, vault, "--scripts", scripts, "--dashboard"))

	content, err := os.ReadFile(filepath.Join(scripts, "Dashboard.md"))
	require.NoError(t, err)
	require.Contains(t, string(content), "Conveyor Dashboard")
}

func TestVerifyPassesOnSeededVault(t *testing.T) {
	vault, scripts := newVault(t)
	cfg, err := config.New(vault, scripts)
	require.NoError(t, err)
	require.NoError(t, cfg.InitVault())
	require.NoError(t, os.WriteFile(cfg.HandbookPath(), []byte("rules"), 0o644))
	require.NoError(t, os.WriteFile(cfg.BusinessGoalsPath(), []byte("goals"), 0o644))

	var out bytes.Buffer
	ok, err := Verify(&out, vault, scripts)
	require.NoError(t, err)
	require.True(t, ok, out.String())
	require.Contains(t, out.String(), "VERIFICATION PASSED")

	// The seeded sample and its plan are cleaned up.
	entries, err := os.ReadDir(cfg.IntakeDir())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestVerifyFailsOnBareVault(t *testing.T) {
	vault, scripts := newVault(t)

	var out bytes.Buffer
	ok, err := Verify(&out, vault, scripts)
	require.NoError(t, err)
	require.False(t, ok)
	require.Contains(t, out.String(), "VERIFICATION FAILED")
	require.Contains(t, out.String(), "✗")
}

func TestVerifyMissingVaultErrors(t *testing.T) {
	var out bytes.Buffer
	_, err := Verify(&out, filepath.Join(t.TempDir(), "missing"), "")
	require.ErrorIs(t, err, config.ErrVaultMissing)
}
