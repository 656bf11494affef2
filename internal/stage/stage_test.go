package stage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/conveyor/internal/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	vault := t.TempDir()
	cfg, err := config.New(vault, filepath.Join(vault, "scripts"))
	require.NoError(t, err)
	require.NoError(t, cfg.InitVault())
	return NewStore(cfg)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestListSkipsNonMarkdown(t *testing.T) {
	store := newTestStore(t)
	writeFile(t, filepath.Join(store.Dir(StageIntake), "b.md"), "two")
	writeFile(t, filepath.Join(store.Dir(StageIntake), "a.md"), "one")
	writeFile(t, filepath.Join(store.Dir(StageIntake), "notes.txt"), "skip")
	require.NoError(t, os.MkdirAll(filepath.Join(store.Dir(StageIntake), "sub.md"), 0o755))

	entries, err := store.List(StageIntake)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.md", entries[0].Name)
	assert.Equal(t, "b.md", entries[1].Name)
}

func TestMoveIsAtomicAndExclusive(t *testing.T) {
	store := newTestStore(t)
	writeFile(t, filepath.Join(store.Dir(StageApproved), "request.md"), "payload")

	require.NoError(t, store.Move("request.md", StageApproved, StageDone))

	_, err := os.Stat(filepath.Join(store.Dir(StageApproved), "request.md"))
	assert.True(t, os.IsNotExist(err), "source should be gone after move")
	_, err = os.Stat(filepath.Join(store.Dir(StageDone), "request.md"))
	assert.NoError(t, err, "destination should exist after move")

	st, ok := store.Locate("request.md")
	require.True(t, ok)
	assert.Equal(t, StageDone, st)
}

func TestMoveRefusesToClobber(t *testing.T) {
	store := newTestStore(t)
	writeFile(t, filepath.Join(store.Dir(StageApproved), "request.md"), "new")
	writeFile(t, filepath.Join(store.Dir(StageDone), "request.md"), "old")

	err := store.Move("request.md", StageApproved, StageDone)
	require.ErrorIs(t, err, ErrDestinationExists)

	// Failed move leaves the source exactly where it was.
	data, readErr := os.ReadFile(filepath.Join(store.Dir(StageApproved), "request.md"))
	require.NoError(t, readErr)
	assert.Equal(t, "new", string(data))
}

func TestMoveMissingSourceFailsLoudly(t *testing.T) {
	store := newTestStore(t)
	err := store.Move("ghost.md", StageApproved, StageDone)
	assert.Error(t, err)
}

func TestCountDoneToday(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	writeFile(t, filepath.Join(store.Dir(StageDone), "today.md"), "x")
	writeFile(t, filepath.Join(store.Dir(StageDone), "old.md"), "x")
	yesterday := now.Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.Dir(StageDone), "old.md"), yesterday, yesterday))

	assert.Equal(t, 1, store.CountDoneToday(now))
}

func TestLocateUnknown(t *testing.T) {
	store := newTestStore(t)
	st, ok := store.Locate("nowhere.md")
	assert.False(t, ok)
	assert.Equal(t, StageUnknown, st)
}
