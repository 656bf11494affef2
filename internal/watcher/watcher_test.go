package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/conveyor/internal/config"
	"github.com/kingrea/conveyor/internal/logging"
)

type fakeSource struct {
	name     string
	items    []SourceItem
	checkErr error
	failIDs  map[string]bool
	created  []string
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) CheckForUpdates() ([]SourceItem, error) {
	return f.items, f.checkErr
}

func (f *fakeSource) CreateActionFile(item SourceItem) (string, error) {
	if f.failIDs[item.ID] {
		return "", fmt.Errorf("boom: %s", item.ID)
	}
	f.created = append(f.created, item.ID)
	return "/intake/" + item.ID + ".md", nil
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	vault := t.TempDir()
	cfg, err := config.New(vault, filepath.Join(vault, "scripts"))
	require.NoError(t, err)
	require.NoError(t, cfg.InitVault())
	return cfg
}

func TestSanitizeIdempotent(t *testing.T) {
	cases := map[string]string{
		`re: "urgent" <now>`:   `re_ _urgent_ _now_`,
		"  padded  ":           "padded",
		"clean_name":           "clean_name",
		"a/b\\c|d?e*f":         "a_b_c_d_e_f",
		"全角？と＊の文字":             "全角_と_の文字",
		"path：to＼somewhere／else": "path_to_somewhere_else",
	}
	for input, want := range cases {
		got := Sanitize(input)
		assert.Equal(t, want, got, "Sanitize(%q)", input)
		assert.Equal(t, got, Sanitize(got), "Sanitize should be idempotent for %q", input)
	}
}

func TestProcessedSetSurvivesRestart(t *testing.T) {
	logsDir := t.TempDir()

	set, err := LoadProcessedSet(logsDir, "")
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len(), "first run starts empty")

	set.Add("a")
	set.Add("b")
	require.NoError(t, set.Save())

	// Simulated restart.
	reloaded, err := LoadProcessedSet(logsDir, "")
	require.NoError(t, err)
	assert.True(t, reloaded.Has("a"))
	assert.True(t, reloaded.Has("b"))
	assert.False(t, reloaded.Has("c"))
}

func TestProcessedSetSaveRewritesWholesale(t *testing.T) {
	logsDir := t.TempDir()
	set, err := LoadProcessedSet(logsDir, "custom_state.txt")
	require.NoError(t, err)
	set.Add("z")
	set.Add("a")
	require.NoError(t, set.Save())
	require.NoError(t, set.Save())

	data, err := os.ReadFile(filepath.Join(logsDir, "custom_state.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a\nz", string(data), "sorted, no duplicate rewrite artifacts")
}

func TestRunCyclePartialBatch(t *testing.T) {
	cfg := newTestConfig(t)
	source := &fakeSource{
		name: "fake",
		items: []SourceItem{
			{ID: "one"}, {ID: "two"}, {ID: "three"},
		},
		failIDs: map[string]bool{"two": true},
	}
	w, err := New(cfg, source, WithLogger(logging.Discard()))
	require.NoError(t, err)

	created := w.RunCycle()
	assert.Equal(t, 2, created, "one failing item must not stop the batch")
	assert.Equal(t, []string{"one", "three"}, source.created)
}

func TestRunCycleCheckFailureIsNonFatal(t *testing.T) {
	cfg := newTestConfig(t)
	source := &fakeSource{name: "fake", checkErr: fmt.Errorf("source offline")}
	w, err := New(cfg, source, WithLogger(logging.Discard()))
	require.NoError(t, err)
	assert.Equal(t, 0, w.RunCycle())
}

func TestDropFolderSourceDedupesAcrossRestart(t *testing.T) {
	cfg := newTestConfig(t)
	dropDir := cfg.InboxDir()
	require.NoError(t, os.WriteFile(filepath.Join(dropDir, "invoice.txt"), []byte("pay me"), 0o644))

	source, err := NewDropFolderSource(cfg, "", "", "")
	require.NoError(t, err)

	items, err := source.CheckForUpdates()
	require.NoError(t, err)
	require.Len(t, items, 1)

	path, err := source.CreateActionFile(items[0])
	require.NoError(t, err)
	assert.FileExists(t, path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "pay me")

	// Same item must not surface again, even for a fresh source instance.
	again, err := source.CheckForUpdates()
	require.NoError(t, err)
	assert.Empty(t, again)

	restarted, err := NewDropFolderSource(cfg, "", "", "")
	require.NoError(t, err)
	afterRestart, err := restarted.CheckForUpdates()
	require.NoError(t, err)
	assert.Empty(t, afterRestart, "processed IDs must persist between runs")
}

func TestDropFolderSourceSkipsHiddenAndDirs(t *testing.T) {
	cfg := newTestConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InboxDir(), ".hidden"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.InboxDir(), "subdir"), 0o755))

	source, err := NewDropFolderSource(cfg, "", "", "")
	require.NoError(t, err)
	items, err := source.CheckForUpdates()
	require.NoError(t, err)
	assert.Empty(t, items)
}
