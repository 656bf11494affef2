package actionlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAppendIsAppendOnly(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	log, err := New(dir, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new log: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := log.Success("orchestrator", "process_file", "item.md"); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := log.Day(now)
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	for _, entry := range entries {
		if entry.Result != ResultSuccess {
			t.Fatalf("result = %q", entry.Result)
		}
		if entry.Timestamp == "" {
			t.Fatal("timestamp not filled in")
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "2026-03-09.jsonl"))
	if err != nil {
		t.Fatalf("read day file: %v", err)
	}
	if got := strings.Count(string(data), "\n"); got != 3 {
		t.Fatalf("line count = %d, want 3", got)
	}
}

func TestDayPartitioning(t *testing.T) {
	dir := t.TempDir()
	current := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)
	log, err := New(dir, WithClock(func() time.Time { return current }))
	if err != nil {
		t.Fatalf("new log: %v", err)
	}
	if err := log.Success("orchestrator", "execute_approved", "a.md"); err != nil {
		t.Fatal(err)
	}
	current = current.Add(2 * time.Minute) // crosses midnight
	if err := log.Failure("orchestrator", "execute_approved", "b.md"); err != nil {
		t.Fatal(err)
	}

	day1, _ := log.Day(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))
	day2, _ := log.Day(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	if len(day1) != 1 || len(day2) != 1 {
		t.Fatalf("day splits = %d/%d, want 1/1", len(day1), len(day2))
	}
	if day2[0].Result != ResultFailure {
		t.Fatalf("result = %q", day2[0].Result)
	}
}

func TestDayMissingFileIsEmpty(t *testing.T) {
	log, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new log: %v", err)
	}
	entries, err := log.Day(time.Now())
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty day, got %d entries", len(entries))
	}
}

func TestTailReturnsRecentEntries(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	log, err := New(t.TempDir(), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new log: %v", err)
	}
	targets := []string{"a.md", "b.md", "c.md", "d.md"}
	for _, target := range targets {
		if err := log.Success("watcher", "create_action_file", target); err != nil {
			t.Fatal(err)
		}
	}
	tail, err := log.Tail(now, 2)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(tail) != 2 {
		t.Fatalf("len(tail) = %d, want 2", len(tail))
	}
	if tail[0].Target != "c.md" || tail[1].Target != "d.md" {
		t.Fatalf("tail order = %s, %s", tail[0].Target, tail[1].Target)
	}
}
