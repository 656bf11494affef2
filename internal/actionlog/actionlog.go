// Package actionlog persists every state transition as one JSON line in a
// date-partitioned file under Logs/. Files are append-only; a day's entries
// are never rewritten.
package actionlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Result is the outcome recorded on an entry.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

const dayLayout = "2006-01-02"

// Entry is one immutable action record.
type Entry struct {
	Timestamp  string `json:"timestamp"`
	ActionType string `json:"action_type"`
	Actor      string `json:"actor"`
	Target     string `json:"target"`
	Result     Result `json:"result"`
}

// Log appends entries to Logs/<YYYY-MM-DD>.jsonl.
type Log struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// Option customizes a Log during construction.
type Option func(*Log)

// WithClock overrides the clock used for timestamps and day partitioning.
func WithClock(clock func() time.Time) Option {
	return func(l *Log) {
		l.now = clock
	}
}

// New creates a log rooted at the given directory.
func New(dir string, opts ...Option) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("actionlog: ensure log dir: %w", err)
	}
	l := &Log{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Append records one entry in the current day's file. The timestamp is filled
// in when empty so callers normally only supply the what/who fields.
func (l *Log) Append(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if entry.Timestamp == "" {
		entry.Timestamp = now.Format(time.RFC3339)
	}
	if entry.Result == "" {
		entry.Result = ResultSuccess
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("actionlog: encode entry: %w", err)
	}
	path := l.dayPath(now)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("actionlog: open %s: %w", path, err)
	}
	defer file.Close()
	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("actionlog: append to %s: %w", path, err)
	}
	return nil
}

// Success records a successful action.
func (l *Log) Success(actor, actionType, target string) error {
	return l.Append(Entry{ActionType: actionType, Actor: actor, Target: target, Result: ResultSuccess})
}

// Failure records a failed action.
func (l *Log) Failure(actor, actionType, target string) error {
	return l.Append(Entry{ActionType: actionType, Actor: actor, Target: target, Result: ResultFailure})
}

// Day returns every entry recorded on the given date, in insertion order.
// A missing day file is an empty day, not an error.
func (l *Log) Day(date time.Time) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.dayPath(date))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("actionlog: open day file: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			// A torn trailing line from a crashed writer is skipped, not fatal.
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("actionlog: scan day file: %w", err)
	}
	return entries, nil
}

// Tail returns up to n of the most recent entries for the given date.
func (l *Log) Tail(date time.Time, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	entries, err := l.Day(date)
	if err != nil {
		return nil, err
	}
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

func (l *Log) dayPath(date time.Time) string {
	return filepath.Join(l.dir, date.Format(dayLayout)+".jsonl")
}
