// Package logging builds the process logger shared by the orchestrator and
// watcher binaries. Each process constructs its own logger at startup and
// injects it; there is no package-global logger, which keeps components
// testable in isolation.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// New creates a logger named after the owning process that writes to both
// Logs/<name>_<YYYYMMDD>.log and stderr. The caller owns the returned closer.
func New(name, logsDir string) (*logrus.Logger, io.Closer, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", name, time.Now().Format("20060102")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: open log file: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.MultiWriter(file, os.Stderr))
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(levelFromEnv())
	return logger, file, nil
}

// Discard returns a logger that drops everything. Used by tests and as a
// fallback when a component is constructed without a logger.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func levelFromEnv() logrus.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "DEBUG":
		return logrus.DebugLevel
	case "WARN":
		return logrus.WarnLevel
	case "INFO", "":
		return logrus.InfoLevel
	default:
		return logrus.InfoLevel
	}
}
