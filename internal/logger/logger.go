// Package logger configures logrus for shelf. The interactive session owns
// the terminal, so entries go to a log file unless a writer is supplied.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SlowThreshold marks a tracked operation as slow.
const SlowThreshold = 500 * time.Millisecond

// Config selects the level and destination.
type Config struct {
	Level  string
	File   string    // used when Writer is nil
	Writer io.Writer // takes precedence over File
}

// New builds a logger. The returned closer releases the log file, if any.
func New(cfg Config) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()
	log.SetLevel(ParseLevel(cfg.Level))

	out := cfg.Writer
	closer := io.Closer(nopCloser{})
	if out == nil {
		path := strings.TrimSpace(cfg.File)
		if path == "" {
			return nil, nil, fmt.Errorf("log file path is empty")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = file
		closer = file
	}
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   cfg.Writer == nil,
	})
	return log, closer, nil
}

// ParseLevel converts a level name, defaulting to info.
func ParseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Session tags every entry with a fresh session id.
func Session(log *logrus.Logger) *logrus.Entry {
	return log.WithField("session", uuid.NewString())
}

// Discard returns an entry that writes nowhere.
func Discard() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// Track logs msg with the elapsed time when the returned func runs.
func Track(entry *logrus.Entry, msg string) func() {
	start := time.Now()
	return func() {
		dur := time.Since(start)
		e := entry.WithField("duration", dur.String())
		if dur > SlowThreshold {
			e.Warnf("%s completed (slow)", msg)
		} else {
			e.Debugf("%s completed", msg)
		}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
