// Package logging builds the process logger: JSON lines on stdout, and
// optionally a size-rotated copy on disk.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Level string
	// File enables a rotating log file in addition to stdout.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ParseLevel accepts debug, info, warn and error, or a numeric slog level.
// Unknown values mean info.
func ParseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return slog.Level(n)
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// New returns the logger and a closer for the log file, if any.
func New(stdout io.Writer, opts Options) (*slog.Logger, io.Closer) {
	var w io.Writer = stdout
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		_ = os.MkdirAll(filepath.Dir(opts.File), 0755)
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 50),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		}
		w = io.MultiWriter(stdout, rotator)
		closer = rotator
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)}))
	return logger, closer
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
