// Package logging builds the slog logger of the service and the CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects where log records go.
//
// Filename "-" or "" writes to stdout, "stderr" to stderr, "." discards
// everything, anything else is a file rotated by size.
type Config struct {
	Filename   string `yaml:"filename"`
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text or json
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
	Append     bool   `yaml:"append"`
}

var PresetConfigStdout = Config{
	Filename: "-",
	Level:    "INFO",
	Format:   "text",
	Append:   true,
}

// ParseLevel maps TRACE, DEBUG, INFO, WARN and ERROR to slog levels.
// Unknown names are INFO.
func ParseLevel(name string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE", "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New returns the logger described by cfg and a closer for its output.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	w, closer, err := writer(cfg)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), closer, nil
}

func writer(cfg Config) (io.Writer, io.Closer, error) {
	switch cfg.Filename {
	case "", "-":
		return os.Stdout, nopCloser{}, nil
	case "stderr":
		return os.Stderr, nopCloser{}, nil
	case ".":
		return io.Discard, nopCloser{}, nil
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
	if !cfg.Append {
		if err := lj.Rotate(); err != nil {
			return nil, nil, fmt.Errorf("rotate %s: %w", cfg.Filename, err)
		}
	}
	return lj, lj, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
