package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// newLogger writes human-readable lines to stderr and, when logFile is set,
// JSON lines to that file as well. The returned func closes the file.
func newLogger(level, logFile string) (zerolog.Logger, func() error, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	var (
		w       io.Writer = console
		closeFn           = func() error { return nil }
	)
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return zerolog.Nop(), nil, err
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		w = zerolog.MultiLevelWriter(console, f)
		closeFn = f.Close
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), closeFn, nil
}
