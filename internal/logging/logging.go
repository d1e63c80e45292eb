// Package logging builds the process logger. Output goes to stderr unless a
// writer is given, so the stdio transport's stdout stays protocol-only.
package logging

import (
	"io"
	"log/slog"

	"github.com/prometheus/common/promslog"
)

// New returns a logger for the given level (debug, info, warn, error) and
// format (logfmt, json). A nil w means stderr.
func New(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl := promslog.NewLevel()
	if err := lvl.Set(level); err != nil {
		return nil, err
	}

	f := promslog.NewFormat()
	if err := f.Set(format); err != nil {
		return nil, err
	}

	return promslog.New(&promslog.Config{
		Level:  lvl,
		Format: f,
		Style:  promslog.GoKitStyle,
		Writer: w,
	}), nil
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return promslog.NewNopLogger()
}
