// Package logutils builds the process logger.
package logutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Output formats accepted by New.
const (
	FormatAuto    = "auto"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures New.
type Options struct {
	// Level is one of: debug, info, warn, error, fatal.
	Level string
	// File, when set, receives JSON logs instead of stderr.
	File string
	// Format selects JSON or console output for stderr. Auto picks console
	// when stderr is a terminal.
	Format string
}

// New returns a logger and a closer for any file it opened.
func New(opts Options) (zerolog.Logger, func(), error) {
	closer := func() {}

	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Logger{}, closer, err
	}

	var writer io.Writer
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return zerolog.Logger{}, closer, fmt.Errorf("create logs dir: %w", err)
		}

		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, closer, err
		}
		closer = func() { _ = f.Close() }
		writer = f
	} else {
		w, err := stderrWriter(opts.Format, term.IsTerminal(int(os.Stderr.Fd())))
		if err != nil {
			return zerolog.Logger{}, closer, err
		}
		writer = w
	}

	l := zerolog.New(writer).
		With().
		Timestamp().
		Logger().
		Level(lvl)

	return l, closer, nil
}

func stderrWriter(format string, isTTY bool) (io.Writer, error) {
	return formatWriter(os.Stderr, format, isTTY)
}

func formatWriter(out io.Writer, format string, isTTY bool) (io.Writer, error) {
	switch format {
	case "", FormatAuto:
		if isTTY {
			return console(out), nil
		}
		return out, nil
	case FormatJSON:
		return out, nil
	case FormatConsole:
		return console(out), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func console(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
}
