// Package buildlog provides the diagnostic logger used while locating and
// building a project. Diagnostics go to stderr so they never mix with the
// status lines printed on stdout.
package buildlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

type logPtr struct{}

// ConsoleWriter renders zerolog JSON events as single coloured lines.
type ConsoleWriter struct {
	out      io.Writer
	colorize colorstring.Colorize
	buffer   strings.Builder
	lock     sync.Mutex
}

// NewConsoleWriter creates a ConsoleWriter that writes to out.
func NewConsoleWriter(out io.Writer, color bool) *ConsoleWriter {
	return &ConsoleWriter{
		out: out,
		colorize: colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: !color,
			Reset:   true,
		},
	}
}

func (w *ConsoleWriter) Write(p []byte) (int, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt map[string]interface{}
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	if err := d.Decode(&evt); err != nil {
		return 0, eris.Wrapf(err, "cannot decode event: %s", p)
	}

	w.buffer.Reset()
	switch evt["level"] {
	case "fatal", "error":
		w.buffer.WriteString("[red]")
	case "warn":
		w.buffer.WriteString("[yellow]")
	case "debug", "trace":
		w.buffer.WriteString("[blue]")
	default:
		w.buffer.WriteString("[green]")
	}

	if evt["level"] == "error" {
		w.buffer.WriteString("Error: ")
	}

	msg, _ := evt["message"].(string)
	w.buffer.WriteString(msg)

	// remaining fields in a stable order
	keys := make([]string, 0, len(evt))
	for name := range evt {
		switch name {
		case "level", "message", "time", "error":
			continue
		}
		keys = append(keys, name)
	}
	sort.Strings(keys)
	for _, name := range keys {
		w.buffer.WriteString(fmt.Sprintf(" %s=%v", name, evt[name]))
	}

	if errorDetails, ok := evt["error"].(string); ok {
		w.buffer.WriteString("\n")
		w.buffer.WriteString(errorDetails)
	}

	w.buffer.WriteString("\n")
	if _, err := io.WriteString(w.out, w.colorize.Color(w.buffer.String())); err != nil {
		return 0, err
	}
	return len(p), nil
}

// New returns a logger writing to out. Only warnings and errors are shown
// unless verbose is set.
func New(out io.Writer, verbose, color bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(NewConsoleWriter(out, color)).Level(level)
}

// WithLogger attaches logger to ctx.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, logPtr{}, logger)
}

// Log returns the logger stored in ctx, or a disabled logger if there is none.
func Log(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(logPtr{}).(*zerolog.Logger); ok {
		return logger
	}
	nop := zerolog.Nop()
	return &nop
}

func init() {
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, false)
	}
}
