package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/fatih/color"
)

// colorHandler prints compact colored lines for terminal use. Level
// filtering is delegated to the embedded handler; color is disabled
// automatically on non-terminal output.
type colorHandler struct {
	slog.Handler
	out *log.Logger
}

func newColorHandler(w io.Writer, level slog.Level) *colorHandler {
	return &colorHandler{
		Handler: slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}),
		out:     log.New(w, "", 0),
	}
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"
	switch r.Level {
	case slog.LevelDebug:
		level = color.MagentaString(level)
	case slog.LevelInfo:
		level = color.BlueString(level)
	case slog.LevelWarn:
		level = color.YellowString(level)
	case slog.LevelError:
		level = color.RedString(level)
	}

	attrs := ""
	r.Attrs(func(a slog.Attr) bool {
		attrs += fmt.Sprintf(" %s=%v", a.Key, a.Value.Any())
		return true
	})

	h.out.Println(r.Time.Format("[15:04:05.000]"), level, r.Message+attrs)
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &colorHandler{Handler: h.Handler.WithAttrs(attrs), out: h.out}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	return &colorHandler{Handler: h.Handler.WithGroup(name), out: h.out}
}

var logger = slog.New(newColorHandler(os.Stderr, slog.LevelInfo))

// initLogging reconfigures the global logger once flags are settled.
func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(newColorHandler(os.Stderr, level))
}
