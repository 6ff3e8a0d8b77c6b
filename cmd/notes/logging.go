package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"golang.org/x/term"

	"gnotes/internal/config"
)

// setupLogger installs the default slog handler. With NOTES_DEV set, records are also
// appended to dev.log at debug level. The returned func closes that file.
func setupLogger(cfg config.Config) func() {
	level := parseLogLevel(cfg.LogLevel)
	var console slog.Handler
	if cfg.LogPretty {
		console = newPrettyHandler(os.Stdout, level)
	} else {
		console = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	if strings.TrimSpace(os.Getenv("NOTES_DEV")) == "" {
		slog.SetDefault(slog.New(console))
		return func() {}
	}
	file, err := os.OpenFile("dev.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		slog.SetDefault(slog.New(console))
		slog.Error("open log file", "path", "dev.log", "err", err)
		return func() {}
	}
	_, _ = fmt.Fprintf(file, "=== gnotes dev log start %s ===\n", time.Now().Format(time.RFC3339))
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(&teeHandler{handlers: []slog.Handler{console, fileHandler}}))
	return func() { _ = file.Close() }
}

func parseLogLevel(raw string) slog.Leveler {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}
	return level
}

func newPrettyHandler(w *os.File, level slog.Leveler) slog.Handler {
	var out io.Writer = colorable.NewColorable(w)
	return tint.NewHandler(out, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !term.IsTerminal(int(w.Fd())),
	})
}

type teeHandler struct {
	handlers []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range t.handlers {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, 0, len(t.handlers))
	for _, h := range t.handlers {
		out = append(out, h.WithAttrs(attrs))
	}
	return &teeHandler{handlers: out}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, 0, len(t.handlers))
	for _, h := range t.handlers {
		out = append(out, h.WithGroup(name))
	}
	return &teeHandler{handlers: out}
}
