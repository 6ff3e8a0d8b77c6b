package web

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
)

// TestMain routes request logs to NOTES_TEST_LOG when set, else stderr at NOTES_LOG_LEVEL.
func TestMain(m *testing.M) {
	out, closeOut := testLogOutput(os.Getenv("NOTES_TEST_LOG"))
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: testLogLevel(os.Getenv("NOTES_LOG_LEVEL")),
	})))
	code := m.Run()
	closeOut()
	os.Exit(code)
}

// testLogLevel accepts slog level names; anything else keeps test output to warnings.
func testLogLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelWarn
	}
	return level
}

func testLogOutput(path string) (io.Writer, func()) {
	path = strings.TrimSpace(path)
	if path == "" {
		return os.Stderr, func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return os.Stderr, func() {}
	}
	return f, func() { _ = f.Close() }
}

func TestTestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":  slog.LevelDebug,
		" INFO ": slog.LevelInfo,
		"error":  slog.LevelError,
		"":       slog.LevelWarn,
		"loud":   slog.LevelWarn,
	}
	for in, want := range cases {
		if got := testLogLevel(in); got != want {
			t.Fatalf("testLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
