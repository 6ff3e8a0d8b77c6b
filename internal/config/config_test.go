package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearNotesEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"NOTES_CONFIG", "NOTES_DATA_PATH", "NOTES_LISTEN_ADDR", "NOTES_PUBLIC_URL",
		"NOTES_AUTH_USER", "NOTES_AUTH_PASS", "NOTES_AUTH_FILE", "NOTES_AUTH_SECRET",
		"NOTES_TOKEN_TTL", "NOTES_IMPORT_RATE", "NOTES_IMPORT_BURST", "NOTES_MAX_UPLOAD_MB",
		"NOTES_DB_LOCK_TIMEOUT", "NOTES_LOG_PRETTY", "NOTES_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearNotesEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:8080" || cfg.TokenTTL != 24*time.Hour || cfg.ImportBurst != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AuthFilePath() != filepath.Join("data", "auth.txt") {
		t.Fatalf("unexpected auth file path %q", cfg.AuthFilePath())
	}
}

func TestLoadFileThenEnvironment(t *testing.T) {
	clearNotesEnv(t)
	path := filepath.Join(t.TempDir(), "notes.yaml")
	yamlData := "data_path: /srv/notes\nlisten_addr: :9000\ntoken_ttl: 2h\nimport_rate: 12\nlog_pretty: true\n"
	if err := os.WriteFile(path, []byte(yamlData), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("NOTES_CONFIG", path)
	t.Setenv("NOTES_LISTEN_ADDR", ":7000")
	t.Setenv("NOTES_PUBLIC_URL", "https://notes.example/")
	t.Setenv("NOTES_IMPORT_RATE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataPath != "/srv/notes" || cfg.TokenTTL != 2*time.Hour || !cfg.LogPretty {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.ListenAddr != ":7000" {
		t.Fatalf("expected env override, got %q", cfg.ListenAddr)
	}
	if cfg.ImportRate != 12 {
		t.Fatalf("expected bad env value to keep file value, got %d", cfg.ImportRate)
	}
	if cfg.PublicURL != "https://notes.example" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.PublicURL)
	}
	if cfg.DBPath() != filepath.Join("/srv/notes", "notes.sqlite") {
		t.Fatalf("unexpected db path %q", cfg.DBPath())
	}
}

func TestLoadRejectsBadFile(t *testing.T) {
	clearNotesEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("token_ttl: forever\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("NOTES_CONFIG", path)
	if _, err := Load(); err == nil {
		t.Fatal("expected error for bad duration")
	}
}

func TestEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	clearNotesEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := ensureEnvFile(path); err != nil {
		t.Fatalf("ensureEnvFile: %v", err)
	}
	t.Setenv("NOTES_DATA_PATH", "/explicit")
	if err := loadEnvFile(path); err != nil {
		t.Fatalf("loadEnvFile: %v", err)
	}
	if got := os.Getenv("NOTES_DATA_PATH"); got != "/explicit" {
		t.Fatalf("expected environment to win, got %q", got)
	}
	if os.Getenv("NOTES_AUTH_SECRET") == "" {
		t.Fatal("expected generated secret to be loaded")
	}
}
