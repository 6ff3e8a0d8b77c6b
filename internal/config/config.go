package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DataPath      string
	ListenAddr    string
	PublicURL     string
	AuthUser      string
	AuthPass      string
	AuthFile      string
	AuthSecret    string
	TokenTTL      time.Duration
	ImportRate    int
	ImportBurst   int
	MaxUploadMB   int
	DBLockTimeout time.Duration
	LogPretty     bool
	LogLevel      string
}

// fileConfig mirrors Config for the optional YAML file named by NOTES_CONFIG.
type fileConfig struct {
	DataPath      string `yaml:"data_path"`
	ListenAddr    string `yaml:"listen_addr"`
	PublicURL     string `yaml:"public_url"`
	AuthUser      string `yaml:"auth_user"`
	AuthFile      string `yaml:"auth_file"`
	TokenTTL      string `yaml:"token_ttl"`
	ImportRate    int    `yaml:"import_rate"`
	ImportBurst   int    `yaml:"import_burst"`
	MaxUploadMB   int    `yaml:"max_upload_mb"`
	DBLockTimeout string `yaml:"db_lock_timeout"`
	LogPretty     bool   `yaml:"log_pretty"`
	LogLevel      string `yaml:"log_level"`
}

func defaults() Config {
	return Config{
		DataPath:      "./data",
		ListenAddr:    "127.0.0.1:8080",
		TokenTTL:      24 * time.Hour,
		ImportRate:    6,
		ImportBurst:   3,
		MaxUploadMB:   32,
		DBLockTimeout: 5 * time.Second,
		LogLevel:      "info",
	}
}

// Load builds the config from defaults, then the YAML file, then the environment.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("NOTES_CONFIG"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.DataPath = envOr("NOTES_DATA_PATH", cfg.DataPath)
	cfg.ListenAddr = envOr("NOTES_LISTEN_ADDR", cfg.ListenAddr)
	cfg.PublicURL = strings.TrimRight(envOr("NOTES_PUBLIC_URL", cfg.PublicURL), "/")
	cfg.AuthUser = envOr("NOTES_AUTH_USER", cfg.AuthUser)
	cfg.AuthPass = os.Getenv("NOTES_AUTH_PASS")
	cfg.AuthFile = envOr("NOTES_AUTH_FILE", cfg.AuthFile)
	cfg.AuthSecret = os.Getenv("NOTES_AUTH_SECRET")
	cfg.TokenTTL = parseDurationOr("NOTES_TOKEN_TTL", cfg.TokenTTL)
	cfg.ImportRate = parseIntOr("NOTES_IMPORT_RATE", cfg.ImportRate)
	cfg.ImportBurst = parseIntOr("NOTES_IMPORT_BURST", cfg.ImportBurst)
	cfg.MaxUploadMB = parseIntOr("NOTES_MAX_UPLOAD_MB", cfg.MaxUploadMB)
	cfg.DBLockTimeout = parseDurationOr("NOTES_DB_LOCK_TIMEOUT", cfg.DBLockTimeout)
	cfg.LogPretty = parseBoolOr("NOTES_LOG_PRETTY", cfg.LogPretty)
	cfg.LogLevel = envOr("NOTES_LOG_LEVEL", cfg.LogLevel)
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	setString(&cfg.DataPath, fc.DataPath)
	setString(&cfg.ListenAddr, fc.ListenAddr)
	setString(&cfg.PublicURL, fc.PublicURL)
	setString(&cfg.AuthUser, fc.AuthUser)
	setString(&cfg.AuthFile, fc.AuthFile)
	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.TokenTTL != "" {
		d, err := time.ParseDuration(fc.TokenTTL)
		if err != nil {
			return fmt.Errorf("config token_ttl: %w", err)
		}
		cfg.TokenTTL = d
	}
	if fc.DBLockTimeout != "" {
		d, err := time.ParseDuration(fc.DBLockTimeout)
		if err != nil {
			return fmt.Errorf("config db_lock_timeout: %w", err)
		}
		cfg.DBLockTimeout = d
	}
	if fc.ImportRate > 0 {
		cfg.ImportRate = fc.ImportRate
	}
	if fc.ImportBurst > 0 {
		cfg.ImportBurst = fc.ImportBurst
	}
	if fc.MaxUploadMB > 0 {
		cfg.MaxUploadMB = fc.MaxUploadMB
	}
	cfg.LogPretty = cfg.LogPretty || fc.LogPretty
	return nil
}

func (c Config) DBPath() string {
	return filepath.Join(c.DataPath, "notes.sqlite")
}

func (c Config) StoragePath() string {
	return filepath.Join(c.DataPath, "storage")
}

// AuthFilePath is the configured auth file, or auth.txt in the data directory.
func (c Config) AuthFilePath() string {
	if c.AuthFile != "" {
		return c.AuthFile
	}
	return filepath.Join(c.DataPath, "auth.txt")
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func parseIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func parseBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
