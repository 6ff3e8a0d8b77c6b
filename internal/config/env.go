package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

const envFileName = ".env"

// InitEnvFile creates .env with a fresh token secret when missing, then loads it.
// Variables already set in the environment win.
func InitEnvFile() error {
	if err := ensureEnvFile(envFileName); err != nil {
		return err
	}
	return loadEnvFile(envFileName)
}

// LoadEnvFile loads .env when present and never creates it.
func LoadEnvFile() error {
	err := loadEnvFile(envFileName)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func ensureEnvFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	secret, err := randomSecret()
	if err != nil {
		return err
	}
	content := []string{
		"NOTES_DATA_PATH=./data",
		"NOTES_AUTH_SECRET=" + secret,
		"",
	}
	return os.WriteFile(path, []byte(strings.Join(content, "\n")), 0o600)
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(buf), nil
}

func loadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		if !ok || key == "" {
			continue
		}
		val = strings.Trim(strings.TrimSpace(val), `"'`)
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}
	return nil
}
