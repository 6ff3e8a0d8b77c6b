package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile reads user:hash lines. Blank lines and # comments are ignored.
func LoadFile(path string) (map[string]*PasswordHash, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open auth file: %w", err)
	}
	defer f.Close()

	users := make(map[string]*PasswordHash)
	scanner := bufio.NewScanner(f)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		user, hash, ok, err := parseAuthLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("auth line %d: %w", lineNum, err)
		}
		if !ok {
			continue
		}
		if _, exists := users[user]; exists {
			return nil, fmt.Errorf("duplicate user %q in auth file", user)
		}
		parsed, err := ParsePasswordHash(hash)
		if err != nil {
			return nil, fmt.Errorf("auth line %d: %w", lineNum, err)
		}
		users[user] = parsed
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read auth file: %w", err)
	}
	return users, nil
}

func parseAuthLine(raw string) (user, hash string, ok bool, err error) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false, nil
	}
	user, hash, found := strings.Cut(line, ":")
	user = strings.TrimSpace(user)
	hash = strings.TrimSpace(hash)
	if !found || user == "" || hash == "" {
		return "", "", false, errors.New("expected user:hash")
	}
	return user, hash, true, nil
}

// ValidUsername rejects names that cannot live in the auth file or a storage key.
func ValidUsername(user string) error {
	switch {
	case strings.TrimSpace(user) == "":
		return errors.New("username must not be empty")
	case strings.ContainsAny(user, ":/\\"):
		return errors.New("username must not contain ':', '/' or '\\'")
	case user != strings.TrimSpace(user):
		return errors.New("username must not have surrounding spaces")
	case user == "." || user == "..":
		return errors.New("username must not be a dot path")
	}
	return nil
}

// UserExists reports whether user is present in the auth file. A missing file holds no users.
func UserExists(path, user string) (bool, error) {
	users, err := LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	_, ok := users[user]
	return ok, nil
}

// UpsertFile sets the hash for user, keeping every other line as it was.
func UpsertFile(path, user, hash string) error {
	if err := ValidUsername(user); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create auth dir: %w", err)
	}

	var lines []string
	replaced := false
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read auth file: %w", err)
	}
	if len(data) > 0 {
		for i, raw := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			name, _, ok, perr := parseAuthLine(raw)
			if perr != nil {
				return fmt.Errorf("auth line %d: %w", i+1, perr)
			}
			if ok && name == user {
				lines = append(lines, user+":"+hash)
				replaced = true
				continue
			}
			lines = append(lines, raw)
		}
	}
	if !replaced {
		lines = append(lines, user+":"+hash)
	}
	return writeLines(path, lines)
}

// RemoveFromFile drops user from the auth file. It reports whether the user was present.
func RemoveFromFile(path, user string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read auth file: %w", err)
	}
	var lines []string
	removed := false
	for i, raw := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		name, _, ok, perr := parseAuthLine(raw)
		if perr != nil {
			return false, fmt.Errorf("auth line %d: %w", i+1, perr)
		}
		if ok && name == user {
			removed = true
			continue
		}
		lines = append(lines, raw)
	}
	if !removed {
		return false, nil
	}
	return true, writeLines(path, lines)
}

// writeLines replaces path atomically with mode 0600.
func writeLines(path string, lines []string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".auth.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp auth file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod auth file: %w", err)
	}
	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write auth file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close auth file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace auth file: %w", err)
	}
	return nil
}
