package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := HashPassword("secret-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	parsed, err := ParsePasswordHash(hash)
	if err != nil {
		t.Fatalf("ParsePasswordHash: %v", err)
	}
	if !parsed.Verify("secret-password") {
		t.Fatal("expected password to verify")
	}
	if parsed.Verify("wrong-password") {
		t.Fatal("expected password to fail verification")
	}
}

func TestHashPasswordWithRecordsParams(t *testing.T) {
	cheap := Params{Memory: 1024, Iterations: 1, Threads: 2, SaltLen: 8, KeyLen: 16}
	phc, err := HashPasswordWith("pw", cheap)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$m=1024,t=1,p=2$") {
		t.Fatalf("unexpected encoding %q", phc)
	}
	parsed, err := ParsePasswordHash(phc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Params() != cheap || parsed.String() != phc {
		t.Fatalf("round trip mismatch: %+v %q", parsed.Params(), parsed.String())
	}
	if !parsed.Verify("pw") || parsed.Verify("PW") {
		t.Fatal("unexpected verification result")
	}
	if _, err := HashPassword(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestParsePasswordHashRejectsGarbage(t *testing.T) {
	for _, in := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=1,t=1,p=1$c2FsdA$c3Vt",
		"$argon2id$v=18$m=1,t=1,p=1$c2FsdA$c3Vt",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$c3Vt",
		"$argon2id$v=19$m=1,t=1,p=1$!!$c3Vt",
	} {
		if _, err := ParsePasswordHash(in); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("expected ErrInvalidHash for %q, got %v", in, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.txt")
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	content := "# comment\n\nalice:" + hash + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write auth file: %v", err)
	}
	users, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	entry, ok := users["alice"]
	if !ok {
		t.Fatal("expected user alice")
	}
	if !entry.Verify("secret") {
		t.Fatal("expected password to verify for alice")
	}
}

func TestLoadFileDuplicateUser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.txt")
	hash1, _ := HashPassword("secret1")
	hash2, _ := HashPassword("secret2")
	content := "alice:" + hash1 + "\nalice:" + hash2 + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write auth file: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected duplicate user error")
	}
}

func TestUpsertFileReplacesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "auth.txt")
	first, _ := HashPassword("one")
	second, _ := HashPassword("two")

	if err := UpsertFile(path, "alice", first); err != nil {
		t.Fatalf("upsert alice: %v", err)
	}
	if err := UpsertFile(path, "bob", first); err != nil {
		t.Fatalf("upsert bob: %v", err)
	}
	if err := UpsertFile(path, "alice", second); err != nil {
		t.Fatalf("update alice: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := strings.Count(string(data), "alice:"); got != 1 {
		t.Fatalf("expected one alice line, got %d in %q", got, data)
	}
	users, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !users["alice"].Verify("two") || !users["bob"].Verify("one") {
		t.Fatal("unexpected hashes after upsert")
	}
	exists, err := UserExists(path, "bob")
	if err != nil || !exists {
		t.Fatalf("expected bob to exist, got %v %v", exists, err)
	}
	if err := UpsertFile(path, "bad:name", first); err == nil {
		t.Fatal("expected invalid username error")
	}
}

func TestRemoveFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.txt")
	hash, _ := HashPassword("pw")
	for _, user := range []string{"alice", "bob"} {
		if err := UpsertFile(path, user, hash); err != nil {
			t.Fatalf("upsert %s: %v", user, err)
		}
	}

	removed, err := RemoveFromFile(path, "alice")
	if err != nil || !removed {
		t.Fatalf("remove alice: %v %v", removed, err)
	}
	removed, err = RemoveFromFile(path, "alice")
	if err != nil || removed {
		t.Fatalf("second remove: expected false, nil; got %v %v", removed, err)
	}
	users, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if _, ok := users["alice"]; ok || users["bob"] == nil {
		t.Fatalf("unexpected users after remove: %v", users)
	}
	if removed, err := RemoveFromFile(filepath.Join(t.TempDir(), "none.txt"), "bob"); err != nil || removed {
		t.Fatalf("missing file: expected false, nil; got %v %v", removed, err)
	}
}

func TestUserExistsMissingFile(t *testing.T) {
	exists, err := UserExists(filepath.Join(t.TempDir(), "none.txt"), "alice")
	if err != nil || exists {
		t.Fatalf("expected false, nil; got %v %v", exists, err)
	}
}

func TestTokensRoundTripAndExpiry(t *testing.T) {
	tokens, err := NewTokens("0123456789abcdef0123", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return now }

	raw, exp, err := tokens.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", exp)
	}
	user, err := tokens.Parse(raw)
	if err != nil || user != "alice" {
		t.Fatalf("expected alice, got %q %v", user, err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := tokens.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}

	other, _ := NewTokens("another-secret-value!", time.Hour)
	other.now = tokens.now
	now = now.Add(-2 * time.Hour)
	if _, err := other.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign token to fail, got %v", err)
	}
}

func TestNewTokensRejectsShortSecret(t *testing.T) {
	if _, err := NewTokens("short", time.Hour); err == nil {
		t.Fatal("expected short secret error")
	}
}
