package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Params are the argon2id cost settings recorded in every hash.
type Params struct {
	Memory     uint32 // KiB
	Iterations uint32
	Threads    uint8
	SaltLen    int
	KeyLen     uint32
}

// DefaultParams is what notesctl writes into the auth file.
var DefaultParams = Params{Memory: 64 * 1024, Iterations: 3, Threads: 1, SaltLen: 16, KeyLen: 32}

var (
	ErrInvalidHash   = errors.New("invalid argon2id hash")
	ErrEmptyPassword = errors.New("password must not be empty")
)

// PasswordHash is a stored credential in PHC form: $argon2id$v=19$m=..,t=..,p=..$salt$sum.
type PasswordHash struct {
	params Params
	salt   []byte
	sum    []byte
}

func HashPassword(password string) (string, error) {
	return HashPasswordWith(password, DefaultParams)
}

func HashPasswordWith(password string, p Params) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	h := PasswordHash{params: p, salt: salt}
	h.sum = h.derive(password, p.KeyLen)
	return h.String(), nil
}

func ParsePasswordHash(phc string) (*PasswordHash, error) {
	fields := strings.Split(phc, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return nil, ErrInvalidHash
	}
	if fields[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidHash, fields[2])
	}
	var p Params
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Threads); err != nil {
		return nil, fmt.Errorf("%w: params: %v", ErrInvalidHash, err)
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Threads == 0 {
		return nil, fmt.Errorf("%w: zero params", ErrInvalidHash)
	}
	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(fields[4])
	if err != nil {
		return nil, fmt.Errorf("%w: salt", ErrInvalidHash)
	}
	sum, err := enc.DecodeString(fields[5])
	if err != nil || len(sum) == 0 {
		return nil, fmt.Errorf("%w: sum", ErrInvalidHash)
	}
	p.SaltLen, p.KeyLen = len(salt), uint32(len(sum))
	return &PasswordHash{params: p, salt: salt, sum: sum}, nil
}

func (h *PasswordHash) Verify(password string) bool {
	return subtle.ConstantTimeCompare(h.derive(password, uint32(len(h.sum))), h.sum) == 1
}

func (h *PasswordHash) Params() Params { return h.params }

func (h *PasswordHash) String() string {
	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s", argon2.Version,
		h.params.Memory, h.params.Iterations, h.params.Threads,
		enc.EncodeToString(h.salt), enc.EncodeToString(h.sum))
}

func (h *PasswordHash) derive(password string, keyLen uint32) []byte {
	return argon2.IDKey([]byte(password), h.salt, h.params.Iterations, h.params.Memory, h.params.Threads, keyLen)
}
