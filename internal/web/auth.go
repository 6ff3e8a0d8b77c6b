package web

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"gnotes/internal/auth"
	"gnotes/internal/config"
)

// LocalUser owns every note when no credentials are configured.
const LocalUser = "local"

type authEntry struct {
	plain string
	hash  *auth.PasswordHash
}

// Auth resolves the request user from a bearer token or Basic credentials.
// A nil *Auth means authentication is off.
type Auth struct {
	users  map[string]authEntry
	tokens *auth.Tokens
}

func newAuth(cfg config.Config, tokens *auth.Tokens) (*Auth, error) {
	users := make(map[string]authEntry)

	if path := cfg.AuthFilePath(); path != "" {
		fileUsers, err := auth.LoadFile(path)
		switch {
		case err == nil:
			for user, hash := range fileUsers {
				users[user] = authEntry{hash: hash}
			}
		case cfg.AuthFile != "":
			return nil, err
		}
	}

	if cfg.AuthUser != "" || cfg.AuthPass != "" {
		if cfg.AuthUser == "" || cfg.AuthPass == "" {
			return nil, errors.New("NOTES_AUTH_USER and NOTES_AUTH_PASS must be set together")
		}
		if err := auth.ValidUsername(cfg.AuthUser); err != nil {
			return nil, err
		}
		users[cfg.AuthUser] = authEntry{plain: cfg.AuthPass}
	}

	if len(users) == 0 {
		slog.Warn("authentication disabled, all notes belong to the local user")
		return nil, nil
	}
	return &Auth{users: users, tokens: tokens}, nil
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a == nil {
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), User{Name: LocalUser})))
			return
		}
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			name, err := a.tokens.Parse(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
			if err != nil || !a.known(name) {
				writeJSONError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), User{Name: name})))
			return
		}
		if user, pass, ok := r.BasicAuth(); ok {
			if !a.verify(user, pass) {
				w.Header().Set("WWW-Authenticate", `Basic realm="gnotes"`)
				writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), User{Name: user})))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) known(user string) bool {
	_, ok := a.users[user]
	return ok
}

func (a *Auth) verify(user, pass string) bool {
	entry, ok := a.users[user]
	if !ok {
		return false
	}
	if entry.hash != nil {
		return entry.hash.Verify(pass)
	}
	return subtle.ConstantTimeCompare([]byte(entry.plain), []byte(pass)) == 1
}

// requireUser rejects requests without a resolved user.
func requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="gnotes"`)
			writeJSONError(w, http.StatusUnauthorized, "login required")
			return
		}
		next(w, r)
	}
}

func owner(r *http.Request) string {
	user, _ := CurrentUser(r.Context())
	return user.Name
}
