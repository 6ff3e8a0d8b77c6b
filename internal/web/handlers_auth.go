package web

import (
	"net/http"
	"strings"
	"time"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user := strings.TrimSpace(req.Username)
	if s.auth == nil {
		// Without configured users every request already runs as LocalUser.
		user = LocalUser
	} else if !s.auth.verify(user, req.Password) {
		writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires})
}

func (s *Server) handleListToasts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.toasts.List(toastKey(r)))
}

func (s *Server) handleDismissToast(w http.ResponseWriter, r *http.Request) {
	if !s.toasts.Remove(toastKey(r), r.PathValue("id")) {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
