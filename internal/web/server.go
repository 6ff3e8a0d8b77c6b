package web

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gnotes/internal/auth"
	"gnotes/internal/config"
	"gnotes/internal/importer"
	"gnotes/internal/render"
	"gnotes/internal/storage/blob"
	"gnotes/internal/store"
)

type Server struct {
	cfg      config.Config
	store    *store.Store
	blobs    *blob.Store
	render   *render.Renderer
	importer *importer.Importer
	tokens   *auth.Tokens
	auth     *Auth
	toasts   *toastStore
	limiter  *userLimiter
	mux      *http.ServeMux
}

func NewServer(cfg config.Config, st *store.Store) (*Server, error) {
	secret := cfg.AuthSecret
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
		secret = base64.RawStdEncoding.EncodeToString(buf)
		slog.Warn("NOTES_AUTH_SECRET not set, tokens will not survive a restart")
	}
	tokens, err := auth.NewTokens(secret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	a, err := newAuth(cfg, tokens)
	if err != nil {
		return nil, err
	}

	blobs := blob.New(cfg.StoragePath(), cfg.PublicURL)
	s := &Server{
		cfg:      cfg,
		store:    st,
		blobs:    blobs,
		render:   render.New(cfg.PublicURL),
		importer: importer.New(st, blobs),
		tokens:   tokens,
		auth:     a,
		toasts:   newToastStore(),
		limiter:  newUserLimiter(cfg.ImportRate, cfg.ImportBurst),
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return logRequests(s.auth.Middleware(s.mux))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /assets/highlight.css", s.handleHighlightCSS)

	s.mux.HandleFunc("POST /api/login", s.handleLogin)

	s.mux.HandleFunc("GET /api/notes", requireUser(s.handleListNotes))
	s.mux.HandleFunc("POST /api/notes", requireUser(s.handleCreateNote))
	s.mux.HandleFunc("GET /api/notes/resolve", requireUser(s.handleLookupTitle))
	s.mux.HandleFunc("POST /api/notes/resolve", requireUser(s.handleResolveTitle))
	s.mux.HandleFunc("GET /api/notes/{id}", requireUser(s.handleGetNote))
	s.mux.HandleFunc("PATCH /api/notes/{id}", requireUser(s.handleUpdateNote))
	s.mux.HandleFunc("DELETE /api/notes/{id}", requireUser(s.handleDeleteNote))
	s.mux.HandleFunc("GET /api/notes/{id}/links", requireUser(s.handleNoteLinks))
	s.mux.HandleFunc("GET /api/notes/{id}/preview", requireUser(s.handleNotePreview))
	s.mux.HandleFunc("POST /api/preview", requireUser(s.handlePreview))

	s.mux.HandleFunc("GET /api/folders", requireUser(s.handleListFolders))
	s.mux.HandleFunc("POST /api/folders", requireUser(s.handleCreateFolder))
	s.mux.HandleFunc("PATCH /api/folders/{id}", requireUser(s.handleUpdateFolder))
	s.mux.HandleFunc("DELETE /api/folders/{id}", requireUser(s.handleDeleteFolder))
	s.mux.HandleFunc("GET /api/tree", requireUser(s.handleTree))
	s.mux.HandleFunc("GET /api/search", requireUser(s.handleSearch))

	s.mux.HandleFunc("POST /api/import", requireUser(s.handleImport))

	s.mux.HandleFunc("GET /api/toasts", requireUser(s.handleListToasts))
	s.mux.HandleFunc("DELETE /api/toasts/{id}", requireUser(s.handleDismissToast))

	s.mux.HandleFunc("GET /storage/images/{key...}", s.handleImage)
	s.mux.HandleFunc("GET /storage/markdown-files/{key...}", requireUser(s.handleMarkdownFile))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHighlightCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if err := s.render.WriteCSS(w); err != nil {
		slog.Error("write highlight css", "err", err)
	}
}
