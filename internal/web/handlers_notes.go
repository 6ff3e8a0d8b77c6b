package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gnotes/internal/links"
	"gnotes/internal/render"
	"gnotes/internal/store"
)

type createNoteRequest struct {
	Title    string  `json:"title"`
	FolderID *string `json:"folder_id"`
	Content  string  `json:"content"`
}

type updateNoteRequest struct {
	Title    *string         `json:"title"`
	Content  *string         `json:"content"`
	FolderID json.RawMessage `json:"folder_id"`
}

type noteLinksResponse struct {
	Outgoing  []store.OutgoingLink `json:"outgoing"`
	Backlinks []store.Backlink     `json:"backlinks"`
	Stats     links.Stats          `json:"stats"`
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.ListNotes(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, "Could not create note", err)
		return
	}
	n, err := s.store.CreateNote(r.Context(), owner(r), req.Title, req.FolderID, req.Content)
	if err != nil {
		s.fail(w, r, "Could not create note", err)
		return
	}
	s.addToast(r, toastSuccess, "Note created", fmt.Sprintf("%q was created.", n.Title))
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.GetNote(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req updateNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, "Could not save note", err)
		return
	}
	folder, err := optionalRef(req.FolderID)
	if err != nil {
		s.fail(w, r, "Could not save note", err)
		return
	}
	n, err := s.store.UpdateNote(r.Context(), owner(r), r.PathValue("id"), store.NoteUpdate{
		Title:    req.Title,
		Content:  req.Content,
		FolderID: folder,
	})
	if err != nil {
		s.fail(w, r, "Could not save note", err)
		return
	}
	s.addToast(r, toastSuccess, "Note saved", fmt.Sprintf("%q was saved.", n.Title))
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteNote(r.Context(), owner(r), r.PathValue("id")); err != nil {
		s.fail(w, r, "Could not delete note", err)
		return
	}
	s.addToast(r, toastSuccess, "Note deleted", "The note was deleted.")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNoteLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := s.store.GetNote(ctx, owner(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	outgoing, err := s.store.ResolveLinks(ctx, n.Owner, n.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	backlinks, err := s.store.BacklinksToTitle(ctx, n.Owner, n.Title)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, noteLinksResponse{
		Outgoing:  outgoing,
		Backlinks: backlinks,
		Stats:     links.ContentStats(n.Content),
	})
}

func (s *Server) handleNotePreview(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.GetNote(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writePreview(w, r, n.Content)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.writePreview(w, r, req.Content)
}

func (s *Server) writePreview(w http.ResponseWriter, r *http.Request, content string) {
	resolver, err := s.linkResolver(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	html, err := s.render.Render(content, render.Options{Owner: owner(r), Links: resolver})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

// linkResolver snapshots the owner's titles so a render costs one query.
func (s *Server) linkResolver(r *http.Request) (render.LinkResolver, error) {
	notes, err := s.store.ListNotes(r.Context(), owner(r))
	if err != nil {
		return nil, err
	}
	byTitle := make(map[string]string, len(notes))
	for _, n := range notes {
		key := links.Fold(n.Title)
		if _, ok := byTitle[key]; !ok {
			byTitle[key] = n.ID
		}
	}
	base := s.render.BaseURL()
	return render.LinkResolverFunc(func(target string) (string, bool) {
		if id, ok := byTitle[links.Fold(target)]; ok {
			return base + "/api/notes/" + url.PathEscape(id), true
		}
		return base + "/api/notes/resolve?title=" + url.QueryEscape(target), false
	}), nil
}

func (s *Server) handleLookupTitle(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.FindNoteByTitle(r.Context(), owner(r), r.URL.Query().Get("title"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// handleResolveTitle opens the note a wikilink names, creating it when missing.
func (s *Server) handleResolveTitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, "Could not open linked note", err)
		return
	}
	ctx := r.Context()
	n, err := s.store.FindNoteByTitle(ctx, owner(r), req.Title)
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]any{"note": n, "created": false})
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		s.fail(w, r, "Could not open linked note", err)
		return
	}
	n, err = s.store.CreateNote(ctx, owner(r), req.Title, nil, "")
	if err != nil {
		s.fail(w, r, "Could not create note", err)
		return
	}
	s.addToast(r, toastSuccess, "Note created", fmt.Sprintf("%q was created from a link.", n.Title))
	writeJSON(w, http.StatusCreated, map[string]any{"note": n, "created": true})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := s.store.Search(r.Context(), owner(r), q, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
