package web

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"path"

	"gnotes/internal/storage/blob"
)

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	s.serveBlob(w, r, blob.BucketImages, r.PathValue("key"))
}

// handleMarkdownFile serves an uploaded source file to the owner only.
func (s *Server) handleMarkdownFile(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if blob.KeyOwner(key) != owner(r) {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	s.serveBlob(w, r, blob.BucketMarkdown, key)
}

func (s *Server) serveBlob(w http.ResponseWriter, r *http.Request, bucket, key string) {
	f, info, err := s.blobs.Open(bucket, key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		writeError(w, r, err)
		return
	}
	defer f.Close()

	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if bucket == blob.BucketMarkdown {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
