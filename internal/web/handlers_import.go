package web

import (
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"strconv"

	"gnotes/internal/importer"
)

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	user := owner(r)
	if ok, wait := s.limiter.Allow(user); !ok {
		const msg = "too many imports, try again later"
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		s.addToast(r, toastError, "Import failed", msg)
		writeJSONError(w, http.StatusTooManyRequests, msg)
		return
	}

	limit := int64(s.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	files, err := readImportFiles(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg := fmt.Sprintf("upload exceeds %d MB", s.cfg.MaxUploadMB)
			s.addToast(r, toastError, "Import failed", msg)
			writeJSONError(w, http.StatusRequestEntityTooLarge, msg)
			return
		}
		s.fail(w, r, "Import failed", err)
		return
	}
	if len(files) == 0 {
		s.fail(w, r, "Import failed", fmt.Errorf("%w: no files in upload", errBadRequest))
		return
	}

	report, err := s.importer.Import(r.Context(), user, files)
	if err != nil {
		s.fail(w, r, "Import failed", err)
		return
	}
	kind := toastSuccess
	if report.Failed > 0 {
		kind = toastError
	}
	s.addToast(r, kind, "Import finished", fmt.Sprintf("%d notes, %d images, %d skipped, %d failed.",
		report.Notes, report.Images, report.Skipped, report.Failed))
	writeJSON(w, http.StatusOK, report)
}

// readImportFiles streams the multipart body. The part filename carries the relative path.
func readImportFiles(r *http.Request) ([]importer.File, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	var files []importer.File
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return nil, wrapUploadErr(err)
		}
		if part.FormName() != "file" || part.FileName() == "" {
			part.Close()
			continue
		}
		// FileName strips directories, the raw header keeps them.
		name := rawFileName(part.Header.Get("Content-Disposition"), part.FileName())
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, wrapUploadErr(err)
		}
		files = append(files, importer.File{Path: name, Data: data})
	}
}

func wrapUploadErr(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

func rawFileName(disposition, fallback string) string {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil || params["filename"] == "" {
		return fallback
	}
	return params["filename"]
}
