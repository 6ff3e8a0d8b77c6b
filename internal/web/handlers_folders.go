package web

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type createFolderRequest struct {
	Name           string  `json:"name"`
	ParentFolderID *string `json:"parent_folder_id"`
}

type updateFolderRequest struct {
	Name           *string         `json:"name"`
	ParentFolderID json.RawMessage `json:"parent_folder_id"`
}

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.store.ListFolders(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, "Could not create folder", err)
		return
	}
	f, err := s.store.CreateFolder(r.Context(), owner(r), req.Name, req.ParentFolderID)
	if err != nil {
		s.fail(w, r, "Could not create folder", err)
		return
	}
	s.addToast(r, toastSuccess, "Folder created", fmt.Sprintf("%q was created.", f.Name))
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleUpdateFolder(w http.ResponseWriter, r *http.Request) {
	var req updateFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, "Could not update folder", err)
		return
	}
	parent, err := optionalRef(req.ParentFolderID)
	if err != nil {
		s.fail(w, r, "Could not update folder", err)
		return
	}
	f, err := s.store.UpdateFolder(r.Context(), owner(r), r.PathValue("id"), req.Name, parent)
	if err != nil {
		s.fail(w, r, "Could not update folder", err)
		return
	}
	s.addToast(r, toastSuccess, "Folder updated", fmt.Sprintf("%q was updated.", f.Name))
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteFolder(r.Context(), owner(r), r.PathValue("id")); err != nil {
		s.fail(w, r, "Could not delete folder", err)
		return
	}
	s.addToast(r, toastSuccess, "Folder deleted", "Its notes and subfolders moved up one level.")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.store.Tree(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}
