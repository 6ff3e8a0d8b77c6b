package store

import (
	"context"
	"time"
)

type TreeNote struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TreeFolder struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Folders []TreeFolder `json:"folders"`
	Notes   []TreeNote   `json:"notes"`
}

// Tree is the root level of an owner's explorer.
type Tree struct {
	Folders []TreeFolder `json:"folders"`
	Notes   []TreeNote   `json:"notes"`
}

func (s *Store) Tree(ctx context.Context, owner string) (Tree, error) {
	folders, err := s.ListFolders(ctx, owner)
	if err != nil {
		return Tree{}, err
	}
	notes, err := s.ListNotes(ctx, owner)
	if err != nil {
		return Tree{}, err
	}
	return BuildTree(folders, notes), nil
}

// BuildTree nests folders and notes, keeping their input order at each level.
// Folders and notes whose parent is missing are placed at the root.
func BuildTree(folders []Folder, notes []Note) Tree {
	known := make(map[string]bool, len(folders))
	for _, f := range folders {
		known[f.ID] = true
	}
	childFolders := map[string][]Folder{}
	for _, f := range folders {
		parent := ""
		if f.ParentFolderID != nil && known[*f.ParentFolderID] && *f.ParentFolderID != f.ID {
			parent = *f.ParentFolderID
		}
		childFolders[parent] = append(childFolders[parent], f)
	}
	childNotes := map[string][]TreeNote{}
	for _, n := range notes {
		parent := ""
		if n.FolderID != nil && known[*n.FolderID] {
			parent = *n.FolderID
		}
		childNotes[parent] = append(childNotes[parent], TreeNote{ID: n.ID, Title: n.Title, UpdatedAt: n.UpdatedAt})
	}

	visited := map[string]bool{}
	var build func(parent string) []TreeFolder
	build = func(parent string) []TreeFolder {
		out := []TreeFolder{}
		for _, f := range childFolders[parent] {
			if visited[f.ID] {
				continue
			}
			visited[f.ID] = true
			out = append(out, TreeFolder{
				ID:      f.ID,
				Name:    f.Name,
				Folders: build(f.ID),
				Notes:   notesOrEmpty(childNotes[f.ID]),
			})
		}
		return out
	}
	return Tree{Folders: build(""), Notes: notesOrEmpty(childNotes[""])}
}

func notesOrEmpty(notes []TreeNote) []TreeNote {
	if notes == nil {
		return []TreeNote{}
	}
	return notes
}
