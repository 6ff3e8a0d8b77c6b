package store

import (
	"context"
	"errors"
	"testing"
)

func TestFolderCreateListAndValidate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateFolder(ctx, "alice", "  ", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
	if _, err := s.CreateFolder(ctx, "alice", "Child", strPtr("nope")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing parent, got %v", err)
	}
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		if _, err := s.CreateFolder(ctx, "alice", name, nil); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if _, err := s.CreateFolder(ctx, "bob", "Bobs", nil); err != nil {
		t.Fatalf("create bob folder: %v", err)
	}
	folders, err := s.ListFolders(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(folders) != 3 || folders[0].Name != "Alpha" || folders[1].Name != "Mid" || folders[2].Name != "Zeta" {
		t.Fatalf("unexpected folders: %+v", folders)
	}
}

func TestFindOrCreateFolderReusesByNameAndParent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	vault, created, err := s.FindOrCreateFolder(ctx, "alice", "Vault", nil)
	if err != nil || !created {
		t.Fatalf("expected new folder, got created=%v err=%v", created, err)
	}
	again, created, err := s.FindOrCreateFolder(ctx, "alice", "Vault", nil)
	if err != nil || created || again.ID != vault.ID {
		t.Fatalf("expected reuse of %s, got %+v created=%v err=%v", vault.ID, again, created, err)
	}
	nested, created, err := s.FindOrCreateFolder(ctx, "alice", "Vault", &vault.ID)
	if err != nil || !created || nested.ID == vault.ID {
		t.Fatalf("expected distinct nested folder, got %+v created=%v err=%v", nested, created, err)
	}
}

func TestUpdateFolderRejectsCycles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, _ := s.CreateFolder(ctx, "alice", "A", nil)
	b, _ := s.CreateFolder(ctx, "alice", "B", &a.ID)
	c, _ := s.CreateFolder(ctx, "alice", "C", &b.ID)

	if _, err := s.UpdateFolder(ctx, "alice", a.ID, nil, &c.ID); !errors.Is(err, ErrFolderCycle) {
		t.Fatalf("expected ErrFolderCycle moving A under C, got %v", err)
	}
	if _, err := s.UpdateFolder(ctx, "alice", a.ID, nil, &a.ID); !errors.Is(err, ErrFolderCycle) {
		t.Fatalf("expected ErrFolderCycle moving A under itself, got %v", err)
	}
	moved, err := s.UpdateFolder(ctx, "alice", c.ID, strPtr("Renamed"), strPtr(""))
	if err != nil {
		t.Fatalf("move C to root: %v", err)
	}
	if moved.ParentFolderID != nil || moved.Name != "Renamed" {
		t.Fatalf("unexpected folder after move: %+v", moved)
	}
}

func TestDeleteFolderReparentsChildren(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	top, _ := s.CreateFolder(ctx, "alice", "Top", nil)
	mid, _ := s.CreateFolder(ctx, "alice", "Mid", &top.ID)
	leaf, _ := s.CreateFolder(ctx, "alice", "Leaf", &mid.ID)
	n, err := s.CreateNote(ctx, "alice", "Inside", &mid.ID, "")
	if err != nil {
		t.Fatalf("create note: %v", err)
	}

	if err := s.DeleteFolder(ctx, "bob", mid.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other owner, got %v", err)
	}
	if err := s.DeleteFolder(ctx, "alice", mid.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	gotLeaf, err := s.GetFolder(ctx, "alice", leaf.ID)
	if err != nil {
		t.Fatalf("leaf: %v", err)
	}
	if gotLeaf.ParentFolderID == nil || *gotLeaf.ParentFolderID != top.ID {
		t.Fatalf("expected leaf under top, got %+v", gotLeaf)
	}
	gotNote, err := s.GetNote(ctx, "alice", n.ID)
	if err != nil {
		t.Fatalf("note: %v", err)
	}
	if gotNote.FolderID == nil || *gotNote.FolderID != top.ID {
		t.Fatalf("expected note under top, got %+v", gotNote.FolderID)
	}
}

func TestTreeNestsFoldersAndNotes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	work, _ := s.CreateFolder(ctx, "alice", "Work", nil)
	archive, _ := s.CreateFolder(ctx, "alice", "Archive", &work.ID)
	if _, err := s.CreateNote(ctx, "alice", "Old", &archive.ID, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateNote(ctx, "alice", "Plan", &work.ID, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	mustCreateNote(t, s, "alice", "Loose", "")

	tree, err := s.Tree(ctx, "alice")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if len(tree.Notes) != 1 || tree.Notes[0].Title != "Loose" {
		t.Fatalf("unexpected root notes: %+v", tree.Notes)
	}
	if len(tree.Folders) != 1 || tree.Folders[0].Name != "Work" {
		t.Fatalf("unexpected root folders: %+v", tree.Folders)
	}
	w := tree.Folders[0]
	if len(w.Notes) != 1 || w.Notes[0].Title != "Plan" {
		t.Fatalf("unexpected Work notes: %+v", w.Notes)
	}
	if len(w.Folders) != 1 || w.Folders[0].Name != "Archive" || len(w.Folders[0].Notes) != 1 {
		t.Fatalf("unexpected Work subfolders: %+v", w.Folders)
	}
}

func TestBuildTreeMovesOrphansToRoot(t *testing.T) {
	ghost := "ghost"
	tree := BuildTree(
		[]Folder{{ID: "f1", Name: "Orphan", ParentFolderID: &ghost}},
		[]Note{{ID: "n1", Title: "Lost", FolderID: &ghost}},
	)
	if len(tree.Folders) != 1 || tree.Folders[0].ID != "f1" {
		t.Fatalf("expected orphan folder at root, got %+v", tree.Folders)
	}
	if len(tree.Notes) != 1 || tree.Notes[0].ID != "n1" {
		t.Fatalf("expected orphan note at root, got %+v", tree.Notes)
	}
}
