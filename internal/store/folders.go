package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Folder struct {
	ID             string    `json:"id"`
	Owner          string    `json:"owner"`
	Name           string    `json:"name"`
	ParentFolderID *string   `json:"parent_folder_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const folderColumns = "id, owner, name, parent_id, created_at, updated_at"

func scanFolder(row rowScanner) (Folder, error) {
	var f Folder
	var parent sql.NullString
	var created, updated int64
	if err := row.Scan(&f.ID, &f.Owner, &f.Name, &parent, &created, &updated); err != nil {
		return Folder{}, err
	}
	f.ParentFolderID = stringPtr(parent)
	f.CreatedAt = fromUnixNano(created)
	f.UpdatedAt = fromUnixNano(updated)
	return f, nil
}

func (s *Store) ListFolders(ctx context.Context, owner string) ([]Folder, error) {
	rows, err := s.queryContext(ctx, "SELECT "+folderColumns+" FROM folders WHERE owner = ? ORDER BY name, created_at", owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) GetFolder(ctx context.Context, owner, id string) (Folder, error) {
	f, err := scanFolder(s.queryRowContext(ctx, "SELECT "+folderColumns+" FROM folders WHERE owner = ? AND id = ?", owner, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Folder{}, ErrNotFound
	}
	return f, err
}

func (s *Store) requireFolder(ctx context.Context, owner, id string) error {
	var one int
	err := s.queryRowContext(ctx, "SELECT 1 FROM folders WHERE owner = ? AND id = ?", owner, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: folder %s", ErrNotFound, id)
	}
	return err
}

func (s *Store) CreateFolder(ctx context.Context, owner, name string, parentID *string) (Folder, error) {
	name = strings.TrimSpace(name)
	if owner == "" {
		return Folder{}, fmt.Errorf("%w: owner required", ErrInvalidInput)
	}
	if name == "" {
		return Folder{}, fmt.Errorf("%w: folder name required", ErrInvalidInput)
	}
	parent := normalizeFolderRef(parentID)
	if parent != nil {
		if err := s.requireFolder(ctx, owner, *parent); err != nil {
			return Folder{}, err
		}
	}
	now := s.now().UTC()
	f := Folder{
		ID:             uuid.NewString(),
		Owner:          owner,
		Name:           name,
		ParentFolderID: parent,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err := s.execContext(ctx,
		"INSERT INTO folders(id, owner, name, parent_id, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?)",
		f.ID, owner, name, nullableFolder(parent), now.UnixNano(), now.UnixNano())
	if err != nil {
		return Folder{}, fmt.Errorf("insert folder: %w", err)
	}
	return f, nil
}

// FindOrCreateFolder reuses a folder with the same name under the same parent.
func (s *Store) FindOrCreateFolder(ctx context.Context, owner, name string, parentID *string) (Folder, bool, error) {
	name = strings.TrimSpace(name)
	parent := normalizeFolderRef(parentID)
	f, err := scanFolder(s.queryRowContext(ctx,
		"SELECT "+folderColumns+" FROM folders WHERE owner = ? AND name = ? AND parent_id IS ? ORDER BY created_at LIMIT 1",
		owner, name, nullableFolder(parent)))
	if err == nil {
		return f, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Folder{}, false, err
	}
	f, err = s.CreateFolder(ctx, owner, name, parent)
	if err != nil {
		return Folder{}, false, err
	}
	return f, true, nil
}

// UpdateFolder renames and/or moves a folder. A parent of "" moves it to the root.
func (s *Store) UpdateFolder(ctx context.Context, owner, id string, name, parentID *string) (Folder, error) {
	f, err := s.GetFolder(ctx, owner, id)
	if err != nil {
		return Folder{}, err
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return Folder{}, fmt.Errorf("%w: folder name required", ErrInvalidInput)
		}
		f.Name = trimmed
	}
	if parentID != nil {
		parent := normalizeFolderRef(parentID)
		if parent != nil {
			if err := s.checkFolderMove(ctx, owner, id, *parent); err != nil {
				return Folder{}, err
			}
		}
		f.ParentFolderID = parent
	}
	f.UpdatedAt = s.now().UTC()
	_, err = s.execContext(ctx,
		"UPDATE folders SET name = ?, parent_id = ?, updated_at = ? WHERE owner = ? AND id = ?",
		f.Name, nullableFolder(f.ParentFolderID), f.UpdatedAt.UnixNano(), owner, id)
	if err != nil {
		return Folder{}, fmt.Errorf("update folder: %w", err)
	}
	return f, nil
}

// checkFolderMove walks up from the new parent and fails if it reaches the folder being moved.
func (s *Store) checkFolderMove(ctx context.Context, owner, id, parent string) error {
	seen := map[string]bool{}
	cur := parent
	for cur != "" {
		if cur == id {
			return ErrFolderCycle
		}
		if seen[cur] {
			return ErrFolderCycle
		}
		seen[cur] = true
		f, err := s.GetFolder(ctx, owner, cur)
		if err != nil {
			return err
		}
		if f.ParentFolderID == nil {
			return nil
		}
		cur = *f.ParentFolderID
	}
	return nil
}

// DeleteFolder removes a folder and hands its child folders and notes to its parent.
func (s *Store) DeleteFolder(ctx context.Context, owner, id string) error {
	f, err := s.GetFolder(ctx, owner, id)
	if err != nil {
		return err
	}
	tx, start, err := s.beginTx(ctx, "delete-folder")
	if err != nil {
		return err
	}
	defer s.rollbackTx(tx, "delete-folder", start)

	parent := nullableFolder(f.ParentFolderID)
	now := s.now().UTC().UnixNano()
	if _, err := s.execContextTx(ctx, tx,
		"UPDATE folders SET parent_id = ?, updated_at = ? WHERE owner = ? AND parent_id = ?", parent, now, owner, id); err != nil {
		return fmt.Errorf("reparent folders: %w", err)
	}
	if _, err := s.execContextTx(ctx, tx,
		"UPDATE notes SET folder_id = ? WHERE owner = ? AND folder_id = ?", parent, owner, id); err != nil {
		return fmt.Errorf("reparent notes: %w", err)
	}
	if _, err := s.execContextTx(ctx, tx, "DELETE FROM folders WHERE owner = ? AND id = ?", owner, id); err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	return s.commitTx(tx, "delete-folder", start)
}
