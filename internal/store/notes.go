package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gnotes/internal/links"
)

// UntitledNote replaces a title that is blank after an edit.
const UntitledNote = "Untitled note"

type Note struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	FolderID  *string   `json:"folder_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteUpdate is a partial edit. Nil fields are left alone; a FolderID of "" moves the note to the root.
type NoteUpdate struct {
	Title    *string
	Content  *string
	FolderID *string
}

const noteColumns = "id, owner, title, content, folder_id, created_at, updated_at"

func scanNote(row rowScanner) (Note, error) {
	var n Note
	var folder sql.NullString
	var created, updated int64
	if err := row.Scan(&n.ID, &n.Owner, &n.Title, &n.Content, &folder, &created, &updated); err != nil {
		return Note{}, err
	}
	n.FolderID = stringPtr(folder)
	n.CreatedAt = fromUnixNano(created)
	n.UpdatedAt = fromUnixNano(updated)
	return n, nil
}

func (s *Store) ListNotes(ctx context.Context, owner string) ([]Note, error) {
	rows, err := s.queryContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE owner = ? ORDER BY updated_at DESC, rowid DESC", owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) GetNote(ctx context.Context, owner, id string) (Note, error) {
	n, err := scanNote(s.queryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE owner = ? AND id = ?", owner, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	return n, err
}

// FindNoteByTitle returns the most recently updated note whose title matches case-insensitively.
func (s *Store) FindNoteByTitle(ctx context.Context, owner, title string) (Note, error) {
	fold := links.Fold(title)
	if fold == "" {
		return Note{}, ErrNotFound
	}
	n, err := scanNote(s.queryRowContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE owner = ? AND title_fold = ? ORDER BY updated_at DESC, rowid DESC LIMIT 1",
		owner, fold))
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	return n, err
}

func (s *Store) CreateNote(ctx context.Context, owner, title string, folderID *string, content string) (Note, error) {
	title = strings.TrimSpace(title)
	if owner == "" {
		return Note{}, fmt.Errorf("%w: owner required", ErrInvalidInput)
	}
	if title == "" {
		return Note{}, fmt.Errorf("%w: title required", ErrInvalidInput)
	}
	folder := normalizeFolderRef(folderID)
	if folder != nil {
		if err := s.requireFolder(ctx, owner, *folder); err != nil {
			return Note{}, err
		}
	}

	now := s.now().UTC()
	n := Note{
		ID:        uuid.NewString(),
		Owner:     owner,
		Title:     title,
		Content:   content,
		FolderID:  folder,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, start, err := s.beginTx(ctx, "create-note")
	if err != nil {
		return Note{}, err
	}
	defer s.rollbackTx(tx, "create-note", start)

	_, err = s.execContextTx(ctx, tx, `
		INSERT INTO notes(id, owner, title, title_fold, content, folder_id, hash, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, owner, n.Title, links.Fold(n.Title), n.Content, nullableFolder(folder), contentHash(n.Content),
		now.UnixNano(), now.UnixNano())
	if err != nil {
		return Note{}, fmt.Errorf("insert note: %w", err)
	}
	if err := s.indexNoteTx(ctx, tx, &n); err != nil {
		return Note{}, err
	}
	if err := s.commitTx(tx, "create-note", start); err != nil {
		return Note{}, err
	}
	return n, nil
}

func (s *Store) UpdateNote(ctx context.Context, owner, id string, upd NoteUpdate) (Note, error) {
	n, err := s.GetNote(ctx, owner, id)
	if err != nil {
		return Note{}, err
	}
	if upd.Title != nil {
		n.Title = strings.TrimSpace(*upd.Title)
		if n.Title == "" {
			n.Title = UntitledNote
		}
	}
	if upd.Content != nil {
		n.Content = *upd.Content
	}
	if upd.FolderID != nil {
		n.FolderID = normalizeFolderRef(upd.FolderID)
		if n.FolderID != nil {
			if err := s.requireFolder(ctx, owner, *n.FolderID); err != nil {
				return Note{}, err
			}
		}
	}
	n.UpdatedAt = s.now().UTC()

	tx, start, err := s.beginTx(ctx, "update-note")
	if err != nil {
		return Note{}, err
	}
	defer s.rollbackTx(tx, "update-note", start)

	var prevHash string
	if err := s.queryRowContextTx(ctx, tx, "SELECT hash FROM notes WHERE id = ?", id).Scan(&prevHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Note{}, ErrNotFound
		}
		return Note{}, err
	}
	hash := contentHash(n.Content)
	_, err = s.execContextTx(ctx, tx, `
		UPDATE notes SET title = ?, title_fold = ?, content = ?, folder_id = ?, hash = ?, updated_at = ?
		WHERE owner = ? AND id = ?`,
		n.Title, links.Fold(n.Title), n.Content, nullableFolder(n.FolderID), hash, n.UpdatedAt.UnixNano(), owner, id)
	if err != nil {
		return Note{}, fmt.Errorf("update note: %w", err)
	}
	// fts carries the title, so reindex on a rename too.
	if hash != prevHash || upd.Title != nil {
		if err := s.indexNoteTx(ctx, tx, &n); err != nil {
			return Note{}, err
		}
	}
	if err := s.commitTx(tx, "update-note", start); err != nil {
		return Note{}, err
	}
	return n, nil
}

func (s *Store) DeleteNote(ctx context.Context, owner, id string) error {
	if _, err := s.GetNote(ctx, owner, id); err != nil {
		return err
	}
	tx, start, err := s.beginTx(ctx, "delete-note")
	if err != nil {
		return err
	}
	defer s.rollbackTx(tx, "delete-note", start)

	for _, q := range []string{
		"DELETE FROM links WHERE from_note_id = ?",
		"DELETE FROM fts WHERE note_id = ?",
	} {
		if _, err := s.execContextTx(ctx, tx, q, id); err != nil {
			return err
		}
	}
	if _, err := s.execContextTx(ctx, tx, "DELETE FROM notes WHERE owner = ? AND id = ?", owner, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return s.commitTx(tx, "delete-note", start)
}

// indexNoteTx replaces the derived links and fts rows of one note.
func (s *Store) indexNoteTx(ctx context.Context, tx *sql.Tx, n *Note) error {
	if _, err := s.execContextTx(ctx, tx, "DELETE FROM links WHERE from_note_id = ?", n.ID); err != nil {
		return fmt.Errorf("clear links: %w", err)
	}
	if _, err := s.execContextTx(ctx, tx, "DELETE FROM fts WHERE note_id = ?", n.ID); err != nil {
		return fmt.Errorf("clear fts: %w", err)
	}
	for _, l := range links.Extract(n.Content) {
		_, err := s.execContextTx(ctx, tx,
			"INSERT INTO links(owner, from_note_id, to_ref, to_fold, line_no, line) VALUES(?, ?, ?, ?, ?, ?)",
			n.Owner, n.ID, l.Target, links.Fold(l.Target), l.LineNo, l.Line)
		if err != nil {
			return fmt.Errorf("insert link: %w", err)
		}
	}
	_, err := s.execContextTx(ctx, tx, "INSERT INTO fts(note_id, owner, title, body) VALUES(?, ?, ?, ?)",
		n.ID, n.Owner, n.Title, n.Content)
	if err != nil {
		return fmt.Errorf("insert fts: %w", err)
	}
	return nil
}

func normalizeFolderRef(id *string) *string {
	if id == nil {
		return nil
	}
	v := strings.TrimSpace(*id)
	if v == "" {
		return nil
	}
	return &v
}

func nullableFolder(id *string) any {
	if id == nil {
		return nil
	}
	return nullIfEmpty(*id)
}
