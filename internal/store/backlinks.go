package store

import (
	"context"
	"errors"
	"time"

	"gnotes/internal/links"
)

type Backlink struct {
	NoteID    string    `json:"note_id"`
	Title     string    `json:"title"`
	LineNo    int       `json:"line_no"`
	Line      string    `json:"line"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OutgoingLink struct {
	Target   string  `json:"target"`
	Display  string  `json:"display,omitempty"`
	NoteID   *string `json:"note_id"`
	Resolved bool    `json:"resolved"`
}

// Backlinks lists the owner's notes that link to the note's title. A note linking to itself is included.
func (s *Store) Backlinks(ctx context.Context, owner, noteID string) ([]Backlink, error) {
	n, err := s.GetNote(ctx, owner, noteID)
	if err != nil {
		return nil, err
	}
	return s.BacklinksToTitle(ctx, owner, n.Title)
}

func (s *Store) BacklinksToTitle(ctx context.Context, owner, title string) ([]Backlink, error) {
	rows, err := s.queryContext(ctx, `
		SELECT n.id, n.title, MIN(l.line_no), l.line, n.updated_at
		FROM links l
		JOIN notes n ON n.id = l.from_note_id
		WHERE l.owner = ? AND l.to_fold = ?
		GROUP BY n.id
		ORDER BY n.updated_at DESC, n.rowid DESC`,
		owner, links.Fold(title))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Backlink{}
	for rows.Next() {
		var b Backlink
		var updated int64
		if err := rows.Scan(&b.NoteID, &b.Title, &b.LineNo, &b.Line, &updated); err != nil {
			return nil, err
		}
		b.UpdatedAt = fromUnixNano(updated)
		out = append(out, b)
	}
	return out, rows.Err()
}

// OutgoingLinks resolves every wikilink of the note in document order.
func (s *Store) OutgoingLinks(ctx context.Context, owner, noteID string) ([]OutgoingLink, error) {
	n, err := s.GetNote(ctx, owner, noteID)
	if err != nil {
		return nil, err
	}
	return s.ResolveLinks(ctx, owner, n.Content)
}

func (s *Store) ResolveLinks(ctx context.Context, owner, content string) ([]OutgoingLink, error) {
	found := links.Extract(content)
	out := make([]OutgoingLink, 0, len(found))
	cache := map[string]*string{}
	for _, l := range found {
		key := links.Fold(l.Target)
		id, ok := cache[key]
		if !ok {
			target, err := s.FindNoteByTitle(ctx, owner, l.Target)
			switch {
			case err == nil:
				id = &target.ID
			case errors.Is(err, ErrNotFound):
			default:
				return nil, err
			}
			cache[key] = id
		}
		out = append(out, OutgoingLink{Target: l.Target, Display: l.Display, NoteID: id, Resolved: id != nil})
	}
	return out, nil
}
