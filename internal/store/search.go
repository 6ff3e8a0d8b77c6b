package store

import (
	"context"
	"strings"
)

type SearchResult struct {
	NoteID  string `json:"note_id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Search runs a full-text query over the owner's titles and bodies.
// Every term is quoted so user input never reaches the fts5 query grammar.
func (s *Store) Search(ctx context.Context, owner, query string, limit int) ([]SearchResult, error) {
	match := ftsQuery(query)
	if match == "" {
		return []SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.queryContext(ctx, `
		SELECT note_id, title, snippet(fts, 3, '', '', '...', 10)
		FROM fts
		WHERE fts MATCH ? AND owner = ?
		ORDER BY rank
		LIMIT ?`, match, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.NoteID, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func ftsQuery(query string) string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, `""`)
		terms = append(terms, `"`+f+`"`)
	}
	return strings.Join(terms, " ")
}
