package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrFolderCycle  = errors.New("folder cannot be moved into itself")
)

type Store struct {
	db          *sql.DB
	lockTimeout time.Duration
	now         func() time.Time
}

type OpenOptions struct {
	BusyTimeout time.Duration
}

func Open(path string) (*Store, error) {
	return OpenWithOptions(path, OpenOptions{})
}

func OpenWithOptions(path string, opts OpenOptions) (*Store, error) {
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// One connection serialises writers inside the process; the busy retry covers other processes.
	db.SetMaxOpenConns(1)
	return &Store{db: db, lockTimeout: busy, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) SetLockTimeout(d time.Duration) {
	s.lockTimeout = d
}

// SetClock replaces the time source used for created/updated stamps.
func (s *Store) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.execContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	version, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if version == schemaVersion {
		return nil
	}
	slog.Info("store schema changed, rebuilding derived tables", "from", version, "to", schemaVersion)
	if err := s.RebuildDerived(ctx); err != nil {
		return err
	}
	return s.setSchemaVersion(ctx, schemaVersion)
}

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.queryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (s *Store) setSchemaVersion(ctx context.Context, v int) error {
	if _, err := s.execContext(ctx, "DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := s.execContext(ctx, "INSERT INTO schema_version(version) VALUES(?)", v)
	return err
}

// RebuildDerived recomputes the links and fts tables from note content.
func (s *Store) RebuildDerived(ctx context.Context) error {
	tx, start, err := s.beginTx(ctx, "rebuild-derived")
	if err != nil {
		return err
	}
	defer s.rollbackTx(tx, "rebuild-derived", start)

	for _, stmt := range []string{"DELETE FROM links", "DELETE FROM fts"} {
		if _, err := s.execContextTx(ctx, tx, stmt); err != nil {
			return err
		}
	}
	rows, err := s.queryContextTx(ctx, tx, "SELECT id, owner, title, content FROM notes")
	if err != nil {
		return err
	}
	var all []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Owner, &n.Title, &n.Content); err != nil {
			rows.Close()
			return err
		}
		all = append(all, n)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	for i := range all {
		if err := s.indexNoteTx(ctx, tx, &all[i]); err != nil {
			return err
		}
	}
	return s.commitTx(tx, "rebuild-derived", start)
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func isSQLiteBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	return false
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	v := ns.String
	return &v
}

func fromUnixNano(v int64) time.Time {
	return time.Unix(0, v).UTC()
}
