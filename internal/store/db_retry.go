package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

type rowScanner interface {
	Scan(dest ...any) error
}

type retryRow struct {
	store  *Store
	ctx    context.Context
	query  func() *sql.Row
	text   string
	caller string
}

func (r retryRow) Scan(dest ...any) error {
	return r.store.retry(r.ctx, "query row", r.text, func() error {
		return r.query().Scan(dest...)
	})
}

// retry runs fn until it succeeds, fails with a non-busy error, or the lock timeout passes.
func (s *Store) retry(ctx context.Context, op, query string, fn func() error) error {
	start := time.Now()
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !isSQLiteBusy(err) {
			slog.Debug("sql "+op+" done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err)
			return err
		}
		slog.Debug("sql "+op+" busy", "query", query, "attempt", attempt+1, "err", err)
		if s.lockTimeout <= 0 {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Since(start) >= s.lockTimeout {
			return fmt.Errorf("%s: %w", op, err)
		}
		time.Sleep(retryDelay(attempt))
	}
}

func (s *Store) queryRowContext(ctx context.Context, query string, args ...any) rowScanner {
	caller := callerOf(2)
	slog.Debug("sql query row", "query", query, "args", args, "caller", caller)
	return retryRow{
		store:  s,
		ctx:    ctx,
		query:  func() *sql.Row { return s.db.QueryRowContext(ctx, query, args...) },
		text:   query,
		caller: caller,
	}
}

func (s *Store) queryRowContextTx(ctx context.Context, tx *sql.Tx, query string, args ...any) rowScanner {
	caller := callerOf(2)
	slog.Debug("sql query row tx", "query", query, "args", args, "caller", caller)
	return retryRow{
		store:  s,
		ctx:    ctx,
		query:  func() *sql.Row { return tx.QueryRowContext(ctx, query, args...) },
		text:   query,
		caller: caller,
	}
}

func (s *Store) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	slog.Debug("sql exec", "query", query, "args", args)
	var res sql.Result
	err := s.retry(ctx, "exec", query, func() error {
		var err error
		res, err = s.db.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

func (s *Store) execContextTx(ctx context.Context, tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	slog.Debug("sql exec tx", "query", query, "args", args)
	var res sql.Result
	err := s.retry(ctx, "exec tx", query, func() error {
		var err error
		res, err = tx.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

func (s *Store) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	slog.Debug("sql query", "query", query, "args", args)
	var rows *sql.Rows
	err := s.retry(ctx, "query", query, func() error {
		var err error
		rows, err = s.db.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

func (s *Store) queryContextTx(ctx context.Context, tx *sql.Tx, query string, args ...any) (*sql.Rows, error) {
	slog.Debug("sql query tx", "query", query, "args", args)
	var rows *sql.Rows
	err := s.retry(ctx, "query tx", query, func() error {
		var err error
		rows, err = tx.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

func retryDelay(attempt int) time.Duration {
	delay := time.Duration(attempt+1) * 40 * time.Millisecond
	if delay > 300*time.Millisecond {
		delay = 300 * time.Millisecond
	}
	return delay
}

func (s *Store) beginTx(ctx context.Context, name string) (*sql.Tx, time.Time, error) {
	start := time.Now()
	slog.Debug("sql tx begin", "op", name)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("sql tx begin failed", "op", name, "err", err)
		return nil, start, err
	}
	return tx, start, nil
}

func (s *Store) commitTx(tx *sql.Tx, name string, start time.Time) error {
	if tx == nil {
		return sql.ErrTxDone
	}
	err := tx.Commit()
	slog.Debug("sql tx commit", "op", name, "duration_ms", time.Since(start).Milliseconds(), "err", err)
	return err
}

func (s *Store) rollbackTx(tx *sql.Tx, name string, start time.Time) {
	if tx == nil {
		return
	}
	err := tx.Rollback()
	if err == nil || err == sql.ErrTxDone {
		return
	}
	slog.Warn("sql tx rollback failed", "op", name, "duration_ms", time.Since(start).Milliseconds(), "err", err)
}

func callerOf(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return file + ":" + fmt.Sprint(line)
}
