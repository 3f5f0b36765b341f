package contentdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"

	"sieve/internal/logging"
)

// ErrEntityNotFound is returned when an operation targets an unknown entity.
var ErrEntityNotFound = errors.New("entity not found")

// Store is the SQLite-backed content graph: entities, references, decoded
// audio samples and the apply journal.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// connection pragmas, applied by the driver to every pooled connection.
var pragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
}

// busy retry schedule for writes that lose the lock race past busy_timeout.
var busyBackoff = []time.Duration{
	10 * time.Millisecond,
	20 * time.Millisecond,
	40 * time.Millisecond,
	80 * time.Millisecond,
	160 * time.Millisecond,
}

// Open connects to the content database at path, creating the file, its
// directory and the schema on first use.
func Open(path string, logger *slog.Logger) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("open content db: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure content db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	s := &Store{db: db, path: path, logger: logging.NewComponentLogger(logger, "contentdb")}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return "file:" + path + "?" + q.Encode()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close releases the connection pool. It is safe on a nil store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// primary result codes; extended codes carry them in the low byte.
const (
	codeBusy   = 5
	codeLocked = 6
)

func isBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code() & 0xff
		return code == codeBusy || code == codeLocked
	}
	return err != nil && strings.Contains(err.Error(), "database is locked")
}

// retry runs op until it succeeds, fails with a non-busy error, or the
// backoff schedule is exhausted.
func retry(ctx context.Context, op func() error) error {
	err := op()
	for _, wait := range busyBackoff {
		if !isBusy(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		err = op()
	}
	return err
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (res sql.Result, err error) {
	err = retry(ctx, func() error {
		res, err = s.db.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// inTx runs fn in a transaction and commits it, retrying the whole unit when
// SQLite reports the database busy. what names the unit in errors.
func (s *Store) inTx(ctx context.Context, what string, fn func(tx *sql.Tx) error) error {
	return retry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin %s: %w", what, err)
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", what, err)
		}
		return nil
	})
}

func nowTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
