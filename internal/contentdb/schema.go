package contentdb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in PRAGMA user_version. Bump it with every
// schema.sql change.
const schemaVersion = 1

// ErrSchemaMismatch is returned by Open for a database written by a
// different schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// migrate creates the schema in an empty database and rejects databases
// stamped with another version.
func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch version {
	case schemaVersion:
		return nil
	case 0:
		return s.inTx(ctx, "schema", func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
				return fmt.Errorf("stamp schema version: %w", err)
			}
			return nil
		})
	default:
		return fmt.Errorf("%w: database has version %d, expected %d (re-import into a new database)",
			ErrSchemaMismatch, version, schemaVersion)
	}
}
