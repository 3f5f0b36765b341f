package contentdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"sieve/internal/asset"
	"sieve/internal/depgraph"
	"sieve/internal/logging"
)

const entityBatchSize = 500

// DirectReferences returns the existing entities id references, in reference order.
func (s *Store) DirectReferences(ctx context.Context, id asset.ID) ([]asset.ID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT r.target_id FROM refs r
        JOIN entities e ON e.id = r.target_id
        WHERE r.source_id = ?
        ORDER BY r.ordinal, r.target_id`, string(id))
	if err != nil {
		return nil, fmt.Errorf("direct references of %s: %w", id, err)
	}
	defer rows.Close()

	var out []asset.ID
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		out = append(out, asset.ID(target))
	}
	return out, rows.Err()
}

// Dependencies returns every entity transitively referenced by e, excluding e,
// in depth-first reference order. Cycles are logged and skipped.
func (s *Store) Dependencies(ctx context.Context, e asset.Entity) ([]asset.Entity, error) {
	result, err := depgraph.Closure(ctx, e.ID, depgraph.Config[asset.ID]{Next: s.DirectReferences})
	if err != nil {
		return nil, fmt.Errorf("dependencies of %s: %w", e.ID, err)
	}
	for _, cycle := range result.Cycles {
		logging.WarnWithContext(s.logger, "dependency cycle skipped", "dependency_cycle",
			logging.EntityID(e.ID),
			logging.String("from", string(cycle.From)),
			logging.String("to", string(cycle.To)),
			logging.Error(cycle.Err()),
			logging.String(logging.FieldErrorHint, "break the circular reference in the project"),
			logging.String(logging.FieldImpact, "closing edge ignored; classification continues"),
		)
	}
	return s.entitiesByID(ctx, result.Nodes)
}

// entitiesByID loads entities preserving the order of ids; unknown IDs are skipped.
func (s *Store) entitiesByID(ctx context.Context, ids []asset.ID) ([]asset.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	byID := make(map[asset.ID]asset.Entity, len(ids))
	for start := 0; start < len(ids); start += entityBatchSize {
		end := min(start+entityBatchSize, len(ids))
		batch := ids[start:end]
		placeholders := make([]string, len(batch))
		args := make([]any, len(batch))
		for i, id := range batch {
			placeholders[i] = "?"
			args[i] = string(id)
		}
		entities, err := s.queryEntities(ctx,
			`SELECT `+entityColumns+` FROM entities WHERE id IN (`+strings.Join(placeholders, ",")+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("load entities: %w", err)
		}
		for _, e := range entities {
			byID[e.ID] = e
		}
	}

	out := make([]asset.Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// AddReference records that source depends on target.
func (s *Store) AddReference(ctx context.Context, source, target asset.ID, ordinal int) error {
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO refs (source_id, target_id, ordinal) VALUES (?, ?, ?)
         ON CONFLICT(source_id, target_id) DO UPDATE SET ordinal = excluded.ordinal`,
		string(source), string(target), ordinal); err != nil {
		return fmt.Errorf("add reference %s -> %s: %w", source, target, err)
	}
	return nil
}

// RetargetReferences points every reference to from at to instead and returns
// how many referencing entities were updated. A source that already
// references to keeps its existing edge.
func (s *Store) RetargetReferences(ctx context.Context, from, to asset.ID) (int, error) {
	var total int64
	err := s.inTx(ctx, "retarget "+string(from), func(tx *sql.Tx) error {
		total = 0
		for _, step := range []struct {
			query string
			args  []any
		}{
			{`UPDATE OR IGNORE refs SET target_id = ? WHERE target_id = ?`, []any{string(to), string(from)}},
			{`DELETE FROM refs WHERE target_id = ?`, []any{string(from)}},
		} {
			res, err := tx.ExecContext(ctx, step.query, step.args...)
			if err != nil {
				return fmt.Errorf("retarget references %s -> %s: %w", from, to, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

// Referrers returns the IDs of entities that directly reference id, ordered by ID.
func (s *Store) Referrers(ctx context.Context, id asset.ID) ([]asset.ID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id FROM refs WHERE target_id = ? ORDER BY source_id`, string(id))
	if err != nil {
		return nil, fmt.Errorf("referrers of %s: %w", id, err)
	}
	defer rows.Close()

	var out []asset.ID
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("scan referrer: %w", err)
		}
		out = append(out, asset.ID(source))
	}
	return out, rows.Err()
}
