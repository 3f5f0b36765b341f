package contentdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sieve/internal/asset"
)

const entityColumns = `id, kind, name, path, group_id, size_bytes, attributes_json, is_anchor, anchor_order`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (asset.Entity, error) {
	var (
		e        asset.Entity
		id       string
		kind     string
		group    string
		attrJSON string
		anchor   int
	)
	if err := row.Scan(&id, &kind, &e.Name, &e.Path, &group, &e.SizeBytes, &attrJSON, &anchor, &e.AnchorOrder); err != nil {
		return asset.Entity{}, err
	}
	e.ID = asset.ID(id)
	e.Kind = asset.Kind(kind)
	e.Group = asset.GroupID(group)
	e.Anchor = anchor != 0
	if attrJSON != "" && attrJSON != "{}" {
		if err := json.Unmarshal([]byte(attrJSON), &e.Attributes); err != nil {
			return asset.Entity{}, fmt.Errorf("decode attributes for %s: %w", id, err)
		}
	}
	return e, nil
}

func (s *Store) queryEntities(ctx context.Context, query string, args ...any) ([]asset.Entity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []asset.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FindEntities returns entities of the requested kinds ordered by ID. With no
// kinds every entity is returned.
func (s *Store) FindEntities(ctx context.Context, kinds ...asset.Kind) ([]asset.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities`
	args := make([]any, 0, len(kinds))
	if len(kinds) > 0 {
		placeholders := make([]string, len(kinds))
		for i, k := range kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		query += ` WHERE kind IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY id`

	entities, err := s.queryEntities(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find entities: %w", err)
	}
	return entities, nil
}

// Entity returns a single entity by ID.
func (s *Store) Entity(ctx context.Context, id asset.ID) (asset.Entity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = ?`, string(id))
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return asset.Entity{}, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	if err != nil {
		return asset.Entity{}, fmt.Errorf("get entity %s: %w", id, err)
	}
	return e, nil
}

// Anchors returns anchor entities ordered by anchor order, then ID.
func (s *Store) Anchors(ctx context.Context) ([]asset.Entity, error) {
	anchors, err := s.queryEntities(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE is_anchor = 1 ORDER BY anchor_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list anchors: %w", err)
	}
	return anchors, nil
}

// GroupMembers returns the entities currently placed in group, ordered by ID.
func (s *Store) GroupMembers(ctx context.Context, group asset.GroupID) ([]asset.Entity, error) {
	members, err := s.queryEntities(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE group_id = ? ORDER BY id`, string(group))
	if err != nil {
		return nil, fmt.Errorf("list group %s: %w", group, err)
	}
	return members, nil
}

// CurrentGroup returns the group an entity is placed in.
func (s *Store) CurrentGroup(ctx context.Context, id asset.ID) (asset.GroupID, error) {
	var group string
	err := s.db.QueryRowContext(ctx, `SELECT group_id FROM entities WHERE id = ?`, string(id)).Scan(&group)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("current group %s: %w", id, err)
	}
	return asset.GroupID(group), nil
}

// MoveToGroup places an entity in group.
func (s *Store) MoveToGroup(ctx context.Context, id asset.ID, group asset.GroupID) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE entities SET group_id = ?, updated_at = ? WHERE id = ?`,
		string(group), nowTimestamp(), string(id))
	if err != nil {
		return fmt.Errorf("move %s to %s: %w", id, group, err)
	}
	return requireAffected(res, id)
}

// SetAttributes merges attrs into the entity's attribute bag.
func (s *Store) SetAttributes(ctx context.Context, id asset.ID, attrs asset.Attributes) error {
	current, err := s.Entity(ctx, id)
	if err != nil {
		return err
	}
	merged := current.Attributes.Clone()
	if merged == nil {
		merged = asset.Attributes{}
	}
	for k, v := range attrs {
		merged[k] = v
	}
	payload, err := encodeAttributes(merged)
	if err != nil {
		return err
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE entities SET attributes_json = ?, updated_at = ? WHERE id = ?`,
		payload, nowTimestamp(), string(id))
	if err != nil {
		return fmt.Errorf("set attributes %s: %w", id, err)
	}
	return requireAffected(res, id)
}

// DeleteEntity removes an entity together with its outgoing references and
// decoded content.
func (s *Store) DeleteEntity(ctx context.Context, id asset.ID) error {
	return s.inTx(ctx, "delete "+string(id), func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM refs WHERE source_id = ?`,
			`DELETE FROM audio_content WHERE entity_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, string(id)); err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, string(id))
		if err != nil {
			return fmt.Errorf("delete entity %s: %w", id, err)
		}
		return requireAffected(res, id)
	})
}

// UpsertEntity inserts or replaces a single entity.
func (s *Store) UpsertEntity(ctx context.Context, e asset.Entity) error {
	if err := upsertEntity(ctx, s.db, e); err != nil {
		return fmt.Errorf("upsert entity %s: %w", e.ID, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertEntity(ctx context.Context, db execer, e asset.Entity) error {
	payload, err := encodeAttributes(e.Attributes)
	if err != nil {
		return err
	}
	anchor := 0
	if e.Anchor {
		anchor = 1
	}
	_, err = db.ExecContext(ctx, `INSERT INTO entities (`+entityColumns+`, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            kind = excluded.kind,
            name = excluded.name,
            path = excluded.path,
            group_id = excluded.group_id,
            size_bytes = excluded.size_bytes,
            attributes_json = excluded.attributes_json,
            is_anchor = excluded.is_anchor,
            anchor_order = excluded.anchor_order,
            updated_at = excluded.updated_at`,
		string(e.ID), string(e.Kind), e.Name, e.Path, string(e.Group), e.SizeBytes,
		payload, anchor, e.AnchorOrder, nowTimestamp())
	return err
}

func encodeAttributes(attrs asset.Attributes) (string, error) {
	if len(attrs) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("encode attributes: %w", err)
	}
	return string(data), nil
}

func requireAffected(res sql.Result, id asset.ID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return nil
}
