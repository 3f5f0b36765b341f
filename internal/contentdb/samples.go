package contentdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sieve/internal/asset"
)

// LoadContent returns the raw PCM payload stored for an audio entity.
func (s *Store) LoadContent(ctx context.Context, e asset.Entity) ([]byte, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT samples FROM audio_content WHERE entity_id = ?`, string(e.ID)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no content stored for %s", ErrEntityNotFound, e.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("load content %s: %w", e.ID, err)
	}
	return raw, nil
}

// PutSamples stores interleaved PCM samples for an audio entity.
func (s *Store) PutSamples(ctx context.Context, id asset.ID, samples []float32) error {
	if err := putContent(ctx, s.db, id, asset.EncodeSamples(samples)); err != nil {
		return fmt.Errorf("store samples %s: %w", id, err)
	}
	return nil
}

func putContent(ctx context.Context, db execer, id asset.ID, raw []byte) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO audio_content (entity_id, samples) VALUES (?, ?)
         ON CONFLICT(entity_id) DO UPDATE SET samples = excluded.samples`,
		string(id), raw)
	return err
}
