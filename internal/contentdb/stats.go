package contentdb

import (
	"context"
	"fmt"

	"sieve/internal/asset"
)

// Stats summarizes the content graph.
type Stats struct {
	EntitiesByKind map[asset.Kind]int
	Anchors        int
	References     int
	Groups         int
	TotalBytes     int64
}

// Entities returns the total entity count.
func (s Stats) Entities() int {
	total := 0
	for _, n := range s.EntitiesByKind {
		total += n
	}
	return total
}

// Stats computes counts for status reporting.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{EntitiesByKind: make(map[asset.Kind]int)}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(1), COALESCE(SUM(size_bytes), 0) FROM entities GROUP BY kind`)
	if err != nil {
		return Stats{}, fmt.Errorf("count entities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			kind  string
			count int
			bytes int64
		)
		if err := rows.Scan(&kind, &count, &bytes); err != nil {
			return Stats{}, fmt.Errorf("scan entity counts: %w", err)
		}
		stats.EntitiesByKind[asset.Kind(kind)] = count
		stats.TotalBytes += bytes
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM entities WHERE is_anchor = 1`).Scan(&stats.Anchors); err != nil {
		return Stats{}, fmt.Errorf("count anchors: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM refs`).Scan(&stats.References); err != nil {
		return Stats{}, fmt.Errorf("count references: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT group_id) FROM entities WHERE group_id != ''`).Scan(&stats.Groups); err != nil {
		return Stats{}, fmt.Errorf("count groups: %w", err)
	}
	return stats, nil
}
