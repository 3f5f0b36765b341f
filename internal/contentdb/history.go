package contentdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Apply outcomes recorded in the journal.
const (
	OutcomeApplied = "applied"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// ApplyRecord is one journaled item of an apply run.
type ApplyRecord struct {
	RunID      string
	Operation  string
	EntityID   string
	Detail     string
	Outcome    string
	Error      string
	RecordedAt time.Time
}

// RecordApply appends records to the apply journal in one transaction.
func (s *Store) RecordApply(ctx context.Context, records []ApplyRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.inTx(ctx, "journal", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO apply_log
        (run_id, operation, entity_id, detail, outcome, error, recorded_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare journal insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range records {
			at := r.RecordedAt
			if at.IsZero() {
				at = time.Now()
			}
			errText := sql.NullString{String: r.Error, Valid: r.Error != ""}
			if _, err := stmt.ExecContext(ctx, r.RunID, r.Operation, r.EntityID, r.Detail, r.Outcome,
				errText, at.UTC().Format(time.RFC3339Nano)); err != nil {
				return fmt.Errorf("journal %s/%s: %w", r.RunID, r.EntityID, err)
			}
		}
		return nil
	})
}

// ApplyRun summarizes one journaled apply run.
type ApplyRun struct {
	RunID     string
	Operation string
	Applied   int
	Skipped   int
	Failed    int
	StartedAt time.Time
}

// ApplyHistory returns the most recent apply runs, newest first.
func (s *Store) ApplyHistory(ctx context.Context, limit int) ([]ApplyRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, operation,
            SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
            SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
            SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
            MIN(recorded_at)
        FROM apply_log
        GROUP BY run_id, operation
        ORDER BY MIN(id) DESC
        LIMIT ?`, OutcomeApplied, OutcomeSkipped, OutcomeFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("apply history: %w", err)
	}
	defer rows.Close()

	var out []ApplyRun
	for rows.Next() {
		var (
			run     ApplyRun
			started string
		)
		if err := rows.Scan(&run.RunID, &run.Operation, &run.Applied, &run.Skipped, &run.Failed, &started); err != nil {
			return nil, fmt.Errorf("scan apply run: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, started); err == nil {
			run.StartedAt = ts
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
