package apply_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sieve/internal/apply"
)

func TestManifestCountsAndErr(t *testing.T) {
	m := apply.NewManifest("regroup", false)
	require.NotEmpty(t, m.RunID)
	assert.NoError(t, m.Err())

	m.Record(apply.Item{EntityID: "a", Outcome: apply.OutcomeApplied})
	m.Record(apply.Item{EntityID: "b", Outcome: apply.OutcomeSkipped})
	m.Record(apply.Item{EntityID: "c", Outcome: apply.OutcomeFailed, Err: errors.New("locked")})
	m.Record(apply.Item{EntityID: "d", Outcome: apply.OutcomeFailed, Err: errors.New("gone")})
	m.Finish()

	assert.Equal(t, apply.Counts{Applied: 1, Skipped: 1, Failed: 2}, m.Counts())
	err := m.Err()
	require.ErrorIs(t, err, apply.ErrPartialApply)
	assert.Contains(t, err.Error(), "completed with 2 failures")
	require.Len(t, m.Failures(), 2)
	assert.Equal(t, "c", string(m.Failures()[0].EntityID))
	assert.False(t, m.FinishedAt.Before(m.StartedAt))
}

func TestManifestRunIDsAreUnique(t *testing.T) {
	assert.NotEqual(t, apply.NewManifest("x", true).RunID, apply.NewManifest("x", true).RunID)
}

func TestLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks", "apply.lock")
	first := apply.NewLock(path)
	second := apply.NewLock(path)

	require.NoError(t, first.TryAcquire())
	err := second.TryAcquire()
	assert.ErrorIs(t, err, apply.ErrLocked)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, second.Acquire(ctx), apply.ErrLocked)

	require.NoError(t, first.Release())
	require.NoError(t, second.Acquire(context.Background()))
	require.NoError(t, second.Release())
}
