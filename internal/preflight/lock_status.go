package preflight

import (
	"context"
	"errors"

	"sieve/internal/apply"
)

// CheckApplyLock reports whether another process currently holds the apply
// lock. The lock is taken and released immediately when free.
func CheckApplyLock(_ context.Context, path string) Result {
	const name = "Apply lock"

	if path == "" {
		return Result{Name: name, Detail: "lock path not configured"}
	}
	lock := apply.NewLock(path)
	err := lock.TryAcquire()
	switch {
	case errors.Is(err, apply.ErrLocked):
		return failed(name, path, "held by another process")
	case err != nil:
		return failed(name, path, "%v", err)
	}
	if err := lock.Release(); err != nil {
		return failed(name, path, "release: %v", err)
	}
	return passed(name, path, "free")
}
