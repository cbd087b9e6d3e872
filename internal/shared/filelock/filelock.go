// Package filelock provides advisory locks for files shared between processes.
package filelock

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	consts "github.com/khanhnv2901/seca-headers/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/seca-headers/internal/shared/errors"
)

// Locker abstracts the subset of flock.Flock used here.
type Locker interface {
	TryLockContext(ctx context.Context, retryDelay time.Duration) (bool, error)
	Unlock() error
}

// Lock guards a single path.
type Lock struct {
	locker Locker
	path   string
}

// ForFile returns a lock for path, backed by a sibling "<path>.lock" file.
func ForFile(path string) *Lock {
	lockPath := path + ".lock"
	return &Lock{locker: flock.New(lockPath), path: lockPath}
}

// Acquire blocks until the lock is held or ctx ends.
func (l *Lock) Acquire(ctx context.Context) error {
	ok, err := l.locker.TryLockContext(ctx, consts.LockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s: %w", sharedErrors.ErrFileLocked, l.path, ctx.Err())
		}
		return fmt.Errorf("acquiring lock %s: %w", l.path, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", sharedErrors.ErrFileLocked, l.path)
	}
	return nil
}

// Release unlocks the file.
func (l *Lock) Release() error {
	if err := l.locker.Unlock(); err != nil {
		return fmt.Errorf("releasing lock %s: %w", l.path, err)
	}
	return nil
}

// With runs fn while holding the lock for path.
func With(ctx context.Context, path string, fn func() error) (err error) {
	l := ForFile(path)
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer func() {
		if rerr := l.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn()
}
