package filelock

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	sharedErrors "github.com/khanhnv2901/seca-headers/internal/shared/errors"
)

func TestWith_RunsAndReleases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")

	calls := 0
	for i := 0; i < 2; i++ {
		if err := With(context.Background(), path, func() error {
			calls++
			return nil
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("expected fn to run twice, got %d", calls)
	}
}

func TestWith_PropagatesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.yaml")
	boom := errors.New("boom")
	if err := With(context.Background(), path, func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("expected fn error, got %v", err)
	}
}

func TestAcquire_TimesOutWhileHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")

	held := ForFile(path)
	if err := held.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	err := ForFile(path).Acquire(ctx)
	if !errors.Is(err, sharedErrors.ErrFileLocked) {
		t.Errorf("expected ErrFileLocked, got %v", err)
	}
}
