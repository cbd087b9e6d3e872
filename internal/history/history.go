// Package history keeps an append-only log of evaluations in JSON Lines form.
// The log is an audit trail only; nothing reads it back into an evaluation.
package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/khanhnv2901/seca-headers/internal/checker"
	consts "github.com/khanhnv2901/seca-headers/internal/shared/constants"
	"github.com/khanhnv2901/seca-headers/internal/shared/filelock"
	"github.com/khanhnv2901/seca-headers/internal/shared/security"
)

// Record is one line of the history file.
type Record struct {
	RunID      string        `json:"run_id"`
	ID         string        `json:"id"`
	Timestamp  time.Time     `json:"timestamp"`
	URL        string        `json:"url"`
	Profile    string        `json:"profile,omitempty"`
	Score      int           `json:"score"`
	MaxScore   int           `json:"max_score"`
	Percentage float64       `json:"percentage"`
	Grade      checker.Grade `json:"grade,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Store appends to and reads from a history file.
type Store struct {
	path string
}

// NewStore returns a store for the history file inside dir.
func NewStore(dir string) (*Store, error) {
	path, err := security.ResolveWithin(dir, consts.HistoryFilename)
	if err != nil {
		return nil, fmt.Errorf("resolve history path: %w", err)
	}
	return &Store{path: path}, nil
}

// Path returns the history file location.
func (s *Store) Path() string { return s.path }

// RecordsFromOutcomes converts one run's outcomes into records that share a
// fresh run ID.
func RecordsFromOutcomes(outcomes []checker.Outcome, now time.Time) []Record {
	runID := uuid.NewString()
	records := make([]Record, 0, len(outcomes))
	for _, o := range outcomes {
		rec := Record{RunID: runID, ID: o.ID, Timestamp: now, URL: o.Target, Error: o.Error}
		if o.Result != nil {
			rec.Timestamp = o.Result.Timestamp
			rec.URL = o.Result.URL
			rec.Profile = o.Result.Profile
			rec.Score = o.Result.Score
			rec.MaxScore = o.Result.MaxScore
			rec.Percentage = o.Result.Percentage
			rec.Grade = o.Result.Grade
		}
		records = append(records, rec)
	}
	return records
}

// Append writes records to the end of the history file.
func (s *Store) Append(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := security.EnsureParentDir(s.path, consts.DefaultDirPerm); err != nil {
		return err
	}

	return filelock.With(ctx, s.path, func() error {
		f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, consts.DefaultFilePerm)
		if err != nil {
			return fmt.Errorf("open history file: %w", err)
		}
		w := bufio.NewWriter(f)
		enc := json.NewEncoder(w)
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				_ = f.Close()
				return fmt.Errorf("encode history record: %w", err)
			}
		}
		if err := w.Flush(); err != nil {
			_ = f.Close()
			return fmt.Errorf("write history file: %w", err)
		}
		return f.Close()
	})
}

// Recent returns up to limit records, newest last. A limit of zero or less
// returns everything. Lines that fail to decode are skipped.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	var records []Record
	err := filelock.With(ctx, s.path, func() error {
		f, err := os.Open(s.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("open history file: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			var rec Record
			if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
				continue
			}
			records = append(records, rec)
		}
		return scanner.Err()
	})
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}
