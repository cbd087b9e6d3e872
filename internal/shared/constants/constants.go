package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// DefaultFetchTimeout bounds a single header fetch.
	DefaultFetchTimeout = 10 * time.Second
	// DefaultUserAgent identifies the validator to the servers it inspects.
	DefaultUserAgent = "Security Headers Validator/1.0"
	// MaxRedirects caps redirect chains when redirects are followed.
	MaxRedirects = 10
	// BodyDrainLimitBytes caps how much of a response body is drained before closing.
	BodyDrainLimitBytes = 64 * 1024
)

const (
	// HSTSMinMaxAge is the one-year floor for Strict-Transport-Security max-age, in seconds.
	HSTSMinMaxAge = 31536000
	// PointsPerHeader is what every required header contributes to the maximum score.
	PointsPerHeader = 10
	// PointsForWarning is awarded to a required header that validated with warnings.
	PointsForWarning = 5
)

const (
	// HistoryFilename is the append-only evaluation log kept in the results directory.
	HistoryFilename = "history.jsonl"
	// LockRetryDelay is the polling interval used while waiting on a file lock.
	LockRetryDelay = 50 * time.Millisecond
)
