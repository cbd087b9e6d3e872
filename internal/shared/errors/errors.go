package errors

import "errors"

// Domain errors
var (
	// Policy errors
	ErrInvalidPolicy  = errors.New("invalid header policy")
	ErrUnknownProfile = errors.New("unknown policy profile")
	ErrDuplicateRule  = errors.New("duplicate header rule")
	ErrEmptyProfile   = errors.New("profile name cannot be empty")

	// Header source errors
	ErrFetchFailed   = errors.New("failed to fetch response headers")
	ErrEmptyTarget   = errors.New("target cannot be empty")
	ErrInvalidReplay = errors.New("invalid replay file")
	ErrNotInReplay   = errors.New("target not present in replay file")

	// File errors
	ErrFileLocked = errors.New("file is locked by another process")

	// Report errors
	ErrUnsupportedFormat = errors.New("unsupported report format")

	// Path errors
	ErrPathEscape = errors.New("path escapes base directory")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingRequired = errors.New("missing required field")
)
