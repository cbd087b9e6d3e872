package cmd

import (
	"errors"
	"fmt"
	"strings"
)

// ExitCoder is implemented by errors that carry a specific process exit code.
type ExitCoder interface {
	ExitCode() int
}

// GradeThresholdError reports targets that were evaluated but graded D or F.
type GradeThresholdError struct {
	Targets []string
}

func (e *GradeThresholdError) Error() string {
	if len(e.Targets) == 1 {
		return fmt.Sprintf("%s received a failing grade", e.Targets[0])
	}
	return fmt.Sprintf("%d targets received a failing grade: %s", len(e.Targets), strings.Join(e.Targets, ", "))
}

// ExitCode returns 2 so callers can tell a weak policy apart from a broken run.
func (e *GradeThresholdError) ExitCode() int { return 2 }

// FetchFailedError reports targets whose headers could not be obtained.
type FetchFailedError struct {
	Targets []string
}

func (e *FetchFailedError) Error() string {
	if len(e.Targets) == 1 {
		return fmt.Sprintf("could not fetch headers for %s", e.Targets[0])
	}
	return fmt.Sprintf("could not fetch headers for %d targets: %s", len(e.Targets), strings.Join(e.Targets, ", "))
}

// ExitCode returns 1.
func (e *FetchFailedError) ExitCode() int { return 1 }

// ExitCodeFromError maps an error returned by a command to a process exit code.
func ExitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}
