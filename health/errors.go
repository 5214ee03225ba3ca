package health

import (
	"errors"
	"fmt"
)

// Check failure causes produced by the aggregator itself. Their text ends up
// in readiness bodies after the dependency label, so they carry no package
// prefix.
var (
	// ErrCheckFailed is substituted when a check fails without a cause.
	ErrCheckFailed = errors.New("check failed")

	// ErrCheckTimeout indicates a check exceeded its time limit.
	ErrCheckTimeout = errors.New("check timed out")

	// ErrCheckPanicked indicates a check panicked.
	ErrCheckPanicked = errors.New("check panicked")
)

// Construction errors.
var (
	// ErrMissingChecker indicates a nil checker was passed to the aggregator.
	ErrMissingChecker = errors.New("health: checker is nil")

	// ErrCheckerMismatch indicates a checker was passed in the wrong slot.
	ErrCheckerMismatch = errors.New("health: checker name does not match its slot")
)

// VerificationError reports that a dependency was reachable but answered
// incorrectly.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string {
	return e.Reason
}

// Verification builds a VerificationError from a format string.
func Verification(format string, args ...any) error {
	return &VerificationError{Reason: fmt.Sprintf(format, args...)}
}

// IsVerification reports whether err is, or wraps, a VerificationError.
func IsVerification(err error) bool {
	var ve *VerificationError
	return errors.As(err, &ve)
}
