package cli

import (
	"errors"
	"fmt"
)

// ExitError represents a command failure with a specific exit code.
//
// Cobra RunE functions return it to signal a non-zero exit without calling
// os.Exit directly. It propagates up to [Run], where [IsExitError] extracts
// the code for [ExecuteResult]. The failure it wraps has already been
// reported to the user by the command that returned it.
type ExitError struct {
	// Code is the exit code to return to the shell: 1 for general errors, or
	// the exit code of the subprocess that failed a stage.
	Code int

	// Err is the underlying failure, if any.
	Err error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("exit status %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying failure.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an [ExitError] with the given exit code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// exitWith wraps an already reported failure with its exit code.
func exitWith(code int, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}

// IsExitError checks if err is or wraps an [ExitError] and extracts its exit
// code. It returns (0, false) for nil and for other errors.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
