package lint

import (
	"errors"
	"fmt"
)

// Sentinel errors for the lint package.
var (
	// ErrEngineNotInstalled indicates the engine binary was not found.
	ErrEngineNotInstalled = errors.New("lint engine not installed")

	// ErrEngineTimeout indicates the engine exceeded its configured timeout.
	ErrEngineTimeout = errors.New("lint engine timeout")

	// ErrEngineFailed indicates the engine process failed to execute.
	ErrEngineFailed = errors.New("lint engine execution failed")

	// ErrParseOutput indicates the engine's JSON output could not be decoded.
	ErrParseOutput = errors.New("failed to parse lint engine output")

	// ErrUnknownFormatter indicates no formatter is registered under a name.
	ErrUnknownFormatter = errors.New("unknown formatter")

	// ErrConfigFileNotFound indicates the configured engine config file is missing.
	ErrConfigFileNotFound = errors.New("lint config file not found")
)

// EngineError wraps a failure of the engine process with context.
type EngineError struct {
	// Command is the engine executable that failed.
	Command string

	// Err is the underlying error.
	Err error

	// Output contains any stderr output from the engine.
	Output string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Output)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError creates an EngineError.
func NewEngineError(command string, err error) *EngineError {
	return &EngineError{Command: command, Err: err}
}

// WithOutput returns a copy of the error carrying stderr output.
func (e *EngineError) WithOutput(output string) *EngineError {
	return &EngineError{
		Command: e.Command,
		Err:     e.Err,
		Output:  output,
	}
}
