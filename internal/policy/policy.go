// Package policy decides what a lint cycle does with its results: whether
// fixes are written, whether findings are reported, and whether the build
// halts.
package policy

import (
	"github.com/justrnr500/buildlint/internal/lint"
)

// Config holds the flags that drive the policy. It does not change during a
// build.
type Config struct {
	// Fix writes engine autofixes back to the source files.
	Fix bool

	// ThrowOnError halts the build when a file has lint errors. It also
	// decides whether configuration errors propagate, see HandleConfigError.
	ThrowOnError bool

	// ThrowOnWarning halts the build when a file has lint warnings.
	ThrowOnWarning bool

	// StrictConfigErrors makes configuration errors propagate regardless of
	// ThrowOnError.
	StrictConfigErrors bool
}

// DefaultConfig returns the policy used when nothing is configured: errors
// halt the build, warnings do not, and fixes are not written.
func DefaultConfig() Config {
	return Config{ThrowOnError: true}
}

// State is the position of a file in its lint cycle.
type State int

const (
	// Pending means the file has not been linted.
	Pending State = iota
	// FilteredOut means the path filter rejected the file.
	FilteredOut
	// Ignored means the engine's own ignore rules skipped the file.
	Ignored
	// Clean means the engine reported no errors and no warnings.
	Clean
	// Flagged means the engine reported at least one error or warning.
	Flagged
)

var stateNames = map[State]string{
	Pending:     "pending",
	FilteredOut: "filtered-out",
	Ignored:     "ignored",
	Clean:       "clean",
	Flagged:     "flagged",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Decision is the outcome of evaluating one file's results.
type Decision struct {
	State    State
	Errors   int
	Warnings int

	// Fix is true when fixed output must be written to storage. It can be
	// set on a Clean decision when every finding was fixed.
	Fix bool

	// Report is true when the results must be formatted and emitted.
	Report bool

	// Abort is true when the build must halt.
	Abort bool
}

// Evaluate applies cfg to the results of linting one file.
func Evaluate(cfg Config, results []lint.Result) Decision {
	errs, warns := lint.Counts(results)
	d := Decision{
		State:    Clean,
		Errors:   errs,
		Warnings: warns,
		Fix:      cfg.Fix && lint.AnyFixes(results),
	}
	if errs == 0 && warns == 0 {
		return d
	}

	d.State = Flagged
	d.Report = true
	d.Abort = (errs > 0 && cfg.ThrowOnError) || (warns > 0 && cfg.ThrowOnWarning)
	return d
}

// Err returns the build-halting error for path, or nil when the decision
// does not abort.
func (d Decision) Err(path string) error {
	if !d.Abort {
		return nil
	}
	return &FindingError{Path: path, Errors: d.Errors, Warnings: d.Warnings}
}
