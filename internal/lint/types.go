package lint

import (
	"context"
	"strconv"
)

// =============================================================================
// SEVERITY
// =============================================================================

// Severity is ESLint's numeric message severity.
type Severity int

const (
	SeverityOff     Severity = 0
	SeverityWarning Severity = 1
	SeverityError   Severity = 2
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityOff:
		return "off"
	default:
		return "unknown"
	}
}

// =============================================================================
// RESULTS
// =============================================================================

// Fix is a text replacement the engine can apply on its own.
type Fix struct {
	Range [2]int `json:"range"`
	Text  string `json:"text"`
}

// Message is a single finding within a Result.
type Message struct {
	RuleID    string   `json:"ruleId"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Line      int      `json:"line"`
	Column    int      `json:"column"`
	EndLine   int      `json:"endLine,omitempty"`
	EndColumn int      `json:"endColumn,omitempty"`
	Fatal     bool     `json:"fatal,omitempty"`
	Fix       *Fix     `json:"fix,omitempty"`
}

// Fixable reports whether the engine attached a fix to the message.
func (m *Message) Fixable() bool {
	return m.Fix != nil
}

// Location returns "line:col", or just the line when no column is known.
func (m *Message) Location() string {
	if m.Column > 0 {
		return strconv.Itoa(m.Line) + ":" + strconv.Itoa(m.Column)
	}
	return strconv.Itoa(m.Line)
}

// Result is the engine's report for one file.
type Result struct {
	FilePath            string    `json:"filePath"`
	Messages            []Message `json:"messages"`
	ErrorCount          int       `json:"errorCount"`
	FatalErrorCount     int       `json:"fatalErrorCount,omitempty"`
	WarningCount        int       `json:"warningCount"`
	FixableErrorCount   int       `json:"fixableErrorCount"`
	FixableWarningCount int       `json:"fixableWarningCount"`

	// Output is the fixed source. It is only set when fixes were applied.
	Output string `json:"output,omitempty"`

	// Source is the original text, when the engine echoes it.
	Source string `json:"source,omitempty"`
}

// HasFixes reports whether the engine produced fixed output for the file.
func (r *Result) HasFixes() bool {
	return r.Output != ""
}

// Flagged reports whether the result carries any error or warning.
func (r *Result) Flagged() bool {
	return r.ErrorCount > 0 || r.WarningCount > 0
}

// Counts sums error and warning counts across results.
func Counts(results []Result) (errors, warnings int) {
	for i := range results {
		errors += results[i].ErrorCount
		warnings += results[i].WarningCount
	}
	return errors, warnings
}

// AnyFixes reports whether any result carries fixed output.
func AnyFixes(results []Result) bool {
	for i := range results {
		if results[i].HasFixes() {
			return true
		}
	}
	return false
}

// FixableCounts sums the fixable error and warning counts across results.
func FixableCounts(results []Result) (errors, warnings int) {
	for i := range results {
		errors += results[i].FixableErrorCount
		warnings += results[i].FixableWarningCount
	}
	return errors, warnings
}

// =============================================================================
// ENGINE
// =============================================================================

// LintTextOptions configures a LintText call.
type LintTextOptions struct {
	// FilePath is the path the source belongs to. The engine uses it to pick
	// configuration and to label results.
	FilePath string
}

// Engine is the external lint engine contract.
type Engine interface {
	// IsPathIgnored reports whether the engine's own ignore rules skip path.
	IsPathIgnored(ctx context.Context, path string) (bool, error)

	// LintText lints code as if it were the contents of opts.FilePath.
	LintText(ctx context.Context, code string, opts LintTextOptions) ([]Result, error)

	// LoadFormatter resolves a formatter by name.
	LoadFormatter(ctx context.Context, name string) (Formatter, error)

	// OutputFixes writes fixed output for every result that has some.
	OutputFixes(ctx context.Context, results []Result) error
}
