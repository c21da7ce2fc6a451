// Package linttest provides an in-memory lint.Engine for tests.
package linttest

import (
	"context"
	"sync"

	"github.com/justrnr500/buildlint/internal/lint"
)

// Engine is a scripted lint.Engine. Results and Ignored are keyed by the
// FilePath the caller passes. It records every call.
type Engine struct {
	mu sync.Mutex

	// Results returned by LintText, per path. Missing paths lint clean.
	Results map[string][]lint.Result

	// Ignored paths report true from IsPathIgnored.
	Ignored map[string]bool

	// Errors returned by the matching method, when set.
	LintErr      error
	IgnoreErr    error
	FormatterErr error
	FixErr       error
	ConfigErr    error

	// ConfigID is returned by Fingerprint. Changing it stands in for an
	// edited engine configuration.
	ConfigID string

	// Formatter returned by LoadFormatter. Defaults to a formatter that
	// lists "path: N problems".
	Formatter lint.Formatter

	// OnOutputFixes, when set, is called with the results passed to
	// OutputFixes.
	OnOutputFixes func(results []lint.Result) error

	LintCalls   []string
	IgnoreCalls []string
	Fixed       []lint.Result
	Formatters  []string
}

// New returns an engine with empty scripts.
func New() *Engine {
	return &Engine{
		Results: make(map[string][]lint.Result),
		Ignored: make(map[string]bool),
	}
}

// SetResults scripts the results for path.
func (e *Engine) SetResults(path string, results ...lint.Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Results[path] = results
}

func (e *Engine) IsPathIgnored(_ context.Context, path string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.IgnoreCalls = append(e.IgnoreCalls, path)
	if e.IgnoreErr != nil {
		return false, e.IgnoreErr
	}
	return e.Ignored[path], nil
}

func (e *Engine) LintText(_ context.Context, _ string, opts lint.LintTextOptions) ([]lint.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.LintCalls = append(e.LintCalls, opts.FilePath)
	if e.LintErr != nil {
		return nil, e.LintErr
	}
	results := e.Results[opts.FilePath]
	out := make([]lint.Result, len(results))
	copy(out, results)
	return out, nil
}

func (e *Engine) Fingerprint(context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ConfigErr != nil {
		return "", e.ConfigErr
	}
	return e.ConfigID, nil
}

func (e *Engine) LoadFormatter(_ context.Context, name string) (lint.Formatter, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Formatters = append(e.Formatters, name)
	if e.FormatterErr != nil {
		return nil, e.FormatterErr
	}
	if e.Formatter != nil {
		return e.Formatter, nil
	}
	return lint.FormatterFunc(Summarize), nil
}

func (e *Engine) OutputFixes(_ context.Context, results []lint.Result) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FixErr != nil {
		return e.FixErr
	}
	if e.OnOutputFixes != nil {
		if err := e.OnOutputFixes(results); err != nil {
			return err
		}
	}
	for _, r := range results {
		if r.HasFixes() {
			e.Fixed = append(e.Fixed, r)
		}
	}
	return nil
}

// LintCount returns how many times LintText ran.
func (e *Engine) LintCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.LintCalls)
}

// IgnoreCount returns how many times IsPathIgnored ran.
func (e *Engine) IgnoreCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.IgnoreCalls)
}

// Summarize formats one "path: N problems" line per result with findings.
func Summarize(results []lint.Result) (string, error) {
	var out string
	for _, r := range results {
		if !r.Flagged() {
			continue
		}
		out += r.FilePath + ": " + lint.Pluralize(r.ErrorCount+r.WarningCount, "problem") + "\n"
	}
	return out, nil
}

// Finding builds a result for path with one message per error and warning.
func Finding(path string, errs, warns int) lint.Result {
	r := lint.Result{FilePath: path, ErrorCount: errs, WarningCount: warns}
	for i := 0; i < errs; i++ {
		r.Messages = append(r.Messages, lint.Message{RuleID: "no-undef", Severity: lint.SeverityError, Message: "x is not defined", Line: i + 1, Column: 1})
	}
	for i := 0; i < warns; i++ {
		r.Messages = append(r.Messages, lint.Message{RuleID: "no-console", Severity: lint.SeverityWarning, Message: "Unexpected console statement.", Line: errs + i + 1, Column: 1})
	}
	return r
}
