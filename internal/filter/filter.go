// Package filter decides which file paths are linted from include and
// exclude pattern lists.
package filter

import (
	"regexp"

	"github.com/justrnr500/buildlint/internal/pattern"
)

// Filter is a compiled include/exclude pair. It holds no mutable state and
// is safe for concurrent use.
type Filter struct {
	include []compiled
	exclude []compiled
}

type compiled struct {
	source pattern.Pattern
	re     *regexp.Regexp
}

// New compiles include and exclude patterns into a Filter.
// A nil or empty include list means every path not excluded is included.
func New(include, exclude []pattern.Pattern) *Filter {
	return &Filter{
		include: compileAll(include),
		exclude: compileAll(exclude),
	}
}

func compileAll(ps []pattern.Pattern) []compiled {
	if len(ps) == 0 {
		return nil
	}
	out := make([]compiled, len(ps))
	for i, p := range ps {
		out[i] = compiled{source: p, re: pattern.Compile(p)}
	}
	return out
}

// Match reports whether path should be linted. Exclude patterns are checked
// first and always win.
func (f *Filter) Match(path string) bool {
	return f.Explain(path).Included
}

// Reason names the rule that decided a Verdict.
type Reason string

const (
	ReasonExcluded   Reason = "excluded"
	ReasonNoIncludes Reason = "no include patterns"
	ReasonIncluded   Reason = "included"
	ReasonNotMatched Reason = "matched no include pattern"
)

// Verdict explains a filter decision.
type Verdict struct {
	Path     string `json:"path"`
	Included bool   `json:"included"`
	Reason   Reason `json:"reason"`
	// Pattern is the pattern that decided the outcome, empty when no single
	// pattern did.
	Pattern string `json:"pattern,omitempty"`
}

// Explain returns the decision for path along with the pattern responsible.
func (f *Filter) Explain(path string) Verdict {
	for _, c := range f.exclude {
		if c.re.MatchString(path) {
			return Verdict{Path: path, Included: false, Reason: ReasonExcluded, Pattern: c.source.String()}
		}
	}

	if len(f.include) == 0 {
		return Verdict{Path: path, Included: true, Reason: ReasonNoIncludes}
	}

	for _, c := range f.include {
		if c.re.MatchString(path) {
			return Verdict{Path: path, Included: true, Reason: ReasonIncluded, Pattern: c.source.String()}
		}
	}

	return Verdict{Path: path, Included: false, Reason: ReasonNotMatched}
}

// Includes returns the include patterns in config-file syntax.
func (f *Filter) Includes() []string {
	return sources(f.include)
}

// Excludes returns the exclude patterns in config-file syntax.
func (f *Filter) Excludes() []string {
	return sources(f.exclude)
}

func sources(cs []compiled) []string {
	ps := make([]pattern.Pattern, len(cs))
	for i, c := range cs {
		ps[i] = c.source
	}
	return pattern.Strings(ps)
}
