// Package pattern compiles glob strings and regular expressions into
// anchored path matchers.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is either a glob string or a precompiled regular expression.
// The zero value is the empty glob, which only matches the empty path.
type Pattern struct {
	glob string
	re   *regexp.Regexp
}

// Glob returns a pattern using glob syntax.
// "**" matches any sequence of characters including "/".
// "*" matches any sequence of characters except "/".
// Every other character matches itself.
func Glob(s string) Pattern {
	return Pattern{glob: s}
}

// Regexp returns a pattern backed by a caller-supplied regular expression.
// The expression is used verbatim, including whatever anchoring it has.
func Regexp(re *regexp.Regexp) Pattern {
	return Pattern{re: re}
}

// List is shorthand for building a pattern slice from a single pattern.
func List(p ...Pattern) []Pattern {
	return p
}

// Globs converts glob strings into patterns.
func Globs(ss ...string) []Pattern {
	out := make([]Pattern, len(ss))
	for i, s := range ss {
		out[i] = Glob(s)
	}
	return out
}

// IsRegexp reports whether the pattern wraps a regular expression.
func (p Pattern) IsRegexp() bool {
	return p.re != nil
}

// String renders the pattern in config-file syntax: regular expressions
// are wrapped in slashes, globs are returned as-is.
func (p Pattern) String() string {
	if p.re != nil {
		return "/" + p.re.String() + "/"
	}
	return p.glob
}

// Compile returns the regular expression that decides whether a path
// matches p. Regexp patterns are returned unchanged. Glob patterns are
// translated and anchored so they must match the whole path.
func Compile(p Pattern) *regexp.Regexp {
	if p.re != nil {
		return p.re
	}
	return regexp.MustCompile(translate(p.glob))
}

// translate turns a glob into an anchored regular expression source.
// QuoteMeta output is always valid, so the result always compiles.
func translate(glob string) string {
	var sb strings.Builder
	sb.WriteString("^")
	for i, part := range strings.Split(glob, "**") {
		if i > 0 {
			sb.WriteString(".*")
		}
		for j, seg := range strings.Split(part, "*") {
			if j > 0 {
				sb.WriteString("[^/]*")
			}
			sb.WriteString(regexp.QuoteMeta(seg))
		}
	}
	sb.WriteString("$")
	return sb.String()
}

// Parse reads a pattern in config-file syntax. A value wrapped in slashes
// ("/\.js$/") is compiled as a regular expression; anything else is a glob.
func Parse(s string) (Pattern, error) {
	if len(s) >= 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
		re, err := regexp.Compile(s[1 : len(s)-1])
		if err != nil {
			return Pattern{}, fmt.Errorf("parse pattern %q: %w", s, err)
		}
		return Regexp(re), nil
	}
	return Glob(s), nil
}

// ParseAll parses every entry of ss. A nil or empty input yields nil.
func ParseAll(ss []string) ([]Pattern, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	out := make([]Pattern, 0, len(ss))
	for _, s := range ss {
		p, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Strings renders patterns back into config-file syntax.
func Strings(ps []Pattern) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}
