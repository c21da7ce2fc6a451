package lint

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// DefaultFormatter is used when no formatter name is configured.
const DefaultFormatter = "stylish"

// Formatter renders results into human-readable text.
type Formatter interface {
	Format(results []Result) (string, error)
}

// FormatterFunc adapts a plain function to Formatter.
type FormatterFunc func(results []Result) (string, error)

// Format calls f(results).
func (f FormatterFunc) Format(results []Result) (string, error) {
	return f(results)
}

// =============================================================================
// REGISTRY
// =============================================================================

// FormatterRegistry maps names to formatters.
//
// Thread Safety: Safe for concurrent use.
type FormatterRegistry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
}

// NewFormatterRegistry returns an empty registry.
func NewFormatterRegistry() *FormatterRegistry {
	return &FormatterRegistry{formatters: make(map[string]Formatter)}
}

// DefaultFormatters returns a registry holding the built-in formatters.
func DefaultFormatters() *FormatterRegistry {
	r := NewFormatterRegistry()
	r.Register("stylish", FormatterFunc(formatStylish))
	r.Register("compact", FormatterFunc(formatCompact))
	r.Register("unix", FormatterFunc(formatUnix))
	r.Register("json", FormatterFunc(formatJSON))
	return r
}

// Register adds or replaces a formatter.
func (r *FormatterRegistry) Register(name string, f Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatters[name] = f
}

// Get returns the formatter registered under name. An empty name selects
// DefaultFormatter.
func (r *FormatterRegistry) Get(name string) (Formatter, error) {
	if name == "" {
		name = DefaultFormatter
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formatters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormatter, name)
	}
	return f, nil
}

// Names returns registered formatter names in sorted order.
func (r *FormatterRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pluralize returns "1 error", "2 errors" and so on.
func Pluralize(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

// =============================================================================
// STYLISH
// =============================================================================

var (
	fileStyle    = lipgloss.NewStyle().Underline(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	summaryStyle = lipgloss.NewStyle().Bold(true)
)

func severityStyle(s Severity) lipgloss.Style {
	if s == SeverityError {
		return errorStyle
	}
	return warningStyle
}

// formatStylish groups messages under each file with aligned columns and a
// totals line, in the layout of ESLint's stylish formatter.
func formatStylish(results []Result) (string, error) {
	var sb strings.Builder
	var errs, warns, fixErrs, fixWarns int

	for i := range results {
		r := &results[i]
		if len(r.Messages) == 0 {
			continue
		}
		errs += r.ErrorCount
		warns += r.WarningCount
		fixErrs += r.FixableErrorCount
		fixWarns += r.FixableWarningCount

		locW, sevW, msgW := 0, 0, 0
		for _, m := range r.Messages {
			locW = max(locW, len(m.Location()))
			sevW = max(sevW, len(m.Severity.String()))
			msgW = max(msgW, len(m.Message))
		}

		sb.WriteString("\n")
		sb.WriteString(fileStyle.Render(r.FilePath))
		sb.WriteString("\n")
		for _, m := range r.Messages {
			sb.WriteString("  ")
			sb.WriteString(dimStyle.Render(pad(m.Location(), locW)))
			sb.WriteString("  ")
			sb.WriteString(severityStyle(m.Severity).Render(pad(m.Severity.String(), sevW)))
			sb.WriteString("  ")
			if m.RuleID != "" {
				sb.WriteString(pad(m.Message, msgW))
				sb.WriteString("  ")
				sb.WriteString(dimStyle.Render(m.RuleID))
			} else {
				sb.WriteString(m.Message)
			}
			sb.WriteString("\n")
		}
	}

	total := errs + warns
	if total == 0 {
		return "", nil
	}

	style := warningStyle
	if errs > 0 {
		style = errorStyle
	}
	sb.WriteString("\n")
	sb.WriteString(style.Inherit(summaryStyle).Render(fmt.Sprintf("✖ %s (%s, %s)",
		Pluralize(total, "problem"), Pluralize(errs, "error"), Pluralize(warns, "warning"))))
	sb.WriteString("\n")

	if fixErrs > 0 || fixWarns > 0 {
		sb.WriteString(style.Inherit(summaryStyle).Render(fmt.Sprintf("  %s and %s potentially fixable with the `fix` option.",
			Pluralize(fixErrs, "error"), Pluralize(fixWarns, "warning"))))
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// =============================================================================
// COMPACT / UNIX / JSON
// =============================================================================

func severityTitle(s Severity) string {
	if s == SeverityError {
		return "Error"
	}
	return "Warning"
}

// formatCompact writes one line per message.
func formatCompact(results []Result) (string, error) {
	var sb strings.Builder
	total := 0
	for i := range results {
		r := &results[i]
		for _, m := range r.Messages {
			total++
			fmt.Fprintf(&sb, "%s: line %d, col %d, %s - %s", r.FilePath, m.Line, m.Column, severityTitle(m.Severity), m.Message)
			if m.RuleID != "" {
				fmt.Fprintf(&sb, " (%s)", m.RuleID)
			}
			sb.WriteString("\n")
		}
	}
	if total > 0 {
		fmt.Fprintf(&sb, "\n%s", Pluralize(total, "problem"))
	}
	return sb.String(), nil
}

// formatUnix writes file:line:col: message [Severity/rule] lines.
func formatUnix(results []Result) (string, error) {
	var sb strings.Builder
	total := 0
	for i := range results {
		r := &results[i]
		for _, m := range r.Messages {
			total++
			tag := severityTitle(m.Severity)
			if m.RuleID != "" {
				tag += "/" + m.RuleID
			}
			fmt.Fprintf(&sb, "%s:%d:%d: %s [%s]\n", r.FilePath, m.Line, m.Column, m.Message, tag)
		}
	}
	if total > 0 {
		fmt.Fprintf(&sb, "\n%s", Pluralize(total, "problem"))
	}
	return sb.String(), nil
}

// formatJSON returns the results as a JSON array.
func formatJSON(results []Result) (string, error) {
	if results == nil {
		results = []Result{}
	}
	data, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}
	return string(data), nil
}
