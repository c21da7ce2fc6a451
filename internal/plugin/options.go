package plugin

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"time"

	"github.com/spf13/afero"

	"github.com/justrnr500/buildlint/internal/cache"
	"github.com/justrnr500/buildlint/internal/lint"
	"github.com/justrnr500/buildlint/internal/pattern"
	"github.com/justrnr500/buildlint/internal/policy"
	"github.com/justrnr500/buildlint/internal/report"
)

// EngineFactory creates the lint engine for a build rooted at root.
type EngineFactory func(ctx context.Context, root string, opts *Options) (lint.Engine, error)

// Options configures a Plugin.
type Options struct {
	// Include restricts linting to matching paths. Empty means every path
	// that is not excluded.
	Include []pattern.Pattern

	// Exclude always skips matching paths.
	Exclude []pattern.Pattern

	Fix                bool
	ThrowOnError       bool
	ThrowOnWarning     bool
	StrictConfigErrors bool

	// Formatter names the formatter the engine loads. Ignored when
	// FormatterFunc is set.
	Formatter string

	// FormatterFunc renders flagged results directly.
	FormatterFunc lint.Formatter

	// ConfigFile overrides the engine's configuration discovery.
	ConfigFile string

	// EslintPath is the engine binary. Empty resolves a project-local
	// install first.
	EslintPath string

	// Timeout bounds each engine invocation. Zero means no limit.
	Timeout time.Duration

	// NewEngine replaces the default ESLint engine.
	NewEngine EngineFactory

	// Cache, when set, serves results for unchanged content.
	Cache *cache.Store

	// Report receives one record per transformed file.
	Report report.Sink

	// BuildID tags report records.
	BuildID string

	// Output receives formatted findings. Defaults to os.Stdout.
	Output io.Writer

	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Fs is where fixes are written. Defaults to the OS filesystem.
	Fs afero.Fs
}

// DefaultInclude matches script and component sources under src.
func DefaultInclude() []pattern.Pattern {
	return pattern.Globs(
		"src/**.js",
		"src/**.jsx",
		"src/**.ts",
		"src/**.tsx",
		"src/**.vue",
		"src/**.svelte",
	)
}

// DefaultExclude skips dependencies and bundler-internal module ids.
func DefaultExclude() []pattern.Pattern {
	return pattern.List(
		pattern.Glob("node_modules/**"),
		pattern.Glob("**/node_modules/**"),
		pattern.Regexp(regexp.MustCompile(`^\x00`)),
		pattern.Regexp(regexp.MustCompile(`^virtual:`)),
	)
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Include:      DefaultInclude(),
		Exclude:      DefaultExclude(),
		ThrowOnError: true,
		Formatter:    lint.DefaultFormatter,
	}
}

// Policy returns the policy flags carried by the options.
func (o *Options) Policy() policy.Config {
	return policy.Config{
		Fix:                o.Fix,
		ThrowOnError:       o.ThrowOnError,
		ThrowOnWarning:     o.ThrowOnWarning,
		StrictConfigErrors: o.StrictConfigErrors,
	}
}

// NewESLintEngine is the default EngineFactory.
func NewESLintEngine(_ context.Context, root string, opts *Options) (lint.Engine, error) {
	return lint.NewESLint(lint.ESLintOptions{
		Command:    opts.EslintPath,
		Cwd:        root,
		ConfigFile: opts.ConfigFile,
		Fix:        opts.Fix,
		Timeout:    opts.Timeout,
		Fs:         opts.Fs,
		Logger:     opts.Logger,
	})
}
