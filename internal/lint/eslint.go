package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// DefaultCommand is the engine binary looked up in PATH when no local
// install is found.
const DefaultCommand = "eslint"

// ignoredPrefix starts the warning ESLint emits instead of linting a path
// that matches its ignore rules.
const ignoredPrefix = "File ignored"

// ESLintOptions configures an ESLint engine.
type ESLintOptions struct {
	// Command is the eslint executable. Empty resolves via ResolveCommand.
	Command string

	// Cwd is the directory eslint runs in and resolves configuration from.
	Cwd string

	// ConfigFile overrides configuration discovery (eslint --config).
	ConfigFile string

	// Fix asks eslint to compute fixes (--fix-dry-run). Fixed sources come
	// back in Result.Output and are only written by OutputFixes.
	Fix bool

	// Timeout bounds a single engine invocation. Zero means no limit.
	Timeout time.Duration

	// Fs is where fixes are written and the config file is checked.
	// Defaults to the OS filesystem.
	Fs afero.Fs

	// Formatters resolves LoadFormatter names. Defaults to the built-ins.
	Formatters *FormatterRegistry

	// Logger receives engine diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// ESLint runs the eslint binary as the lint engine.
//
// Thread Safety: Safe for concurrent use.
type ESLint struct {
	command    string
	cwd        string
	configFile string
	fix        bool
	timeout    time.Duration
	fs         afero.Fs
	formatters *FormatterRegistry
	logger     *slog.Logger
}

// NewESLint creates an engine after checking that the binary and any
// configured config file exist.
func NewESLint(opts ESLintOptions) (*ESLint, error) {
	e := &ESLint{
		command:    opts.Command,
		cwd:        opts.Cwd,
		configFile: opts.ConfigFile,
		fix:        opts.Fix,
		timeout:    opts.Timeout,
		fs:         opts.Fs,
		formatters: opts.Formatters,
		logger:     opts.Logger,
	}
	if e.fs == nil {
		e.fs = afero.NewOsFs()
	}
	if e.formatters == nil {
		e.formatters = DefaultFormatters()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.cwd == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		e.cwd = cwd
	}
	if e.command == "" {
		e.command = ResolveCommand(e.fs, e.cwd)
	}

	resolved, err := exec.LookPath(e.command)
	if err != nil {
		return nil, NewEngineError(e.command, ErrEngineNotInstalled)
	}
	e.command = resolved

	if e.configFile != "" {
		if !filepath.IsAbs(e.configFile) {
			e.configFile = filepath.Join(e.cwd, e.configFile)
		}
		exists, err := afero.Exists(e.fs, e.configFile)
		if err != nil {
			return nil, fmt.Errorf("check config file: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, e.configFile)
		}
	}

	e.logger.Info("Lint engine available",
		slog.String("command", e.command),
		slog.String("cwd", e.cwd),
		slog.Bool("fix", e.fix),
	)

	return e, nil
}

// ResolveCommand prefers a project-local eslint under node_modules/.bin and
// falls back to DefaultCommand.
func ResolveCommand(fs afero.Fs, cwd string) string {
	local := filepath.Join(cwd, "node_modules", ".bin", "eslint")
	if ok, _ := afero.Exists(fs, local); ok {
		return local
	}
	return DefaultCommand
}

// Command returns the resolved engine executable.
func (e *ESLint) Command() string {
	return e.command
}

// IsPathIgnored lints an empty source for path and checks whether eslint
// answered with its ignore warning.
func (e *ESLint) IsPathIgnored(ctx context.Context, path string) (bool, error) {
	results, err := e.run(ctx, "", e.absPath(path), false)
	if err != nil {
		return false, err
	}
	for i := range results {
		if isIgnoredResult(&results[i]) {
			return true, nil
		}
	}
	return false, nil
}

// LintText lints code as the contents of opts.FilePath.
func (e *ESLint) LintText(ctx context.Context, code string, opts LintTextOptions) ([]Result, error) {
	path := e.absPath(opts.FilePath)

	ctx, span := startLintSpan(ctx, path)
	defer span.End()
	start := time.Now()

	results, err := e.run(ctx, code, path, e.fix)
	if err != nil {
		recordLintMetrics(ctx, time.Since(start), 0, 0, false)
		return nil, err
	}

	kept := results[:0]
	for i := range results {
		if !isIgnoredResult(&results[i]) {
			kept = append(kept, results[i])
		}
	}

	errCount, warnCount := Counts(kept)
	setLintSpanResult(span, errCount, warnCount)
	recordLintMetrics(ctx, time.Since(start), errCount, warnCount, true)

	e.logger.Debug("Lint completed",
		slog.String("file", path),
		slog.Duration("duration", time.Since(start)),
		slog.Int("errors", errCount),
		slog.Int("warnings", warnCount),
	)

	return kept, nil
}

// LoadFormatter resolves name against the engine's formatter registry.
func (e *ESLint) LoadFormatter(_ context.Context, name string) (Formatter, error) {
	return e.formatters.Get(name)
}

// OutputFixes writes Result.Output back to Result.FilePath for every result
// that has fixes, keeping the file's existing permissions.
func (e *ESLint) OutputFixes(ctx context.Context, results []Result) error {
	return WriteFixes(ctx, e.fs, results)
}

// WriteFixes writes fixed output for each result that has some.
func WriteFixes(ctx context.Context, fs afero.Fs, results []Result) error {
	for i := range results {
		r := &results[i]
		if !r.HasFixes() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		perm := os.FileMode(0644)
		if info, err := fs.Stat(r.FilePath); err == nil {
			perm = info.Mode().Perm()
		}
		if err := afero.WriteFile(fs, r.FilePath, []byte(r.Output), perm); err != nil {
			return fmt.Errorf("write fixes for %s: %w", r.FilePath, err)
		}
		recordFixWritten(ctx)
	}
	return nil
}

func (e *ESLint) absPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.cwd, path)
}

func (e *ESLint) args(path string, fix bool) []string {
	args := []string{"--format", "json", "--stdin"}
	if path != "" {
		args = append(args, "--stdin-filename", path)
	}
	if fix {
		args = append(args, "--fix-dry-run")
	}
	if e.configFile != "" {
		args = append(args, "--config", e.configFile)
	}
	return args
}

// run executes eslint once and decodes its JSON output.
func (e *ESLint) run(ctx context.Context, code, path string, fix bool) ([]Result, error) {
	cmdCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, e.command, e.args(path, fix)...)
	cmd.Dir = e.cwd
	cmd.Stdin = strings.NewReader(code)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if e.timeout > 0 && errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
		return nil, NewEngineError(e.command, ErrEngineTimeout).WithOutput(stderr.String())
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// eslint exits 1 when it reports lint errors; anything else is a failure
	// of the engine itself.
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 || stdout.Len() == 0 {
			return nil, NewEngineError(e.command, ErrEngineFailed).
				WithOutput(strings.TrimSpace(stderr.String()))
		}
	}

	results, err := ParseOutput(stdout.Bytes())
	if err != nil {
		return nil, NewEngineError(e.command, err)
	}
	return results, nil
}

// ParseOutput decodes eslint --format json output.
func ParseOutput(data []byte) ([]Result, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var results []Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseOutput, err)
	}
	return results, nil
}

// isIgnoredResult matches the single warning eslint reports for an ignored
// path in place of linting it.
func isIgnoredResult(r *Result) bool {
	if len(r.Messages) != 1 {
		return false
	}
	m := r.Messages[0]
	return m.RuleID == "" && m.Severity == SeverityWarning && strings.HasPrefix(m.Message, ignoredPrefix)
}
