// Package plugin wires the path filter, the lint engine and the result
// policy into a bundler's configuration and transform hooks.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/justrnr500/buildlint/internal/cache"
	"github.com/justrnr500/buildlint/internal/filter"
	"github.com/justrnr500/buildlint/internal/lint"
	"github.com/justrnr500/buildlint/internal/policy"
	"github.com/justrnr500/buildlint/internal/report"
)

// Name identifies the plugin to the host bundler.
const Name = "buildlint"

// ErrNotConfigured is returned by Transform before ConfigResolved ran.
var ErrNotConfigured = errors.New("plugin not configured: ConfigResolved was not called")

// ResolvedConfig is what the bundler knows once its configuration is final.
type ResolvedConfig struct {
	// Root is the project root. Empty uses the working directory.
	Root string
}

// TransformResult is handed back to the bundler. Code is always the input
// code; fixes only ever reach the file on disk.
type TransformResult struct {
	Code    string
	Path    string
	State   policy.State
	Results []lint.Result
	Fixed   bool
}

// session is the state built by ConfigResolved and shared by transforms.
type session struct {
	root      string
	engine    lint.Engine
	formatter lint.Formatter
}

// Plugin is a lint gate for one bundler configuration.
//
// Thread Safety: Transform is safe for concurrent use once ConfigResolved
// has returned.
type Plugin struct {
	opts   Options
	filter *filter.Filter
	policy policy.Config
	logger *slog.Logger

	mu      sync.RWMutex
	session *session

	outMu sync.Mutex
	out   io.Writer
}

// New creates a plugin. Include and Exclude are used as given; start from
// DefaultOptions for the standard sets.
func New(opts Options) *Plugin {
	if opts.NewEngine == nil {
		opts.NewEngine = NewESLintEngine
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Report == nil {
		opts.Report = report.Discard
	}
	return &Plugin{
		opts:   opts,
		filter: filter.New(opts.Include, opts.Exclude),
		policy: opts.Policy(),
		logger: opts.Logger,
		out:    opts.Output,
	}
}

// Filter returns the path filter built from the options.
func (p *Plugin) Filter() *filter.Filter {
	return p.filter
}

// Root returns the resolved project root, or "" before ConfigResolved.
func (p *Plugin) Root() string {
	if s := p.current(); s != nil {
		return s.root
	}
	return ""
}

func (p *Plugin) current() *session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session
}

// ConfigResolved creates the engine and loads the formatter. A failure is a
// configuration error; when it is swallowed the plugin lets every file pass
// without linting.
func (p *Plugin) ConfigResolved(ctx context.Context, cfg ResolvedConfig) error {
	root := cfg.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}

	s := &session{root: root}
	defer func() {
		p.mu.Lock()
		p.session = s
		p.mu.Unlock()
	}()

	engine, err := p.opts.NewEngine(ctx, root, &p.opts)
	if err != nil {
		return policy.HandleConfigError(p.policy, policy.NewConfigError(policy.StageEngineInit, err), p.logger)
	}
	if p.opts.Cache != nil {
		fp, err := p.fingerprint(ctx, root, engine)
		if err != nil {
			p.logger.Warn("Lint cache disabled", slog.String("error", err.Error()))
		} else {
			engine = cache.Wrap(engine, p.opts.Cache, fp, p.logger)
		}
	}

	formatter := p.opts.FormatterFunc
	if formatter == nil {
		formatter, err = engine.LoadFormatter(ctx, p.opts.Formatter)
		if err != nil {
			if err := policy.HandleConfigError(p.policy, policy.NewConfigError(policy.StageFormatter, err), p.logger); err != nil {
				return err
			}
			formatter, _ = lint.DefaultFormatters().Get(lint.DefaultFormatter)
		}
	}

	s.engine = engine
	s.formatter = formatter

	p.logger.Debug("Lint gate configured",
		slog.String("root", root),
		slog.Int("include", len(p.opts.Include)),
		slog.Int("exclude", len(p.opts.Exclude)),
		slog.Bool("fix", p.opts.Fix),
	)
	return nil
}

// fingerprint identifies the settings cached results were produced under.
// Engines implementing lint.Fingerprinter add their resolved configuration.
func (p *Plugin) fingerprint(ctx context.Context, root string, engine lint.Engine) (string, error) {
	parts := []string{
		root,
		p.opts.EslintPath,
		p.opts.ConfigFile,
		strconv.FormatBool(p.opts.Fix),
	}
	if f, ok := engine.(lint.Fingerprinter); ok {
		id, err := f.Fingerprint(ctx)
		if err != nil {
			return "", fmt.Errorf("fingerprint engine: %w", err)
		}
		parts = append(parts, id)
	}
	return cache.Fingerprint(parts...), nil
}

// Transform lints one module. It returns the code unchanged, or an error
// when the build must halt: *policy.FindingError for lint findings over a
// threshold and *policy.ConfigError for engine failures that propagate.
func (p *Plugin) Transform(ctx context.Context, code, id string) (*TransformResult, error) {
	s := p.current()
	if s == nil {
		return nil, ErrNotConfigured
	}

	path := NormalizeID(s.root, id)
	res := &TransformResult{Code: code, Path: path, State: policy.Pending}

	if !p.filter.Match(path) {
		res.State = policy.FilteredOut
		return res, nil
	}
	if s.engine == nil {
		return res, nil
	}

	ignored, err := s.engine.IsPathIgnored(ctx, path)
	if err != nil {
		return p.configFailure(res, policy.StageLint, err)
	}
	if ignored {
		res.State = policy.Ignored
		return res, nil
	}

	start := time.Now()
	results, err := s.engine.LintText(ctx, code, lint.LintTextOptions{FilePath: path})
	if err != nil {
		return p.configFailure(res, policy.StageLint, err)
	}

	d := policy.Evaluate(p.policy, results)
	res.State = d.State
	res.Results = results

	if d.Fix {
		if err := s.engine.OutputFixes(ctx, results); err != nil {
			if _, err := p.configFailure(res, policy.StageFix, err); err != nil {
				return nil, err
			}
		} else {
			res.Fixed = true
		}
	}

	if d.Report {
		if err := p.emit(s.formatter, results); err != nil {
			if _, err := p.configFailure(res, policy.StageFormatter, err); err != nil {
				return nil, err
			}
		}
	}

	p.record(ctx, res, d)

	p.logger.Debug("Lint completed",
		slog.String("file", path),
		slog.String("state", d.State.String()),
		slog.Int("errors", d.Errors),
		slog.Int("warnings", d.Warnings),
		slog.Bool("fixed", res.Fixed),
		slog.Duration("duration", time.Since(start)),
	)

	if err := d.Err(path); err != nil {
		return nil, err
	}
	return res, nil
}

// configFailure applies the configuration error policy to a failed step.
func (p *Plugin) configFailure(res *TransformResult, stage policy.Stage, err error) (*TransformResult, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	if err := policy.HandleConfigError(p.policy, policy.NewConfigError(stage, fmt.Errorf("%s: %w", res.Path, err)), p.logger); err != nil {
		return nil, err
	}
	return res, nil
}

// emit formats results and writes them in one piece so concurrent
// transforms never interleave their output.
func (p *Plugin) emit(f lint.Formatter, results []lint.Result) error {
	text, err := f.Format(results)
	if err != nil {
		return fmt.Errorf("format results: %w", err)
	}
	if text == "" {
		return nil
	}

	p.outMu.Lock()
	defer p.outMu.Unlock()
	if _, err := io.WriteString(p.out, strings.TrimRight(text, "\n")+"\n"); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// record stores the outcome in the report sink. Sink failures are logged;
// they never change the build outcome.
func (p *Plugin) record(ctx context.Context, res *TransformResult, d policy.Decision) {
	err := p.opts.Report.Record(ctx, report.Record{
		BuildID:  p.opts.BuildID,
		Path:     res.Path,
		State:    d.State.String(),
		Errors:   d.Errors,
		Warnings: d.Warnings,
		Fixed:    res.Fixed,
		Time:     time.Now(),
	})
	if err != nil {
		p.logger.Warn("Report record failed", slog.String("file", res.Path), slog.String("error", err.Error()))
	}
}

// NormalizeID turns a bundler module id into the path the filter sees:
// the query string is dropped, separators become "/", and ids inside root
// become root-relative.
func NormalizeID(root, id string) string {
	if i := strings.IndexByte(id, '?'); i >= 0 {
		id = id[:i]
	}
	if root != "" && filepath.IsAbs(id) {
		if rel, err := filepath.Rel(root, id); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			id = rel
		}
	}
	return strings.ReplaceAll(filepath.ToSlash(id), `\`, "/")
}
