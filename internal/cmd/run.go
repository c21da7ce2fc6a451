package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/justrnr500/buildlint/internal/config"
	"github.com/justrnr500/buildlint/internal/lint"
	"github.com/justrnr500/buildlint/internal/plugin"
	"github.com/justrnr500/buildlint/internal/policy"
)

// DefaultGlobs select the files a build pass reads when no --glob is given.
var DefaultGlobs = []string{"**/*.{js,jsx,mjs,cjs,ts,tsx,mts,cts,vue,svelte}"}

// skipDirs are never descended into during discovery.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	config.DirName: true,
}

var runCmd = &cobra.Command{
	Use:   "run [path...]",
	Short: "Run a lint build pass",
	Long: `Run a build pass: discover source files, send each through the lint
gate, print findings, and exit non-zero when a file crosses a threshold.

Paths may be files or directories and default to the project root.
Directories are searched with --glob patterns (doublestar syntax); the
include/exclude patterns from config.yaml then decide which files are linted.

Examples:
  buildlint run
  buildlint run src/components --fix
  buildlint run --throw-on-warning -f compact
  buildlint run --glob 'src/**/*.vue' -j 4`,
	RunE: runRun,
}

var (
	runFix            bool
	runThrowOnError   bool
	runThrowOnWarning bool
	runFormat         string
	runConcurrency    int
	runGlobs          []string
	runNoCache        bool
	runBuildID        string
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runFix, "fix", false, "Write engine autofixes to disk")
	runCmd.Flags().BoolVar(&runThrowOnError, "throw-on-error", true, "Fail the build on lint errors")
	runCmd.Flags().BoolVar(&runThrowOnWarning, "throw-on-warning", false, "Fail the build on lint warnings")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "", "Formatter for findings (see 'buildlint formatters')")
	runCmd.Flags().IntVarP(&runConcurrency, "concurrency", "j", 0, "Files linted in parallel (default: config, then CPU count)")
	runCmd.Flags().StringSliceVar(&runGlobs, "glob", nil, "Discovery glob, repeatable (default "+DefaultGlobs[0]+")")
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false, "Ignore the lint cache for this run")
	runCmd.Flags().StringVar(&runBuildID, "build-id", "", "Tag report records with this ID (default: random UUID)")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	proj, err := loadProject()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, proj)

	fs := afero.NewOsFs()
	globs := runGlobs
	if len(globs) == 0 {
		globs = DefaultGlobs
	}
	files, err := discover(fs, proj.root, absTargets(args), globs)
	if err != nil {
		return err
	}

	logger := slog.Default()
	opts, err := proj.pluginOptions(fs, logger)
	if err != nil {
		return err
	}

	store, err := proj.openCache()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		opts.Cache = store
	}

	sink, err := proj.openReport(ctx, fs)
	if err != nil {
		return err
	}
	defer sink.Close()
	opts.Report = sink

	opts.BuildID = runBuildID
	if opts.BuildID == "" {
		opts.BuildID = uuid.NewString()
	}
	opts.Output = os.Stdout

	p := plugin.New(opts)
	if err := p.ConfigResolved(ctx, plugin.ResolvedConfig{Root: proj.root}); err != nil {
		return err
	}

	sum, err := buildPass(ctx, p, fs, files, proj.cfg.Workers())
	writeBuildSummary(os.Stdout, opts.BuildID, sum, err)
	return err
}

// applyRunFlags lets explicitly set flags override the configuration.
func applyRunFlags(cmd *cobra.Command, proj *project) {
	flags := cmd.Flags()
	if flags.Changed("fix") {
		proj.cfg.Fix = runFix
	}
	if flags.Changed("throw-on-error") {
		proj.cfg.ThrowOnError = runThrowOnError
	}
	if flags.Changed("throw-on-warning") {
		proj.cfg.ThrowOnWarning = runThrowOnWarning
	}
	if flags.Changed("format") {
		proj.cfg.Formatter = runFormat
	}
	if flags.Changed("concurrency") {
		proj.cfg.Concurrency = runConcurrency
	}
	if runNoCache {
		proj.cfg.Cache = false
	}
}

func absTargets(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if abs, err := filepath.Abs(a); err == nil {
			a = abs
		}
		out = append(out, a)
	}
	return out
}

// discover returns the files under targets that match any glob. Globs are
// matched against paths relative to root. Targets naming a file are taken
// as-is. No targets means root.
func discover(fs afero.Fs, root string, targets, globs []string) ([]string, error) {
	for _, g := range globs {
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("invalid glob %q", g)
		}
	}
	if len(targets) == 0 {
		targets = []string{root}
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, target := range targets {
		info, err := fs.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", target, err)
		}
		if !info.IsDir() {
			add(target)
			continue
		}

		err = afero.Walk(fs, target, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if path != target && skipDirs[info.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			if matchAny(filepath.ToSlash(rel), globs) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", target, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

func matchAny(path string, globs []string) bool {
	for _, g := range globs {
		if ok, err := doublestar.Match(g, path); err == nil && ok {
			return true
		}
	}
	return false
}

// buildSummary counts transform outcomes.
type buildSummary struct {
	Files    int
	States   map[policy.State]int
	Errors   int
	Warnings int
	Fixable  int
	Fixed    int
}

func (s *buildSummary) add(res *plugin.TransformResult) {
	s.Files++
	s.States[res.State]++
	errs, warns := lint.Counts(res.Results)
	s.Errors += errs
	s.Warnings += warns
	if res.Fixed {
		s.Fixed++
		return
	}
	fixErrs, fixWarns := lint.FixableCounts(res.Results)
	s.Fixable += fixErrs + fixWarns
}

// buildPass transforms files on at most workers goroutines. The first
// build-halting error stops files that have not started.
func buildPass(ctx context.Context, p *plugin.Plugin, fs afero.Fs, files []string, workers int) (*buildSummary, error) {
	sum := &buildSummary{States: make(map[policy.State]int)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for _, file := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := afero.ReadFile(fs, file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			res, err := p.Transform(gctx, string(data), file)
			if err != nil {
				return err
			}
			mu.Lock()
			sum.add(res)
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	return sum, err
}

func writeBuildSummary(w io.Writer, buildID string, sum *buildSummary, err error) {
	linted := sum.States[policy.Clean] + sum.States[policy.Flagged]

	var parts []string
	for _, st := range []policy.State{policy.Clean, policy.Flagged, policy.Ignored, policy.FilteredOut, policy.Pending} {
		if n := sum.States[st]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, st))
		}
	}
	detail := strings.Join(parts, ", ")
	if detail == "" {
		detail = "nothing to lint"
	}

	mark := okMark()
	if err != nil {
		mark = failMark()
	}
	fmt.Fprintf(w, "%s %s linted (%s) %s\n",
		mark, lint.Pluralize(linted, "file"), detail, dimStyle.Render("build "+shortID(buildID)))

	if sum.Errors > 0 || sum.Warnings > 0 {
		fmt.Fprintf(w, "  %s\n", policy.Summary(sum.Errors, sum.Warnings))
	}
	if sum.Fixed > 0 {
		fmt.Fprintf(w, "  %s\n", warnStyle.Render(lint.Pluralize(sum.Fixed, "file")+" fixed"))
	}
	if sum.Fixable > 0 {
		fmt.Fprintf(w, "  %s\n", dimStyle.Render(lint.Pluralize(sum.Fixable, "problem")+" fixable with --fix"))
	}
	switch {
	case policy.IsFinding(err):
		fmt.Fprintf(w, "  %s\n", failStyle.Render("build halted"))
	case policy.IsConfig(err):
		fmt.Fprintf(w, "  %s\n", failStyle.Render("configuration error"))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
