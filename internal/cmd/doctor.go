package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/justrnr500/buildlint/internal/cache"
	"github.com/justrnr500/buildlint/internal/config"
	"github.com/justrnr500/buildlint/internal/lint"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check lint setup health",
	Long: `Run health checks on the buildlint setup to diagnose common issues.

Checks:
  - Config validity (config.yaml parses and its patterns compile)
  - Lint engine (eslint is installed and any config file exists)
  - Formatter (the configured formatter is known)
  - Cache (the cache database opens, when enabled)
  - Report sink (the configured report destination opens)`,
	RunE: runDoctor,
}

var doctorJSON bool

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Output as JSON")
}

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Name   string   `json:"name"`
	Passed bool     `json:"passed"`
	Issues []string `json:"issues,omitempty"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	root, err := config.FindRoot(cwd)
	initialized := err == nil
	if !initialized {
		root = cwd
	}

	configCheck := checkConfigValidity(config.ResolvePaths(root).Config, initialized)
	checks := []CheckResult{configCheck}

	// The remaining checks need a usable configuration.
	if configCheck.Passed {
		proj, err := openProject(root, initialized)
		if err != nil {
			return err
		}
		fs := afero.NewOsFs()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		checks = append(checks,
			checkEngine(proj, fs, logger),
			checkFormatter(proj.cfg.Formatter),
			checkCache(proj),
			checkReport(cmd.Context(), proj, fs),
		)
	}

	if doctorJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(checks)
	}

	if !writeDoctorOutput(os.Stdout, checks) {
		return fmt.Errorf("some checks failed")
	}
	return nil
}

// writeDoctorOutput prints checks and reports whether all passed.
func writeDoctorOutput(w io.Writer, checks []CheckResult) bool {
	allPassed := true
	for _, c := range checks {
		if c.Passed {
			fmt.Fprintf(w, "%s %s\n", okMark(), c.Name)
			continue
		}
		allPassed = false
		fmt.Fprintf(w, "%s %s\n", failMark(), c.Name)
		for _, issue := range c.Issues {
			fmt.Fprintf(w, "    %s\n", issue)
		}
	}
	return allPassed
}

func checkConfigValidity(configPath string, initialized bool) CheckResult {
	name := "Config valid"

	if !initialized {
		return CheckResult{Name: name + " (defaults, run 'buildlint init' to customize)", Passed: true}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return CheckResult{Name: name + " (defaults)", Passed: true}
		}
		return CheckResult{Name: name, Passed: false, Issues: []string{fmt.Sprintf("parse error: %v", err)}}
	}
	if err := cfg.Validate(); err != nil {
		return CheckResult{Name: name, Passed: false, Issues: []string{err.Error()}}
	}
	return CheckResult{Name: name, Passed: true}
}

func checkEngine(proj *project, fs afero.Fs, logger *slog.Logger) CheckResult {
	name := "Lint engine available"

	engine, err := proj.newEngine(fs, logger)
	if err != nil {
		return CheckResult{Name: name, Passed: false, Issues: []string{err.Error()}}
	}
	return CheckResult{Name: fmt.Sprintf("%s (%s)", name, engine.Command()), Passed: true}
}

func checkFormatter(name string) CheckResult {
	if name == "" {
		name = lint.DefaultFormatter
	}
	title := fmt.Sprintf("Formatter %q known", name)
	if _, err := lint.DefaultFormatters().Get(name); err != nil {
		return CheckResult{Name: title, Passed: false, Issues: []string{err.Error()}}
	}
	return CheckResult{Name: title, Passed: true}
}

func checkCache(proj *project) CheckResult {
	name := "Cache healthy"

	if !proj.cfg.Cache {
		return CheckResult{Name: name + " (disabled)", Passed: true}
	}
	store, err := proj.openCache()
	if err != nil {
		return CheckResult{Name: name, Passed: false, Issues: []string{err.Error()}}
	}
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		return CheckResult{Name: name, Passed: false, Issues: []string{fmt.Sprintf("read stats: %v", err)}}
	}
	return CheckResult{Name: fmt.Sprintf("%s (%s)", name, cacheDetail(stats)), Passed: true}
}

func cacheDetail(s cache.Stats) string {
	return fmt.Sprintf("%s, %d flagged", lint.Pluralize(s.Entries, "cached file"), s.Flagged)
}

func checkReport(ctx context.Context, proj *project, fs afero.Fs) CheckResult {
	driver := proj.cfg.Report.Driver
	if driver == "" {
		return CheckResult{Name: "Report sink (disabled)", Passed: true}
	}
	name := fmt.Sprintf("Report sink %q reachable", driver)

	sink, err := proj.openReport(ctx, fs)
	if err != nil {
		return CheckResult{Name: name, Passed: false, Issues: []string{err.Error()}}
	}
	sink.Close()
	return CheckResult{Name: name, Passed: true}
}
