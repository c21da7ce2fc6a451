package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/justrnr500/buildlint/internal/cache"
	"github.com/justrnr500/buildlint/internal/config"
	"github.com/justrnr500/buildlint/internal/lint"
	"github.com/justrnr500/buildlint/internal/plugin"
	"github.com/justrnr500/buildlint/internal/report"
)

// project is a buildlint root with its loaded configuration.
type project struct {
	root        string
	paths       *config.Paths
	cfg         *config.Config
	initialized bool
}

// loadProject finds the buildlint root above the working directory. Without
// one, the working directory is used with the default configuration.
func loadProject() (*project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	root, err := config.FindRoot(cwd)
	initialized := err == nil
	if !initialized {
		root = cwd
	}
	return openProject(root, initialized)
}

// openProject loads the configuration of the project at root.
func openProject(root string, initialized bool) (*project, error) {
	paths := config.ResolvePaths(root)
	godotenv.Load(paths.Env) // best effort, .env is optional

	cfg := config.Default()
	if initialized {
		loaded, err := config.Load(paths.Config)
		switch {
		case err == nil:
			cfg = loaded
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", paths.Config, err)
	}

	return &project{root: root, paths: paths, cfg: cfg, initialized: initialized}, nil
}

// pluginOptions translates the configuration into plugin options.
func (p *project) pluginOptions(fs afero.Fs, logger *slog.Logger) (plugin.Options, error) {
	include, exclude, err := p.cfg.Patterns()
	if err != nil {
		return plugin.Options{}, err
	}
	return plugin.Options{
		Include:            include,
		Exclude:            exclude,
		Fix:                p.cfg.Fix,
		ThrowOnError:       p.cfg.ThrowOnError,
		ThrowOnWarning:     p.cfg.ThrowOnWarning,
		StrictConfigErrors: p.cfg.StrictConfigErrors,
		Formatter:          p.cfg.Formatter,
		ConfigFile:         p.cfg.ConfigFile,
		EslintPath:         p.cfg.EslintPath,
		Timeout:            p.cfg.Timeout,
		Fs:                 fs,
		Logger:             logger,
	}, nil
}

// openCache opens the lint cache when it is enabled.
func (p *project) openCache() (*cache.Store, error) {
	if !p.cfg.Cache {
		return nil, nil
	}
	store, err := cache.Open(p.cfg.CachePath(p.paths))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return store, nil
}

// openReport opens the configured report sink.
func (p *project) openReport(ctx context.Context, fs afero.Fs) (report.Sink, error) {
	dsn, err := p.cfg.ReportDSN(p.paths)
	if err != nil {
		return nil, err
	}
	sink, err := report.Open(ctx, p.cfg.Report.Driver, dsn, fs)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	return sink, nil
}

// newEngine creates the ESLint engine described by the configuration.
func (p *project) newEngine(fs afero.Fs, logger *slog.Logger) (*lint.ESLint, error) {
	return lint.NewESLint(lint.ESLintOptions{
		Command:    p.cfg.EslintPath,
		Cwd:        p.root,
		ConfigFile: p.cfg.ConfigFile,
		Fix:        p.cfg.Fix,
		Timeout:    p.cfg.Timeout,
		Fs:         fs,
		Logger:     logger,
	})
}
