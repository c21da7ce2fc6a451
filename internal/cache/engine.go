package cache

import (
	"context"
	"log/slog"

	"github.com/justrnr500/buildlint/internal/lint"
)

// Engine serves LintText and IsPathIgnored from a Store and falls through
// to the wrapped engine on a miss. Results carrying fixed output are never stored, so a
// fix run always reaches the engine.
type Engine struct {
	lint.Engine
	store       *Store
	fingerprint string
	logger      *slog.Logger
}

// Wrap returns engine backed by store. fingerprint identifies the settings
// the results were produced under; see Fingerprint.
func Wrap(engine lint.Engine, store *Store, fingerprint string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Engine: engine, store: store, fingerprint: fingerprint, logger: logger}
}

// LintText returns cached results for unchanged content. Cache failures are
// logged and the engine is used instead.
func (e *Engine) LintText(ctx context.Context, code string, opts lint.LintTextOptions) ([]lint.Result, error) {
	hash := HashContent(code)

	results, ok, err := e.store.Get(opts.FilePath, hash, e.fingerprint)
	if err != nil {
		e.logger.Warn("Lint cache read failed", slog.String("file", opts.FilePath), slog.String("error", err.Error()))
	} else if ok {
		e.logger.Debug("Lint cache hit", slog.String("file", opts.FilePath))
		return results, nil
	}

	results, err = e.Engine.LintText(ctx, code, opts)
	if err != nil {
		return nil, err
	}
	if lint.AnyFixes(results) {
		return results, nil
	}

	if err := e.store.Put(Entry{
		Path:        opts.FilePath,
		ContentHash: hash,
		Fingerprint: e.fingerprint,
		Results:     results,
	}); err != nil {
		e.logger.Warn("Lint cache write failed", slog.String("file", opts.FilePath), slog.String("error", err.Error()))
	}
	return results, nil
}

// IsPathIgnored returns the stored verdict for path when the fingerprint
// matches. Cache failures are logged and the engine is asked instead.
func (e *Engine) IsPathIgnored(ctx context.Context, path string) (bool, error) {
	ignored, ok, err := e.store.GetIgnored(path, e.fingerprint)
	if err != nil {
		e.logger.Warn("Lint cache read failed", slog.String("file", path), slog.String("error", err.Error()))
	} else if ok {
		return ignored, nil
	}

	ignored, err = e.Engine.IsPathIgnored(ctx, path)
	if err != nil {
		return false, err
	}
	if err := e.store.PutIgnored(path, e.fingerprint, ignored); err != nil {
		e.logger.Warn("Lint cache write failed", slog.String("file", path), slog.String("error", err.Error()))
	}
	return ignored, nil
}
