package policy

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/justrnr500/buildlint/internal/lint"
)

// FindingError halts the build because a file crossed a lint threshold.
type FindingError struct {
	// Path is the file, relative to the build root when inside it.
	Path     string
	Errors   int
	Warnings int
}

func (e *FindingError) Error() string {
	return e.Path + ": " + Summary(e.Errors, e.Warnings)
}

// Summary describes the counts, listing only the non-zero ones:
// "1 error", "2 warnings", "1 error and 2 warnings".
func Summary(errs, warns int) string {
	switch {
	case errs > 0 && warns > 0:
		return lint.Pluralize(errs, "error") + " and " + lint.Pluralize(warns, "warning")
	case errs > 0:
		return lint.Pluralize(errs, "error")
	case warns > 0:
		return lint.Pluralize(warns, "warning")
	default:
		return lint.Pluralize(0, "problem")
	}
}

// Stage names the step at which a configuration error happened.
type Stage string

const (
	StageEngineInit Stage = "engine init"
	StageFormatter  Stage = "formatter load"
	StageLint       Stage = "lint"
	StageFix        Stage = "fix write"
)

// ConfigError reports a failure of the lint setup rather than a lint
// finding: the engine could not start, a formatter could not load, or the
// engine or fix writer failed while running.
type ConfigError struct {
	Stage Stage
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError wraps err as a ConfigError at stage. A nil err stays nil.
func NewConfigError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return err
	}
	return &ConfigError{Stage: stage, Err: err}
}

// HandleConfigError returns err when cfg says configuration errors
// propagate. Otherwise it logs err and returns nil.
func HandleConfigError(cfg Config, err error, logger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if cfg.StrictConfigErrors || cfg.ThrowOnError {
		return err
	}

	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{slog.String("error", err.Error())}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		attrs = append(attrs, slog.String("stage", string(cfgErr.Stage)))
	}
	logger.Warn("Lint configuration error ignored", attrs...)
	return nil
}

// IsFinding reports whether err is a lint-finding abort.
func IsFinding(err error) bool {
	var f *FindingError
	return errors.As(err, &f)
}

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool {
	var c *ConfigError
	return errors.As(err, &c)
}
