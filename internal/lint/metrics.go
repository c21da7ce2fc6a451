package lint

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for engine calls. Both are no-ops until
// the host installs providers.
var (
	tracer = otel.Tracer("buildlint.lint")
	meter  = otel.Meter("buildlint.lint")
)

var (
	lintLatency   metric.Float64Histogram
	lintTotal     metric.Int64Counter
	errorsFound   metric.Int64Counter
	warningsFound metric.Int64Counter
	fixesWritten  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics creates the instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		lintLatency, err = meter.Float64Histogram(
			"lint_duration_seconds",
			metric.WithDescription("Duration of lint engine invocations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		lintTotal, err = meter.Int64Counter(
			"lint_total",
			metric.WithDescription("Total number of lint engine invocations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		errorsFound, err = meter.Int64Counter(
			"lint_errors_found_total",
			metric.WithDescription("Total number of lint errors reported"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		warningsFound, err = meter.Int64Counter(
			"lint_warnings_found_total",
			metric.WithDescription("Total number of lint warnings reported"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		fixesWritten, err = meter.Int64Counter(
			"lint_fixes_written_total",
			metric.WithDescription("Total number of files rewritten with fixes"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func startLintSpan(ctx context.Context, filePath string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ESLint.LintText",
		trace.WithAttributes(attribute.String("lint.file_path", filePath)),
	)
}

func setLintSpanResult(span trace.Span, errorCount, warningCount int) {
	span.SetAttributes(
		attribute.Int("lint.error_count", errorCount),
		attribute.Int("lint.warning_count", warningCount),
	)
}

func recordLintMetrics(ctx context.Context, duration time.Duration, errorCount, warningCount int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))
	lintLatency.Record(ctx, duration.Seconds(), attrs)
	lintTotal.Add(ctx, 1, attrs)

	if success {
		errorsFound.Add(ctx, int64(errorCount))
		warningsFound.Add(ctx, int64(warningCount))
	}
}

func recordFixWritten(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	fixesWritten.Add(ctx, 1)
}
