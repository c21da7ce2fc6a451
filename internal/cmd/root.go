// Package cmd provides the CLI commands for buildlint.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justrnr500/buildlint/internal/telemetry"
)

// Version information set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	verbose       bool
	telemetryFlag string
	stopTelemetry = func(context.Context) error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "buildlint",
	Short: "Lint gate for JavaScript build passes",
	Long: `buildlint runs ESLint over the files a build pass transforms, prints
the findings, optionally writes autofixes back to disk, and halts the build
when errors or warnings cross the configured thresholds.

Which files are linted is decided by include and exclude patterns in
.buildlint/config.yaml. Patterns are globs ("src/**.ts") or regular
expressions wrapped in slashes ("/\.vue$/").`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verbose)
		shutdown, err := telemetry.Init(cmd.Context(), telemetryFlag, os.Stderr, Version)
		if err != nil {
			return err
		}
		stopTelemetry = shutdown
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if serr := stopTelemetry(context.Background()); serr != nil {
		slog.Warn("Telemetry flush failed", slog.String("error", serr.Error()))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{printf "buildlint %s\ncommit: %s\nbuilt: %s\n" .Version "` + Commit + `" "` + BuildDate + `"}}`)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log engine calls and per-file results")
	rootCmd.PersistentFlags().StringVar(&telemetryFlag, "telemetry", telemetry.ExporterNone,
		"Export engine spans and metrics to stderr: "+strings.Join(telemetry.Exporters(), ", "))
	rootCmd.SilenceErrors = true
}

// setupLogging sends structured logs to stderr. Verbose lowers the level to
// debug.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
