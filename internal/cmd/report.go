package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/justrnr500/buildlint/internal/lint"
	"github.com/justrnr500/buildlint/internal/policy"
	"github.com/justrnr500/buildlint/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report [build-id]",
	Short: "Show the recorded outcome of a build pass",
	Long: `Show the per-file records a build pass wrote to the report sink.
Without a build ID the most recent build is shown.

Requires report.driver to be set in config.yaml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

var (
	reportJSON bool
	reportAll  bool
)

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Output records as JSON")
	reportCmd.Flags().BoolVarP(&reportAll, "all", "a", false, "List clean files too")
}

func runReport(cmd *cobra.Command, args []string) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}
	if proj.cfg.Report.Driver == "" {
		return fmt.Errorf("no report driver configured, set report.driver in %s", proj.paths.Config)
	}

	sink, err := proj.openReport(cmd.Context(), afero.NewOsFs())
	if err != nil {
		return err
	}
	defer sink.Close()

	var buildID string
	if len(args) > 0 {
		buildID = args[0]
	}
	records, err := sink.Records(cmd.Context(), buildID)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	if reportJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	writeReportOutput(os.Stdout, records, reportAll)
	return nil
}

func writeReportOutput(w io.Writer, records []report.Record, all bool) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return
	}

	totals := report.Summarize(records)
	fmt.Fprintf(w, "Build %s: %s, %d flagged\n",
		records[0].BuildID, lint.Pluralize(totals.Files, "file"), totals.Flagged)
	if totals.Errors > 0 || totals.Warnings > 0 {
		fmt.Fprintf(w, "  %s\n", policy.Summary(totals.Errors, totals.Warnings))
	}
	if totals.Fixed > 0 {
		fmt.Fprintf(w, "  %s fixed\n", lint.Pluralize(totals.Fixed, "file"))
	}

	shown := make([]report.Record, 0, len(records))
	for _, r := range records {
		if all || r.Errors > 0 || r.Warnings > 0 {
			shown = append(shown, r)
		}
	}
	if len(shown) == 0 {
		return
	}
	sort.SliceStable(shown, func(i, j int) bool { return shown[i].Path < shown[j].Path })

	fmt.Fprintln(w)
	for _, r := range shown {
		line := fmt.Sprintf("  %-8s %s", r.State, r.Path)
		if r.Errors > 0 || r.Warnings > 0 {
			line += "  " + policy.Summary(r.Errors, r.Warnings)
		}
		if r.Fixed {
			line += " " + warnStyle.Render("(fixed)")
		}
		fmt.Fprintln(w, line)
	}
}
