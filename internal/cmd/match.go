package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/justrnr500/buildlint/internal/filter"
	"github.com/justrnr500/buildlint/internal/plugin"
)

var matchCmd = &cobra.Command{
	Use:   "match [path...]",
	Short: "Explain whether paths would be linted",
	Long: `Check paths against the include and exclude patterns and show which
pattern decided each one. The lint engine is not run.

Paths that exist are made relative to the project root first, the same way a
build pass sees them. Other arguments are checked verbatim, which allows
testing module IDs such as "virtual:entry".

Examples:
  buildlint match src/app.ts
  buildlint match node_modules/lodash/index.js --json
  buildlint match --patterns`,
	RunE: runMatch,
}

var (
	matchJSON     bool
	matchPatterns bool
)

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "Output as JSON")
	matchCmd.Flags().BoolVar(&matchPatterns, "patterns", false, "Print the active include and exclude patterns")
}

func runMatch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !matchPatterns {
		return fmt.Errorf("requires at least one path, or --patterns")
	}

	proj, err := loadProject()
	if err != nil {
		return err
	}
	include, exclude, err := proj.cfg.Patterns()
	if err != nil {
		return err
	}

	f := filter.New(include, exclude)
	if matchPatterns {
		writePatterns(os.Stdout, f)
		if len(args) == 0 {
			return nil
		}
		fmt.Println()
	}

	verdicts := make([]filter.Verdict, 0, len(args))
	for _, arg := range args {
		verdicts = append(verdicts, f.Explain(matchID(proj.root, arg)))
	}
	return writeMatchOutput(os.Stdout, verdicts, matchJSON)
}

// matchID turns a command-line argument into the ID a build pass would see.
func matchID(root, arg string) string {
	if _, err := os.Stat(arg); err == nil {
		if abs, err := filepath.Abs(arg); err == nil {
			arg = abs
		}
	}
	return plugin.NormalizeID(root, arg)
}

func writeMatchOutput(w io.Writer, verdicts []filter.Verdict, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(verdicts)
	}

	for _, v := range verdicts {
		mark := okMark()
		if !v.Included {
			mark = failMark()
		}
		line := fmt.Sprintf("%s %s  %s", mark, v.Path, v.Reason)
		if v.Pattern != "" {
			line += " " + dimStyle.Render(v.Pattern)
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

// writePatterns lists the active pattern sets in config-file syntax.
func writePatterns(w io.Writer, f *filter.Filter) {
	sections := []struct {
		title    string
		patterns []string
		empty    string
	}{
		{"Include", f.Includes(), "(none, every path not excluded is linted)"},
		{"Exclude", f.Excludes(), "(none)"},
	}
	for _, s := range sections {
		fmt.Fprintf(w, "%s:\n", s.title)
		if len(s.patterns) == 0 {
			fmt.Fprintf(w, "  %s\n", dimStyle.Render(s.empty))
		}
		for _, p := range s.patterns {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
}
