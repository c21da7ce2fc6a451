package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/justrnr500/buildlint/internal/lint"
)

var formattersCmd = &cobra.Command{
	Use:   "formatters",
	Short: "List the available result formatters",
	RunE: func(cmd *cobra.Command, args []string) error {
		writeFormatters(os.Stdout, lint.DefaultFormatters().Names(), lint.DefaultFormatter)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formattersCmd)
}

func writeFormatters(w io.Writer, names []string, def string) {
	for _, n := range names {
		if n == def {
			fmt.Fprintf(w, "%s %s\n", n, dimStyle.Render("(default)"))
			continue
		}
		fmt.Fprintln(w, n)
	}
}
