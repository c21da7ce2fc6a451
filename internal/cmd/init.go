package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justrnr500/buildlint/internal/cache"
	"github.com/justrnr500/buildlint/internal/config"
	"github.com/justrnr500/buildlint/internal/report"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize buildlint in the current directory",
	Long: `Initialize buildlint in the current directory.

This creates a .buildlint/ directory with:
  - config.yaml   Include/exclude patterns and lint policy
  - .gitignore    Ignores the cache and local reports

and makes sure .env (which may hold report DSNs) is ignored by git.`,
	RunE: runInit,
}

var (
	initQuiet  bool
	initFix    bool
	initCache  bool
	initReport string
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initQuiet, "quiet", "q", false, "Suppress output")
	initCmd.Flags().BoolVar(&initFix, "fix", false, "Enable autofix in the generated config")
	initCmd.Flags().BoolVar(&initCache, "cache", false, "Enable the lint cache in the generated config")
	initCmd.Flags().StringVar(&initReport, "report", "", "Report driver: "+strings.Join(report.Drivers(), ", "))
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	out := io.Writer(os.Stdout)
	if initQuiet {
		out = io.Discard
	}

	cfg := config.Default()
	cfg.Fix = initFix
	cfg.Cache = initCache
	cfg.Report.Driver = initReport
	return initProject(out, cwd, cfg)
}

// initProject writes the .buildlint directory for root.
func initProject(w io.Writer, root string, cfg *config.Config) error {
	if config.Exists(root) {
		fmt.Fprintln(w, "Already initialized in", filepath.Join(root, config.DirName))
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	paths := config.ResolvePaths(root)
	if err := os.MkdirAll(paths.Root, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", paths.Root, err)
	}
	fmt.Fprintln(w, "✓ Created", paths.Root)

	if err := cfg.Save(paths.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintln(w, "✓ Created", config.ConfigFile)

	if cfg.Cache {
		store, err := cache.Open(cfg.CachePath(paths))
		if err != nil {
			return fmt.Errorf("initialize cache: %w", err)
		}
		store.Close()
		fmt.Fprintln(w, "✓ Initialized lint cache")
	}

	gitignore := `# buildlint - local lint cache and reports
cache.db
cache.db-shm
cache.db-wal
report.db
report.db-shm
report.db-wal
report.jsonl
`
	gitignorePath := filepath.Join(paths.Root, config.GitIgnoreFile)
	if err := os.WriteFile(gitignorePath, []byte(gitignore), 0644); err != nil {
		return fmt.Errorf("create gitignore: %w", err)
	}
	fmt.Fprintln(w, "✓ Created .gitignore")

	ensureGitignoreEntry(filepath.Join(root, config.GitIgnoreFile), config.EnvFile)

	fmt.Fprintln(w, "\nReady to lint. Try:")
	fmt.Fprintln(w, "  buildlint doctor")
	fmt.Fprintln(w, "  buildlint run")
	return nil
}

// ensureGitignoreEntry ensures that the given entry exists in the gitignore file
// at path. If the file does not exist, it is created. If the entry already
// exists (compared after trimming whitespace), no changes are made.
func ensureGitignoreEntry(path, entry string) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == entry {
			return
		}
	}

	content := string(data)
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"

	os.WriteFile(path, []byte(content), 0644)
}
