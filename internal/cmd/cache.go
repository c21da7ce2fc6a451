package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/justrnr500/buildlint/internal/cache"
	"github.com/justrnr500/buildlint/internal/lint"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the lint cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [path...]",
	Short: "Remove cached lint results",
	Long: `Remove cached lint results so the next build pass lints files again.

Without paths the whole cache is cleared. Paths are matched the way a build
pass sees them, relative to the project root.

Examples:
  buildlint cache clear
  buildlint cache clear src/app.ts src/legacy.js`,
	RunE: runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}

	path := proj.cfg.CachePath(proj.paths)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No lint cache at", path)
		return nil
	}

	store, err := cache.Open(path)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	ids := make([]string, len(args))
	for i, arg := range args {
		ids[i] = matchID(proj.root, arg)
	}
	return clearCache(os.Stdout, store, ids)
}

// clearCache removes ids from store, or everything when ids is empty.
func clearCache(w io.Writer, store *cache.Store, ids []string) error {
	if len(ids) == 0 {
		n, err := store.Clear()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s Cleared %s\n", okMark(), lint.Pluralize(int(n), "cached file"))
		return nil
	}

	for _, id := range ids {
		removed, err := store.Delete(id)
		if err != nil {
			return err
		}
		if removed {
			fmt.Fprintf(w, "%s Cleared %s\n", okMark(), id)
		} else {
			fmt.Fprintf(w, "  %s %s\n", id, dimStyle.Render("(not cached)"))
		}
	}
	return nil
}
