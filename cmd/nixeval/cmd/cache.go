package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the on-disk evaluation cache",
	Long: `The evaluation cache (NIX_EVAL_CACHE) memoizes forced attribute
values across sessions that share the same root expression and
configuration. This command only manages the cache file itself — clearing
forces the next run to recompute every attribute from scratch.`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the evaluation cache database named by NIX_EVAL_CACHE",
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheClear(_ *cobra.Command, _ []string) error {
	path := os.Getenv("NIX_EVAL_CACHE")
	if path == "" {
		fmt.Fprintln(os.Stderr, "NIX_EVAL_CACHE is not set; nothing to clear")
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		exitWithError("removing %s: %v", path, err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "[nixeval] removed cache %s\n", path)
	}
	return nil
}
