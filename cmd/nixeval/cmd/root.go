package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set by build flags the way the teacher's
// cmd/dwscript/cmd/root.go bakes in Version/GitCommit/BuildDate.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "nixeval",
	Short: "A lazy, purely functional expression evaluator",
	Long: `nixeval evaluates expressions in a small, Nix-like configuration
language: lazy (call-by-need) evaluation, immutable attribute sets and
lists, and a closed set of built-in functions reachable through
'builtins'.

This is a teaching-scale reimplementation, not a drop-in replacement for
the real Nix evaluator — see SPEC_FULL.md for exactly what it covers.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
