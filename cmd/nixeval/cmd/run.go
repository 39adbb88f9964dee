package cmd

import (
	"fmt"
	"os"

	"github.com/NixOS/nix-sub000/internal/value"
	"github.com/NixOS/nix-sub000/pkg/nixeval"
	"github.com/spf13/cobra"
)

var (
	evalExpr string
	deep     bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Evaluate an expression or file and print its value",
	Long: `Evaluate a nixeval expression from a file or an inline string.

Examples:
  # Evaluate a file
  nixeval run config.nix

  # Evaluate an inline expression
  nixeval run -e "1 + 2"

  # Fully force the result (descends into lists/attrsets) before printing
  nixeval run --deep config.nix`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline text instead of reading from a file")
	runCmd.Flags().BoolVar(&deep, "deep", false, "fully force the result before printing (descend into lists/attrsets)")
}

func runEval(_ *cobra.Command, args []string) error {
	sess := nixeval.New(nil, nil)
	defer sess.Close()

	var (
		v   *value.Value
		err error
	)
	switch {
	case evalExpr != "":
		v, err = sess.EvalString("<command-line>", evalExpr)
	case len(args) == 1:
		v, err = sess.EvalFile(args[0])
	default:
		v, err = sess.EvalReader("<stdin>", os.Stdin)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, nixeval.FormatError(err, ""))
		os.Exit(nixeval.ExitCode(err))
		return nil
	}

	if deep {
		if err := sess.ForceDeep(v); err != nil {
			fmt.Fprintln(os.Stderr, nixeval.FormatError(err, ""))
			os.Exit(nixeval.ExitCode(err))
			return nil
		}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "[nixeval] evaluated %d thunk(s)\n", sess.Eval.ThunksForced)
	}

	if err := nixeval.Render(os.Stdout, v); err != nil {
		exitWithError("writing result: %v", err)
	}
	return nil
}
