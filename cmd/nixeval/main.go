// Command nixeval is a CLI front end over pkg/nixeval, grounded on the
// teacher's cmd/dwscript entry point: a bare main that delegates entirely
// to the cmd package's Execute, so flag/subcommand wiring lives in one
// place.
package main

import (
	"os"

	"github.com/NixOS/nix-sub000/cmd/nixeval/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
