// Command lens loads CUE-described entities into a SQLite store and runs
// chained queries against them.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/lourenco-marinho/Lens/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands print their own formatted errors; flag and usage errors
		// from cobra itself still need reporting.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
