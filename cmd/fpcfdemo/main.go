// Command fpcfdemo drives the property store through one illustrative
// fixed-point phase and prints the resulting table and counters.
package main

import (
	"fmt"
	"os"

	"github.com/opalj-go/fpcf/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
