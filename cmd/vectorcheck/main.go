// Command vectorcheck runs CBOR conformance vectors written in extended
// diagnostic notation.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/vectorcheck/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		os.Exit(cli.GetExitCode(err))
	}
}
