// Command edmsql compiles entity requests into parameterized SQL.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/edmsql/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
