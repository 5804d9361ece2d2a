// Command sift compiles filter/sort/page requests into SQL.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/sift/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
