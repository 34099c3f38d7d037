// Command clitheme compiles theme source files and rewrites a child
// process's terminal output through the compiled rules.
package main

import (
	"fmt"
	"os"

	"github.com/clitheme/clitheme/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.GetExitCode(err))
}
