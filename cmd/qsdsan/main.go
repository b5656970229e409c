package main

import (
	"fmt"
	"os"

	"github.com/KimmieDC/qsdsan/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !cli.IsExitError(err) {
			// Flag and usage errors never pass through a formatter.
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(cli.ExitCommandError)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
