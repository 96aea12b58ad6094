// Package main provides the entry point for bradis-cli.
//
// bradis-cli is a small RESP client for poking at a running server,
// supporting both single-command mode and an interactive prompt.
package main

import (
	"fmt"
	"os"

	"github.com/braddunbar/bradis/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
