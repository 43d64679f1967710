// Package main is the entry point for the logsearch CLI binary.
package main

import (
	"os"

	cli "logsearch/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
