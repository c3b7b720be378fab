/*
PURPOSE:
  Entry point for Variant Runner.
  Initializes the CLI root command and executes it.

REQUIREMENTS:
  User-specified:
  - Single binary entry point.
  - Non-zero exit on configuration or serialization errors.

ARCHITECTURE INTEGRATION:
  - Calls: internal/cli.Execute()

IMPLEMENTATION RULES:
  - Keep main() minimal. All logic belongs in internal/ packages.

USAGE:
  go build -o variant-runner ./cmd/variant-runner
  ./variant-runner run haiku sonnet

RELATED FILES:
  - internal/cli/root.go
*/

package main

import (
	"fmt"
	"os"

	"github.com/daryltucker/variant-runner/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
