// Package main is the entry point for the apitracker CLI.
package main

import (
	"os"

	"github.com/pysugar/api-tracker/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
