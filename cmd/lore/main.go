// Package main provides the entry point for the lore CLI.
package main

import (
	"os"

	"github.com/anticorrelator/lore/cmd/lore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
