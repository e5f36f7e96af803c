// Package main provides the entry point for the evidence-core CLI.
package main

import (
	"os"

	"github.com/legalease-ai/evidence-core/cmd/evidence-core/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
