package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/legalease-ai/evidence-core/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system requirements before indexing or serving",
		Long: `Run diagnostics to ensure evidence-core can operate correctly:

  - Disk space under --data-dir
  - Memory availability
  - Write permissions
  - File descriptor limits
  - Embedder model status (downloaded/missing)

Embedder checks are non-critical; a missing model falls back to static
embeddings rather than blocking the command.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, verbose, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runDoctor(cmd *cobra.Command, verbose, jsonOutput bool) error {
	checker := preflight.New(
		preflight.WithVerbose(verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
	)

	results := checker.RunAll(context.Background(), flags.dataDir)

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	checker.PrintResults(results)

	if checker.HasCriticalFailures(results) {
		os.Exit(1)
	}
	return nil
}
