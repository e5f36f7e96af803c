package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/legalease-ai/evidence-core/internal/querybus"
	"github.com/legalease-ai/evidence-core/internal/queryhandlers"
	"github.com/legalease-ai/evidence-core/internal/retriever"
)

func newSearchCmd() *cobra.Command {
	var (
		caseID     string
		collection string
		mode       string
		topK       int
	)

	cmd := &cobra.Command{
		Use:   "search [query text]",
		Short: "Run a hybrid search against a case's evidence index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := args[0]
			for _, a := range args[1:] {
				text += " " + a
			}
			return runSearch(cmd, caseID, collection, mode, topK, text)
		},
	}

	cmd.Flags().StringVar(&caseID, "case", "", "Case ID to search (required)")
	cmd.Flags().StringVar(&collection, "collection", "documents", "Collection: documents, transcripts, or communications")
	cmd.Flags().StringVar(&mode, "mode", "hybrid", "Search mode: hybrid, dense, or lexical")
	cmd.Flags().IntVar(&topK, "top", 10, "Number of results to return")
	_ = cmd.MarkFlagRequired("case")

	return cmd
}

func retrieverModeFromFlag(s string) retriever.Mode {
	switch s {
	case "dense":
		return retriever.ModeDenseOnly
	case "lexical":
		return retriever.ModeLexicalOnly
	default:
		return retriever.ModeHybrid
	}
}

func runSearch(cmd *cobra.Command, caseID, collection, modeFlag string, topK int, text string) error {
	ctx := context.Background()

	app, cleanup, err := buildApp(ctx, flags)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := querybus.Execute[queryhandlers.SearchEvidenceResult](app.bus, ctx, queryhandlers.SearchEvidenceQuery{
		CaseID:     caseID,
		Collection: collection,
		Text:       text,
		TopK:       topK,
		Mode:       retrieverModeFromFlag(modeFlag),
	})
	if err != nil {
		return fmt.Errorf("evidence-core: search: %w", err)
	}

	if len(result.Results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no results")
		return nil
	}

	for i, r := range result.Results {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. [%.3f] %s (%s)\n", i+1, r.Score, r.EvidenceID, r.ChunkType)
		fmt.Fprintf(cmd.OutOrStdout(), "   %s\n", truncate(r.Text, 200))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
