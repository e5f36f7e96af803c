package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/legalease-ai/evidence-core/internal/embed"
	"github.com/legalease-ai/evidence-core/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var (
		caseID  string
		asJSON  bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report a case's index health and on-disk footprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, caseID, asJSON, noColor)
		},
	}

	cmd.Flags().StringVar(&caseID, "case", "", "Case ID to report on (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit status as JSON")
	cmd.Flags().BoolVar(&noColor, "no-color", ui.DetectNoColor(), "Disable colored status output")
	_ = cmd.MarkFlagRequired("case")

	return cmd
}

func runStatus(cmd *cobra.Command, caseID string, asJSON, noColor bool) error {
	ctx := context.Background()

	app, cleanup, err := buildApp(ctx, flags)
	if err != nil {
		return err
	}
	defer cleanup()

	c, err := app.store.GetCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("evidence-core: look up case %s: %w", caseID, err)
	}

	evidence, err := app.store.ListEvidenceByCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("evidence-core: list evidence for %s: %w", caseID, err)
	}

	var totalChunks int
	var lastIndexed time.Time
	for _, e := range evidence {
		totalChunks += len(e.Segments)
		if e.UpdatedAt.After(lastIndexed) {
			lastIndexed = e.UpdatedAt
		}
	}

	caseDir := filepath.Join(app.flags.dataDir, caseID)
	lexicalSize, vectorSize, metadataSize := diskFootprint(caseDir)

	embedderStatus := "offline"
	if app.embedder.Available(ctx) {
		embedderStatus = "ready"
	}

	info := ui.StatusInfo{
		CaseName:       c.Client + " (" + c.CaseNumber + ")",
		TotalEvidence:  len(evidence),
		TotalChunks:    totalChunks,
		LastIndexed:    lastIndexed,
		MetadataSize:   metadataSize,
		LexicalSize:    lexicalSize,
		VectorSize:     vectorSize,
		TotalSize:      metadataSize + lexicalSize + vectorSize,
		EmbedderType:   string(embedderTypeOf(app.flags.embedProvider)),
		EmbedderStatus: embedderStatus,
		EmbedderModel:  app.flags.embedModel,
		WatcherStatus:  "n/a",
	}

	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), noColor)
	if asJSON {
		return renderer.RenderJSON(info)
	}
	return renderer.Render(info)
}

func embedderTypeOf(provider string) embed.ProviderType {
	if provider == "" {
		return embed.ProviderStatic
	}
	return embed.ProviderType(provider)
}

// diskFootprint sums file sizes under caseDir's chunks.db files (metadata),
// lexical/ directories (bleve or sqlite FTS indexes), and vectors/
// directories (HNSW graphs), across every named collection.
func diskFootprint(caseDir string) (lexical, vector, metadata int64) {
	_ = filepath.WalkDir(caseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(caseDir, path)
		segments := strings.Split(rel, string(filepath.Separator))
		switch {
		case containsSegment(segments, "lexical"):
			lexical += info.Size()
		case containsSegment(segments, "vectors"):
			vector += info.Size()
		default:
			metadata += info.Size()
		}
		return nil
	})
	return lexical, vector, metadata
}

func containsSegment(segments []string, name string) bool {
	for _, seg := range segments {
		if seg == name {
			return true
		}
	}
	return false
}
