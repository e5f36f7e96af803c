package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/legalease-ai/evidence-core/internal/domain"
	"github.com/legalease-ai/evidence-core/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var (
		caseID     string
		caseNumber string
		client     string
		matterType string
		teamID     string
		evType     string
	)

	cmd := &cobra.Command{
		Use:   "index [files...]",
		Short: "Chunk, embed, and index evidence files into a case",
		Long: `index reads one or more evidence files from disk, chunks and embeds
their content, and writes the result into the named case's index.

The case is created on first reference if it does not already exist.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, args, caseID, caseNumber, client, matterType, teamID, evType)
		},
	}

	cmd.Flags().StringVar(&caseID, "case", "", "Case ID to index evidence into (required)")
	cmd.Flags().StringVar(&caseNumber, "case-number", "", "Case number, used only when creating a new case")
	cmd.Flags().StringVar(&client, "client", "", "Client name, used only when creating a new case")
	cmd.Flags().StringVar(&matterType, "matter-type", "", "Matter type, used only when creating a new case")
	cmd.Flags().StringVar(&teamID, "team", "default", "Owning team ID, used only when creating a new case")
	cmd.Flags().StringVar(&evType, "type", "document", "Evidence type: document, transcript, or communication")
	_ = cmd.MarkFlagRequired("case")

	return cmd
}

func evidenceTypeFromFlag(s string) (domain.EvidenceType, error) {
	switch s {
	case "document":
		return domain.EvidenceTypeDocument, nil
	case "transcript":
		return domain.EvidenceTypeTranscript, nil
	case "communication":
		return domain.EvidenceTypeCommunication, nil
	default:
		return "", fmt.Errorf("unknown evidence type %q (want document, transcript, or communication)", s)
	}
}

func runIndex(cmd *cobra.Command, paths []string, caseID, caseNumber, client, matterType, teamID, evTypeFlag string) error {
	ctx := context.Background()

	evType, err := evidenceTypeFromFlag(evTypeFlag)
	if err != nil {
		return err
	}

	app, cleanup, err := buildApp(ctx, flags)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := app.store.GetCase(ctx, caseID); err != nil {
		c, err := domain.NewCase(caseID, caseNumber, client, matterType, teamID)
		if err != nil {
			return fmt.Errorf("evidence-core: build case %s: %w", caseID, err)
		}
		if err := app.store.SaveCase(ctx, c); err != nil {
			return fmt.Errorf("evidence-core: create case %s: %w", caseID, err)
		}
	}

	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(), ui.WithNoColor(ui.DetectNoColor())))
	if err := renderer.Start(ctx); err != nil {
		return fmt.Errorf("evidence-core: start progress renderer: %w", err)
	}

	tracker := ui.NewProgressTracker()
	tracker.SetStage(ui.StageIndexing, len(paths))

	started := time.Now()
	var totalChunks, failed int
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			renderer.AddError(ui.ErrorEvent{File: path, Err: err})
			failed++
			continue
		}

		evidence, err := domain.NewEvidence(uuid.NewString(), caseID, evType, filepath.Base(path), int64(len(data)))
		if err != nil {
			renderer.AddError(ui.ErrorEvent{File: path, Err: err})
			failed++
			continue
		}

		result, err := app.pipeline.Ingest(ctx, evidence, string(data))
		if err != nil {
			renderer.AddError(ui.ErrorEvent{File: path, Err: err})
			failed++
			continue
		}

		tracker.Update(i+1, path)
		renderer.UpdateProgress(ui.ProgressEvent{
			Stage:       ui.StageIndexing,
			Current:     i + 1,
			Total:       len(paths),
			CurrentFile: path,
			Message:     fmt.Sprintf("%d chunks", result.ChunksWritten),
		})
		totalChunks += result.ChunksWritten
	}

	renderer.Complete(ui.CompletionStats{
		Files:    len(paths),
		Chunks:   totalChunks,
		Duration: time.Since(started),
		Errors:   failed,
		Embedder: ui.EmbedderInfo{
			Backend:    string(embedderTypeOf(app.flags.embedProvider)),
			Model:      app.embedder.ModelName(),
			Dimensions: app.embedder.Dimensions(),
		},
	})
	return renderer.Stop()
}
