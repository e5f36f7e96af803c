package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/legalease-ai/evidence-core/internal/intake"
)

func newWatchCmd() *cobra.Command {
	var caseID string

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch a drop folder and ingest files as they arrive",
		Long: `watch monitors dir for created or modified files and ingests each one
as document evidence into the named case, running until interrupted.

Use the index command instead for one-shot ingestion, or when evidence
needs a type other than document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], caseID)
		},
	}

	cmd.Flags().StringVar(&caseID, "case", "", "Case ID to ingest dropped files into (required)")
	_ = cmd.MarkFlagRequired("case")

	return cmd
}

func runWatch(cmd *cobra.Command, dir, caseID string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := buildApp(ctx, flags)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := app.store.GetCase(ctx, caseID); err != nil {
		return fmt.Errorf("evidence-core: case %s must exist before watching (run index first): %w", caseID, err)
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	w, err := intake.NewDropFolderWatcher(app.pipeline, caseID, dir, logger)
	if err != nil {
		return fmt.Errorf("evidence-core: build drop-folder watcher: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "watching %s for case %s (ctrl-c to stop)\n", dir, caseID)
	if err := w.Run(ctx, dir); err != nil {
		return fmt.Errorf("evidence-core: watch %s: %w", dir, err)
	}
	return nil
}
