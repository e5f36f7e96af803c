package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/legalease-ai/evidence-core/internal/domain"
	"github.com/legalease-ai/evidence-core/internal/querybus"
	"github.com/legalease-ai/evidence-core/internal/queryhandlers"
)

func newResearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "research",
		Short: "Start and control deep-research runs",
	}

	cmd.AddCommand(newResearchStartCmd())
	cmd.AddCommand(newResearchStatusCmd())
	cmd.AddCommand(newResearchCancelCmd())
	cmd.AddCommand(newResearchPauseCmd())
	cmd.AddCommand(newResearchResumeCmd())

	return cmd
}

func newResearchStartCmd() *cobra.Command {
	var caseID string

	cmd := &cobra.Command{
		Use:   "start [query]",
		Short: "Start a research run against a case",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]
			for _, a := range args[1:] {
				query += " " + a
			}

			ctx := context.Background()
			app, cleanup, err := buildApp(ctx, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			run, err := domain.NewResearchRun(uuid.NewString(), caseID, query)
			if err != nil {
				return err
			}
			if err := app.store.SaveResearchRun(ctx, run); err != nil {
				return fmt.Errorf("evidence-core: persist research run: %w", err)
			}
			app.manager.Start(ctx, run)

			fmt.Fprintf(cmd.OutOrStdout(), "started research run %s\n", run.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&caseID, "case", "", "Case ID to research (required)")
	_ = cmd.MarkFlagRequired("case")
	return cmd
}

func newResearchStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [run-id]",
		Short: "Report a research run's status and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, cleanup, err := buildApp(ctx, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := querybus.Execute[queryhandlers.GetResearchStatusResult](app.bus, ctx, queryhandlers.GetResearchStatusQuery{
				ResearchRunID: args[0],
			})
			if err != nil {
				return fmt.Errorf("evidence-core: get status: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "run:      %s\n", result.Run.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "status:   %s\n", result.Run.Status)
			fmt.Fprintf(cmd.OutOrStdout(), "phase:    %s\n", result.Run.Phase)
			fmt.Fprintf(cmd.OutOrStdout(), "progress: %.1f%%\n", result.ProgressPct)
			if len(result.Run.Errors) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "errors:   %v\n", result.Run.Errors)
			}
			return nil
		},
	}
	return cmd
}

func newResearchCancelCmd() *cobra.Command {
	return researchSignalCmd("cancel", "Cancel a running research run", func(a *app, runID string) bool {
		return a.manager.Cancel(runID)
	})
}

func newResearchPauseCmd() *cobra.Command {
	return researchSignalCmd("pause", "Pause a running research run", func(a *app, runID string) bool {
		return a.manager.PauseRun(runID)
	})
}

func newResearchResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume [run-id]",
		Short: "Resume a paused research run from its checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, cleanup, err := buildApp(ctx, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := app.manager.Resume(ctx, args[0]); err != nil {
				return fmt.Errorf("evidence-core: resume %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "resumed research run %s\n", args[0])
			return nil
		},
	}
	return cmd
}

func researchSignalCmd(use, short string, signal func(a *app, runID string) bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [run-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, cleanup, err := buildApp(ctx, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			if !signal(app, args[0]) {
				return fmt.Errorf("evidence-core: no in-process run %s (it may already be terminal)", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signaled %s for run %s\n", use, args[0])
			return nil
		},
	}
}
