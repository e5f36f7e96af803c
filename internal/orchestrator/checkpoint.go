package orchestrator

import (
	"context"
	"fmt"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// checkpoint persists run's current state, the durable event the workflow
// replays from after a process restart. Writes happen at every phase
// transition boundary, the same granularity internal/session.SaveSession
// uses for its atomic temp-file-then-rename write, carried here through
// the metadata store's own upsert rather than a second on-disk file.
func checkpoint(ctx context.Context, store CheckpointStore, run *domain.ResearchRun) error {
	if err := store.SaveResearchRun(ctx, run); err != nil {
		return fmt.Errorf("orchestrator: checkpoint run %s: %w", run.ID, err)
	}
	return nil
}
