package intake

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/legalease-ai/evidence-core/internal/domain"
	"github.com/legalease-ai/evidence-core/internal/watcher"
)

// DropFolderWatcher drives Pipeline.Ingest from file-system events under a
// case's drop folder, the ingestion trigger SPEC_FULL.md's intake section
// describes alongside the CLI's explicit index command. Built on
// internal/watcher.HybridWatcher, the same fsnotify-with-polling-fallback
// watcher the teacher used to detect source changes for reindexing.
type DropFolderWatcher struct {
	pipeline *Pipeline
	caseID   string
	watcher  *watcher.HybridWatcher
	logger   *slog.Logger
}

// NewDropFolderWatcher builds a watcher over dir for caseID's evidence
// intake.
func NewDropFolderWatcher(pipeline *Pipeline, caseID, dir string, logger *slog.Logger) (*DropFolderWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := watcher.NewHybridWatcher(watcher.DefaultOptions())
	if err != nil {
		return nil, err
	}
	return &DropFolderWatcher{pipeline: pipeline, caseID: caseID, watcher: w, logger: logger}, nil
}

// Run starts watching dir and ingests every created or modified file until
// ctx is cancelled or Stop is called. Deletions are not reflected back to
// the index; evidence removal is an explicit operation, not implied by a
// dropped file disappearing from the folder.
func (d *DropFolderWatcher) Run(ctx context.Context, dir string) error {
	if err := d.watcher.Start(ctx, dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return d.watcher.Stop()
		case batch, ok := <-d.watcher.Events():
			if !ok {
				return nil
			}
			for _, ev := range batch {
				if ev.IsDir || (ev.Operation != watcher.OpCreate && ev.Operation != watcher.OpModify) {
					continue
				}
				d.ingestPath(ctx, filepath.Join(dir, ev.Path))
			}
		case err, ok := <-d.watcher.Errors():
			if !ok {
				continue
			}
			d.logger.Warn("intake: drop-folder watch error", slog.String("error", err.Error()))
		}
	}
}

// Stop releases the underlying watcher.
func (d *DropFolderWatcher) Stop() error {
	return d.watcher.Stop()
}

func (d *DropFolderWatcher) ingestPath(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		d.logger.Warn("intake: read dropped file", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	// Dropped files are ingested as documents; transcript evidence carries
	// structured Segments a raw file watch has no way to populate, and is
	// expected to arrive through the index command's richer evidence
	// construction instead.
	evidence, err := domain.NewEvidence(uuid.NewString(), d.caseID, domain.EvidenceTypeDocument, filepath.Base(path), int64(len(data)))
	if err != nil {
		d.logger.Warn("intake: build evidence", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	if _, err := d.pipeline.Ingest(ctx, evidence, string(data)); err != nil {
		d.logger.Error("intake: ingest dropped file", slog.String("path", path), slog.String("error", err.Error()))
	}
}
