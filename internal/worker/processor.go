package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/gaybro8777/mediacloud/internal/domain"
	"github.com/gaybro8777/mediacloud/internal/streaming"
)

// defaultJobTimeout is the maximum time a single export or indexing job is
// allowed to run.
const defaultJobTimeout = 30 * time.Minute

// Processor subscribes to a tenant's NATS subjects and drives saved-search
// exports through the Pipeline and story re-indexing through the Indexer.
type Processor struct {
	pipeline *Pipeline
	indexer  *Indexer
	nats     streaming.NATSStreamer
	tenantID string
}

func NewProcessor(pipeline *Pipeline, indexer *Indexer, nats streaming.NATSStreamer, tenantID string) *Processor {
	return &Processor{pipeline: pipeline, indexer: indexer, nats: nats, tenantID: tenantID}
}

// Start subscribes to export submissions and story-ingestion events and
// processes each one. It blocks until the context is cancelled.
func (p *Processor) Start(ctx context.Context) error {
	slog.Info("processor starting", "tenant_id", p.tenantID)

	err := p.nats.SubscribeExportSubmit(ctx, p.tenantID, func(search domain.SavedSearch) {
		logger := slog.With("search_id", search.ID.String(), "tenant_id", p.tenantID)

		if ctx.Err() != nil {
			logger.Warn("shutdown in progress, skipping export")
			return
		}

		logger.Info("received export submission")

		// Use a per-job context derived from context.Background so that an
		// in-progress export is not aborted when the shutdown context is
		// cancelled. Each export gets its own timeout.
		jobCtx, jobCancel := context.WithTimeout(context.Background(), defaultJobTimeout)
		defer jobCancel()

		if err := p.pipeline.RunExport(jobCtx, p.tenantID, search); err != nil {
			logger.Error("export failed", "error", err)
			return
		}

		logger.Info("export completed")
	})
	if err != nil {
		return err
	}

	err = p.nats.SubscribeStoryIngested(ctx, p.tenantID, func(story domain.Story) {
		logger := slog.With("story_id", story.ID.String(), "tenant_id", p.tenantID)

		if ctx.Err() != nil {
			logger.Warn("shutdown in progress, skipping index")
			return
		}

		jobCtx, jobCancel := context.WithTimeout(context.Background(), defaultJobTimeout)
		defer jobCancel()

		if err := p.indexer.IndexStory(jobCtx, p.tenantID, story); err != nil {
			logger.Error("indexing failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	// Block until context is cancelled.
	<-ctx.Done()
	slog.Info("processor shutting down", "tenant_id", p.tenantID)
	return nil
}
