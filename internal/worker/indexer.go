package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gaybro8777/mediacloud/internal/domain"
	"github.com/gaybro8777/mediacloud/internal/search"
	"github.com/gaybro8777/mediacloud/internal/storage"
)

// Indexer keeps the Bleve sentence index current as new stories are ingested.
type Indexer struct {
	bleve search.SentenceIndexer
	pg    storage.PostgresStore
}

// NewIndexer creates a new Indexer with the given SentenceIndexer.
func NewIndexer(bleve search.SentenceIndexer, pg storage.PostgresStore) *Indexer {
	return &Indexer{bleve: bleve, pg: pg}
}

// IndexStory loads a story's sentences from Postgres and indexes them into
// Bleve for the given tenant. If the BleveManager is nil, the call is a
// no-op so that the rest of the pipeline can run without search configured.
func (idx *Indexer) IndexStory(ctx context.Context, tenantID string, story domain.Story) error {
	if idx.bleve == nil {
		slog.Warn("bleve indexer not configured, skipping indexing")
		return nil
	}

	tenantUUID, err := uuid.Parse(tenantID)
	if err != nil {
		return fmt.Errorf("indexer: invalid tenant id %q: %w", tenantID, err)
	}

	sentences, err := idx.pg.ListSentencesByStory(ctx, tenantUUID, story.ID)
	if err != nil {
		return fmt.Errorf("indexer: load sentences for story %s: %w", story.ID, err)
	}

	if len(sentences) == 0 {
		return nil
	}

	if err := idx.bleve.Index(ctx, tenantID, sentences); err != nil {
		return fmt.Errorf("indexer: failed to index %d sentences: %w", len(sentences), err)
	}

	slog.Info("indexed story sentences",
		"tenant_id", tenantID,
		"story_id", story.ID.String(),
		"count", len(sentences),
	)
	return nil
}
