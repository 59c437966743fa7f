package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"github.com/gaybro8777/mediacloud/internal/domain"
	"github.com/gaybro8777/mediacloud/internal/querylang"
	"github.com/gaybro8777/mediacloud/internal/storage"
	"github.com/gaybro8777/mediacloud/internal/streaming"
)

// exportBatchSize bounds how many matching sentences a single export pulls
// from Postgres, mirroring the teacher's pattern of capping unbounded queries
// rather than letting a pathological query exhaust memory.
const exportBatchSize = 50000

// Pipeline orchestrates a saved search's background export: translate the
// saved query to tsquery, run it against the stored sentence corpus, and
// upload the matches as newline-delimited JSON to S3.
type Pipeline struct {
	pg   storage.PostgresStore
	s3   storage.S3Storage
	nats streaming.NATSStreamer
}

func NewPipeline(pg storage.PostgresStore, s3 storage.S3Storage, nats streaming.NATSStreamer) *Pipeline {
	return &Pipeline{pg: pg, s3: s3, nats: nats}
}

// exportKey builds the tenant-prefixed S3 object key for a saved search's
// NDJSON export, mirroring storage.S3Client.GenerateKey's layout.
func exportKey(tenantID, searchID, filename string) string {
	return path.Join("tenants", tenantID, "exports", searchID, filename)
}

// RunExport executes one saved search's export job end to end, publishing
// progress events as it goes and recording the final outcome in Postgres.
func (p *Pipeline) RunExport(ctx context.Context, tenantID string, search domain.SavedSearch) error {
	logger := slog.With("tenant_id", tenantID, "search_id", search.ID.String())

	if err := p.nats.PublishExportProgress(ctx, tenantID, search.ID.String(), 0, "running", "translating query"); err != nil {
		logger.Warn("failed to publish export progress", "error", err)
	}

	tree, err := querylang.Parse(search.Query)
	if err != nil {
		return p.fail(ctx, tenantID, search.ID, fmt.Errorf("parse saved search query: %w", err))
	}

	tsquery, err := querylang.TSQuery(tree)
	if err != nil {
		return p.fail(ctx, tenantID, search.ID, fmt.Errorf("translate saved search query: %w", err))
	}

	if err := p.nats.PublishExportProgress(ctx, tenantID, search.ID.String(), 0, "running", "searching stories"); err != nil {
		logger.Warn("failed to publish export progress", "error", err)
	}

	sentences, err := p.pg.SearchSentencesByTSQuery(ctx, search.TenantID, tsquery, exportBatchSize)
	if err != nil {
		return p.fail(ctx, tenantID, search.ID, fmt.Errorf("search sentences: %w", err))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, s := range sentences {
		if err := enc.Encode(s); err != nil {
			return p.fail(ctx, tenantID, search.ID, fmt.Errorf("encode sentence: %w", err))
		}
	}

	key := exportKey(tenantID, search.ID.String(), "matches.ndjson")
	if err := p.s3.Upload(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		return p.fail(ctx, tenantID, search.ID, fmt.Errorf("upload export: %w", err))
	}

	rowCount := int64(len(sentences))
	if err := p.pg.UpdateSavedSearchExport(ctx, search.TenantID, search.ID, domain.TranslationStatusComplete, key, &rowCount); err != nil {
		logger.Error("failed to record export completion", "error", err)
	}

	completed := search
	completed.ExportStatus = domain.TranslationStatusComplete
	completed.ExportS3Key = key
	completed.ExportRowCount = &rowCount

	if err := p.nats.PublishExportComplete(ctx, tenantID, completed); err != nil {
		logger.Warn("failed to publish export complete", "error", err)
	}

	logger.Info("export completed", "row_count", rowCount, "s3_key", key)
	return nil
}

// fail records the export failure in Postgres and publishes a failure event,
// returning the original error so the caller's logs capture the root cause.
func (p *Pipeline) fail(ctx context.Context, tenantID string, searchID uuid.UUID, cause error) error {
	slog.Error("export pipeline failed", "tenant_id", tenantID, "search_id", searchID.String(), "error", cause)

	if err := p.pg.UpdateSavedSearchExport(ctx, uuid.MustParse(tenantID), searchID, domain.TranslationStatusFailed, "", nil); err != nil {
		slog.Error("failed to record export failure", "error", err)
	}
	if err := p.nats.PublishExportProgress(ctx, tenantID, searchID.String(), 0, "failed", cause.Error()); err != nil {
		slog.Warn("failed to publish export failure", "error", err)
	}
	return cause
}
