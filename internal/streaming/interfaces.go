package streaming

import (
	"context"

	"github.com/gaybro8777/mediacloud/internal/domain"
)

// NATSStreamer is the tenant-scoped publish/subscribe surface used by the
// API and worker processes for saved-search export jobs, query translation
// events, and story ingestion events.
type NATSStreamer interface {
	EnsureStreams(ctx context.Context) error

	PublishExportSubmit(ctx context.Context, tenantID string, search domain.SavedSearch) error
	PublishExportProgress(ctx context.Context, tenantID, searchID string, rowCount int64, status, message string) error
	PublishExportComplete(ctx context.Context, tenantID string, result domain.SavedSearch) error
	PublishQueryTranslated(ctx context.Context, tenantID string, translation domain.QueryTranslation) error
	PublishStoryIngested(ctx context.Context, tenantID string, story domain.Story) error

	SubscribeExportSubmit(ctx context.Context, tenantID string, handler func(domain.SavedSearch)) error
	SubscribeExportProgress(ctx context.Context, tenantID string, handler func(ExportProgress)) error
	SubscribeExportComplete(ctx context.Context, tenantID string, handler func(domain.SavedSearch)) error
	SubscribeQueryTranslated(ctx context.Context, tenantID string, handler func(domain.QueryTranslation)) error
	SubscribeStoryIngested(ctx context.Context, tenantID string, handler func(domain.Story)) error

	Ping() error
	Close()
}
