package search

import (
	"context"

	"github.com/blevesearch/bleve/v2"

	"github.com/gaybro8777/mediacloud/internal/domain"
)

// SentenceIndexer indexes and searches a tenant-scoped corpus of story
// sentences. Search takes a raw Solr-flavored boolean query string; callers
// are expected to have already validated it via querylang.Parse if they want
// a syntax error surfaced before hitting the index.
type SentenceIndexer interface {
	Index(ctx context.Context, tenantID string, sentences []domain.Sentence) error
	Search(ctx context.Context, tenantID, query string) (*bleve.SearchResult, error)
	Delete(tenantID string) error
	Close() error
}
