package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/gaybro8777/mediacloud/internal/domain"
	"github.com/gaybro8777/mediacloud/internal/querylang"
)

// BleveManager manages tenant-scoped Bleve indexes over story sentences.
type BleveManager struct {
	basePath string
	indexes  map[string]bleve.Index
	mu       sync.RWMutex
}

// NewBleveManager creates a new BleveManager with the given base directory for indexes.
func NewBleveManager(basePath string) (*BleveManager, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("bleve: create base path: %w", err)
	}
	return &BleveManager{
		basePath: basePath,
		indexes:  make(map[string]bleve.Index),
	}, nil
}

// GetOrCreateIndex returns the index for the given tenant, creating it if needed.
func (bm *BleveManager) GetOrCreateIndex(tenantID string) (bleve.Index, error) {
	// Check read lock first
	bm.mu.RLock()
	if idx, ok := bm.indexes[tenantID]; ok {
		bm.mu.RUnlock()
		return idx, nil
	}
	bm.mu.RUnlock()

	// Upgrade to write lock
	bm.mu.Lock()
	defer bm.mu.Unlock()

	// Double check after acquiring write lock
	if idx, ok := bm.indexes[tenantID]; ok {
		return idx, nil
	}

	// Try to open existing index, or create a new one
	indexPath := filepath.Join(bm.basePath, tenantID)
	idx, err := bleve.Open(indexPath)
	if err != nil {
		// Index does not exist -- create with mapping
		m := buildIndexMapping()
		idx, err = bleve.New(indexPath, m)
		if err != nil {
			return nil, fmt.Errorf("bleve: create index for tenant %s: %w", tenantID, err)
		}
	}

	bm.indexes[tenantID] = idx
	return idx, nil
}

// buildIndexMapping creates the document mapping for story sentences.
func buildIndexMapping() mapping.IndexMapping {
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = "standard"

	keywordField := bleve.NewKeywordFieldMapping()

	numericField := bleve.NewNumericFieldMapping()

	sentenceMapping := bleve.NewDocumentMapping()
	sentenceMapping.AddFieldMappingsAt("story_id", keywordField)
	sentenceMapping.AddFieldMappingsAt("sentence_no", numericField)
	sentenceMapping.AddFieldMappingsAt("sentence", textField)
	sentenceMapping.AddFieldMappingsAt("language", keywordField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = sentenceMapping
	return indexMapping
}

// IndexSentences batch-indexes a slice of story sentences.
func (bm *BleveManager) IndexSentences(ctx context.Context, tenantID string, sentences []domain.Sentence) error {
	idx, err := bm.GetOrCreateIndex(tenantID)
	if err != nil {
		return err
	}

	batch := idx.NewBatch()
	for _, s := range sentences {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		batch.Index(s.ID.String(), sentenceToDoc(s))
	}

	return idx.Batch(batch)
}

// Index is an alias for IndexSentences to satisfy the SentenceIndexer interface.
func (bm *BleveManager) Index(ctx context.Context, tenantID string, sentences []domain.Sentence) error {
	return bm.IndexSentences(ctx, tenantID, sentences)
}

func sentenceToDoc(s domain.Sentence) map[string]interface{} {
	return map[string]interface{}{
		"story_id":    s.StoryID.String(),
		"sentence_no": float64(s.SentenceNo),
		"sentence":    s.Sentence,
		"language":    s.Language,
	}
}

// Search parses the given Solr-flavored boolean query, compiles it down to a
// POSIX regex via querylang, and runs that regex against the tenant's
// "sentence" field. The regex query is conjoined with a match-all query so
// Bleve's BM25 scorer still ranks hits by relevance instead of returning
// them in arbitrary match order.
func (bm *BleveManager) Search(ctx context.Context, tenantID, query string) (*bleve.SearchResult, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	tree, err := querylang.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("bleve: parse query: %w", err)
	}

	pattern, err := querylang.Regex(tree)
	if err != nil {
		return nil, fmt.Errorf("bleve: compile query to regex: %w", err)
	}

	regexQuery := bleve.NewRegexpQuery(pattern)
	regexQuery.SetField("sentence")

	combined := bleve.NewConjunctionQuery(regexQuery, bleve.NewMatchAllQuery())

	idx, err := bm.GetOrCreateIndex(tenantID)
	if err != nil {
		return nil, err
	}

	searchReq := bleve.NewSearchRequest(combined)
	searchReq.Fields = []string{"story_id", "sentence_no", "sentence", "language"}
	return idx.Search(searchReq)
}

// SearchRaw executes a caller-constructed Bleve search request directly,
// bypassing querylang translation. Used by handlers that need field facets
// or pagination beyond a plain regex match.
func (bm *BleveManager) SearchRaw(ctx context.Context, tenantID string, req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	idx, err := bm.GetOrCreateIndex(tenantID)
	if err != nil {
		return nil, err
	}
	return idx.Search(req)
}

// DeleteIndex removes the tenant's index from memory and disk.
func (bm *BleveManager) DeleteIndex(tenantID string) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if idx, ok := bm.indexes[tenantID]; ok {
		if err := idx.Close(); err != nil {
			return fmt.Errorf("bleve: close index for tenant %s: %w", tenantID, err)
		}
		delete(bm.indexes, tenantID)
	}

	indexPath := filepath.Join(bm.basePath, tenantID)
	return os.RemoveAll(indexPath)
}

// Delete is an alias for DeleteIndex to satisfy the SentenceIndexer interface.
func (bm *BleveManager) Delete(tenantID string) error {
	return bm.DeleteIndex(tenantID)
}

// Close closes all open indexes.
func (bm *BleveManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	var firstErr error
	for tenantID, idx := range bm.indexes {
		if err := idx.Close(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("bleve: close index for tenant %s: %w", tenantID, err)
			}
		}
		delete(bm.indexes, tenantID)
	}
	return firstErr
}
