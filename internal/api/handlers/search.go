package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gaybro8777/mediacloud/internal/api"
	"github.com/gaybro8777/mediacloud/internal/api/middleware"
	"github.com/gaybro8777/mediacloud/internal/domain"
	"github.com/gaybro8777/mediacloud/internal/querylang"
	"github.com/gaybro8777/mediacloud/internal/search"
	"github.com/gaybro8777/mediacloud/internal/storage"
)

const translateCacheTTL = 10 * time.Minute

// TranslateHandler is the HTTP face of internal/querylang: it parses a
// Solr-flavored boolean query and returns both backend translations
// (Postgres tsquery and POSIX regex), caching results in Redis and logging
// each attempt not served from the cache, successful or not, to ClickHouse
// for the query-language usage dashboard.
type TranslateHandler struct {
	ch    storage.ClickHouseStore
	redis storage.RedisCache
}

func NewTranslateHandler(ch storage.ClickHouseStore, rc storage.RedisCache) *TranslateHandler {
	return &TranslateHandler{ch: ch, redis: rc}
}

type translateRequest struct {
	Query string `json:"query"`
}

type translateResponse struct {
	Query     string `json:"query"`
	TSQuery   string `json:"tsquery,omitempty"`
	Regex     string `json:"regex,omitempty"`
	NodeCount int    `json:"node_count"`
}

func (h *TranslateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.Error(w, http.StatusMethodNotAllowed, api.ErrCodeInvalidRequest, "method not allowed")
		return
	}

	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, api.ErrCodeUnauthorized, "missing tenant context")
		return
	}
	userID := middleware.GetUserID(r.Context())

	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "query is required")
		return
	}

	cacheKey := translateCacheKey(tenantID, req.Query)
	if h.redis != nil {
		if cached, err := h.redis.Get(r.Context(), cacheKey); err == nil {
			var resp translateResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				api.JSON(w, http.StatusOK, resp)
				return
			}
		} else if err != redis.Nil {
			slog.Warn("redis cache get failed", "key", cacheKey, "error", err)
		}
	}

	start := time.Now()
	record := domain.QueryTranslation{
		TenantID:    tenantID,
		UserID:      userID,
		QueryID:     uuid.NewString(),
		RawQuery:    req.Query,
		Backend:     "tsquery+regex",
		RequestedAt: start,
	}

	tree, err := querylang.Parse(req.Query)
	if err != nil {
		h.recordTranslation(r.Context(), record, start, err)
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "invalid query syntax: "+err.Error())
		return
	}
	record.NodeCount = uint32(nodeCount(tree))

	tsquery, err := querylang.TSQuery(tree)
	if err != nil {
		h.recordTranslation(r.Context(), record, start, err)
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "cannot translate to tsquery: "+err.Error())
		return
	}
	record.TSQuery = tsquery

	regex, err := querylang.Regex(tree)
	if err != nil {
		// Regex translation is best-effort: some valid tsquery trees (e.g.
		// negation) have no regex equivalent. Report the tsquery result and
		// leave regex empty rather than failing the whole request.
		slog.Debug("regex translation unavailable", "error", err)
	} else {
		record.Regex = regex
	}

	h.recordTranslation(r.Context(), record, start, nil)

	resp := translateResponse{
		Query:     req.Query,
		TSQuery:   tsquery,
		Regex:     regex,
		NodeCount: int(record.NodeCount),
	}

	if h.redis != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := h.redis.Set(r.Context(), cacheKey, string(data), translateCacheTTL); err != nil {
				slog.Warn("redis cache set failed", "key", cacheKey, "error", err)
			}
		}
	}

	api.JSON(w, http.StatusOK, resp)
}

func (h *TranslateHandler) recordTranslation(ctx context.Context, record domain.QueryTranslation, start time.Time, translateErr error) {
	record.Succeeded = translateErr == nil
	if translateErr != nil {
		record.ErrorText = translateErr.Error()
	}
	record.DurationMS = uint32(time.Since(start).Milliseconds())

	if h.ch == nil {
		return
	}
	if err := h.ch.BatchInsertTranslations(ctx, []domain.QueryTranslation{record}); err != nil {
		slog.Warn("failed to record translation analytics", "error", err)
	}
}

func translateCacheKey(tenantID, query string) string {
	hash := sha256.Sum256([]byte(query))
	return fmt.Sprintf("cache:%s:translate:%x", tenantID, hash[:8])
}

// nodeCount counts every node in the tree, leaves and internal nodes alike,
// for the query-language analytics row.
func nodeCount(n querylang.Node) int {
	count := 1
	for _, op := range n.Operands {
		count += nodeCount(op)
	}
	if n.Operand != nil {
		count += nodeCount(*n.Operand)
	}
	return count
}

// SearchHandler runs a raw boolean query against the tenant's Bleve sentence
// index, after validating it through querylang.Parse so a malformed query
// surfaces as a normal 400 rather than an opaque Bleve query-parse error.
type SearchHandler struct {
	bleve search.SentenceIndexer
	pg    storage.PostgresStore
}

func NewSearchHandler(bleve search.SentenceIndexer, pg storage.PostgresStore) *SearchHandler {
	return &SearchHandler{bleve: bleve, pg: pg}
}

type searchHit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type searchResponse struct {
	Results []searchHit `json:"results"`
	Total   uint64      `json:"total"`
	TookMS  int64       `json:"took_ms"`
}

func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, api.ErrCodeUnauthorized, "missing tenant context")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "q is required")
		return
	}

	if _, err := querylang.Parse(query); err != nil {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "invalid query syntax: "+err.Error())
		return
	}

	if h.bleve == nil {
		api.Error(w, http.StatusServiceUnavailable, api.ErrCodeServiceUnavail, "search index not configured")
		return
	}

	start := time.Now()
	result, err := h.bleve.Search(r.Context(), tenantID, query)
	if err != nil {
		slog.Error("sentence search failed", "error", err, "tenant_id", tenantID, "query", query)
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "search failed")
		return
	}

	hits := make([]searchHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, searchHit{ID: hit.ID, Score: hit.Score})
	}

	if h.pg != nil {
		userID := middleware.GetUserID(r.Context())
		if userID != "" {
			if tenantUUID, err := uuid.Parse(tenantID); err == nil {
				go func() {
					if err := h.pg.RecordSearchHistory(r.Context(), tenantUUID, userID, query, int(result.Total)); err != nil {
						slog.Warn("failed to record search history", "error", err)
					}
				}()
			}
		}
	}

	api.JSON(w, http.StatusOK, searchResponse{
		Results: hits,
		Total:   result.Total,
		TookMS:  time.Since(start).Milliseconds(),
	})
}
