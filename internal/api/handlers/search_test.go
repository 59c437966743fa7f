package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	bsearch "github.com/blevesearch/bleve/v2/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/blevesearch/bleve/v2"

	"github.com/gaybro8777/mediacloud/internal/querylang"
	"github.com/gaybro8777/mediacloud/internal/testutil"
)

func translateRequestFor(query string) *http.Request {
	body, _ := json.Marshal(translateRequest{Query: query})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/translate", bytes.NewReader(body))
	return testutil.InjectAuth(req, testutil.TestTenantID, testutil.TestUserID, "")
}

func TestTranslateHandler_Success(t *testing.T) {
	ch := new(testutil.MockClickHouseStore)
	redis := new(testutil.MockRedisCache)
	h := NewTranslateHandler(ch, redis)

	redis.On("Get", mock.Anything, mock.Anything).Return("", errors.New("miss"))
	ch.On("BatchInsertTranslations", mock.Anything, mock.Anything).Return(nil)
	redis.On("Set", mock.Anything, mock.Anything, mock.Anything, translateCacheTTL).Return(nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, translateRequestFor(`election AND (fraud OR integrity)`))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp translateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.TSQuery)
	assert.Greater(t, resp.NodeCount, 0)
	ch.AssertExpectations(t)
}

func TestTranslateHandler_CacheHit(t *testing.T) {
	ch := new(testutil.MockClickHouseStore)
	redis := new(testutil.MockRedisCache)
	h := NewTranslateHandler(ch, redis)

	cached := translateResponse{Query: "climate", TSQuery: "'climat':*", NodeCount: 1}
	cachedJSON, err := json.Marshal(cached)
	require.NoError(t, err)
	redis.On("Get", mock.Anything, mock.Anything).Return(string(cachedJSON), nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, translateRequestFor("climate"))

	assert.Equal(t, http.StatusOK, w.Code)
	ch.AssertNotCalled(t, "BatchInsertTranslations", mock.Anything, mock.Anything)
}

func TestTranslateHandler_InvalidQuerySyntax(t *testing.T) {
	ch := new(testutil.MockClickHouseStore)
	redis := new(testutil.MockRedisCache)
	h := NewTranslateHandler(ch, redis)

	redis.On("Get", mock.Anything, mock.Anything).Return("", errors.New("miss"))
	ch.On("BatchInsertTranslations", mock.Anything, mock.Anything).Return(nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, translateRequestFor("AND AND"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranslateHandler_MissingQuery(t *testing.T) {
	ch := new(testutil.MockClickHouseStore)
	redis := new(testutil.MockRedisCache)
	h := NewTranslateHandler(ch, redis)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/translate", bytes.NewReader([]byte(`{}`)))
	req = testutil.InjectAuth(req, testutil.TestTenantID, testutil.TestUserID, "")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranslateHandler_MissingTenantContext(t *testing.T) {
	ch := new(testutil.MockClickHouseStore)
	redis := new(testutil.MockRedisCache)
	h := NewTranslateHandler(ch, redis)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/translate", bytes.NewReader([]byte(`{"query":"x"}`)))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTranslateHandler_MethodNotAllowed(t *testing.T) {
	ch := new(testutil.MockClickHouseStore)
	redis := new(testutil.MockRedisCache)
	h := NewTranslateHandler(ch, redis)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/translate", nil)
	req = testutil.InjectAuth(req, testutil.TestTenantID, testutil.TestUserID, "")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func searchGetRequest(query string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q="+query, nil)
	return testutil.InjectAuth(req, testutil.TestTenantID, testutil.TestUserID, "")
}

func TestSearchHandler_Success(t *testing.T) {
	idx := new(testutil.MockSentenceIndexer)
	pg := new(testutil.MockPostgresStore)
	h := NewSearchHandler(idx, pg)

	result := &bleve.SearchResult{
		Total: 2,
		Hits: bsearch.DocumentMatchCollection{
			{ID: "sentence-1", Score: 1.2},
			{ID: "sentence-2", Score: 0.9},
		},
	}
	idx.On("Search", mock.Anything, testutil.TestTenantID, "climate").Return(result, nil)
	pg.On("RecordSearchHistory", mock.Anything, mock.Anything, testutil.TestUserID, "climate", 2).Return(nil).Maybe()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, searchGetRequest("climate"))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp searchResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, uint64(2), resp.Total)
	assert.Len(t, resp.Results, 2)
}

func TestSearchHandler_InvalidQuerySyntax(t *testing.T) {
	idx := new(testutil.MockSentenceIndexer)
	pg := new(testutil.MockPostgresStore)
	h := NewSearchHandler(idx, pg)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, searchGetRequest("AND AND"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	idx.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchHandler_MissingQuery(t *testing.T) {
	idx := new(testutil.MockSentenceIndexer)
	pg := new(testutil.MockPostgresStore)
	h := NewSearchHandler(idx, pg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	req = testutil.InjectAuth(req, testutil.TestTenantID, testutil.TestUserID, "")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchHandler_IndexUnavailable(t *testing.T) {
	pg := new(testutil.MockPostgresStore)
	h := NewSearchHandler(nil, pg)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, searchGetRequest("climate"))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSearchHandler_SearchError(t *testing.T) {
	idx := new(testutil.MockSentenceIndexer)
	pg := new(testutil.MockPostgresStore)
	h := NewSearchHandler(idx, pg)

	idx.On("Search", mock.Anything, testutil.TestTenantID, "climate").Return(nil, errors.New("index corrupt"))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, searchGetRequest("climate"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestNodeCount(t *testing.T) {
	tree, err := querylang.Parse(`election AND (fraud OR integrity)`)
	require.NoError(t, err)
	assert.Greater(t, nodeCount(tree), 1)
}
