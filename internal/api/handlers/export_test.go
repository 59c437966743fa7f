package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gaybro8777/mediacloud/internal/domain"
	"github.com/gaybro8777/mediacloud/internal/testutil"
)

func exportRequest(searchID uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/saved-searches/"+searchID.String()+"/export", nil)
	req = testutil.InjectAuth(req, testutil.TestTenantID, testutil.TestUserID, "")
	return mux.SetURLVars(req, map[string]string{"search_id": searchID.String()})
}

func TestExportHandler_Success(t *testing.T) {
	pg := new(testutil.MockPostgresStore)
	nats := new(testutil.MockNATSStreamer)
	h := NewExportHandler(pg, nats)

	tenantUUID := uuid.MustParse(testutil.TestTenantID)
	searchID := uuid.New()
	search := &domain.SavedSearch{ID: searchID, TenantID: tenantUUID, UserID: testutil.TestUserID, Name: "climate", Query: "climate"}

	pg.On("GetSavedSearch", mock.Anything, tenantUUID, testutil.TestUserID, searchID).Return(search, nil)
	pg.On("UpdateSavedSearchExport", mock.Anything, tenantUUID, searchID, domain.TranslationStatusQueued, "", (*int64)(nil)).Return(nil)
	nats.On("PublishExportSubmit", mock.Anything, testutil.TestTenantID, mock.AnythingOfType("domain.SavedSearch")).Return(nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, exportRequest(searchID))

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp domain.SavedSearch
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, domain.TranslationStatusQueued, resp.ExportStatus)
	pg.AssertExpectations(t)
	nats.AssertExpectations(t)
}

func TestExportHandler_SavedSearchNotFound(t *testing.T) {
	pg := new(testutil.MockPostgresStore)
	nats := new(testutil.MockNATSStreamer)
	h := NewExportHandler(pg, nats)

	tenantUUID := uuid.MustParse(testutil.TestTenantID)
	searchID := uuid.New()
	pg.On("GetSavedSearch", mock.Anything, tenantUUID, testutil.TestUserID, searchID).Return(nil, errors.New("not found"))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, exportRequest(searchID))

	assert.Equal(t, http.StatusNotFound, w.Code)
	nats.AssertNotCalled(t, "PublishExportSubmit", mock.Anything, mock.Anything, mock.Anything)
}

func TestExportHandler_MethodNotAllowed(t *testing.T) {
	pg := new(testutil.MockPostgresStore)
	nats := new(testutil.MockNATSStreamer)
	h := NewExportHandler(pg, nats)

	searchID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/saved-searches/"+searchID.String()+"/export", nil)
	req = testutil.InjectAuth(req, testutil.TestTenantID, testutil.TestUserID, "")
	req = mux.SetURLVars(req, map[string]string{"search_id": searchID.String()})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestExportHandler_MissingTenantContext(t *testing.T) {
	pg := new(testutil.MockPostgresStore)
	nats := new(testutil.MockNATSStreamer)
	h := NewExportHandler(pg, nats)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/saved-searches/x/export", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExportHandler_PublishFailure(t *testing.T) {
	pg := new(testutil.MockPostgresStore)
	nats := new(testutil.MockNATSStreamer)
	h := NewExportHandler(pg, nats)

	tenantUUID := uuid.MustParse(testutil.TestTenantID)
	searchID := uuid.New()
	search := &domain.SavedSearch{ID: searchID, TenantID: tenantUUID, UserID: testutil.TestUserID, Name: "climate", Query: "climate"}

	pg.On("GetSavedSearch", mock.Anything, tenantUUID, testutil.TestUserID, searchID).Return(search, nil)
	pg.On("UpdateSavedSearchExport", mock.Anything, tenantUUID, searchID, domain.TranslationStatusQueued, "", (*int64)(nil)).Return(nil)
	nats.On("PublishExportSubmit", mock.Anything, testutil.TestTenantID, mock.AnythingOfType("domain.SavedSearch")).Return(errors.New("nats down"))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, exportRequest(searchID))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
