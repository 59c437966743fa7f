package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/gaybro8777/mediacloud/internal/api"
	"github.com/gaybro8777/mediacloud/internal/api/middleware"
	"github.com/gaybro8777/mediacloud/internal/domain"
	"github.com/gaybro8777/mediacloud/internal/storage"
	"github.com/gaybro8777/mediacloud/internal/streaming"
)

// ExportHandler triggers a background export of a saved search's matching
// sentences to S3, handing the job to the worker over NATS rather than
// blocking the request on a potentially large query.
type ExportHandler struct {
	pg   storage.PostgresStore
	nats streaming.NATSStreamer
}

func NewExportHandler(pg storage.PostgresStore, nats streaming.NATSStreamer) *ExportHandler {
	return &ExportHandler{pg: pg, nats: nats}
}

func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, api.ErrCodeUnauthorized, "missing user context")
		return
	}

	tenantUUID, err := uuid.Parse(tenantID)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "invalid tenant ID")
		return
	}

	searchIDStr := mux.Vars(r)["search_id"]
	searchID, err := uuid.Parse(searchIDStr)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "invalid search_id")
		return
	}

	search, err := h.pg.GetSavedSearch(r.Context(), tenantUUID, userID, searchID)
	if err != nil {
		api.Error(w, http.StatusNotFound, api.ErrCodeNotFound, "saved search not found")
		return
	}

	if err := h.pg.UpdateSavedSearchExport(r.Context(), tenantUUID, searchID, domain.TranslationStatusQueued, "", nil); err != nil {
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to queue export")
		return
	}
	search.ExportStatus = domain.TranslationStatusQueued

	if err := h.nats.PublishExportSubmit(r.Context(), tenantID, *search); err != nil {
		api.Error(w, http.StatusServiceUnavailable, api.ErrCodeServiceUnavail, "failed to submit export job")
		return
	}

	api.JSON(w, http.StatusAccepted, search)
}
