package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gaybro8777/mediacloud/internal/api"
	"github.com/gaybro8777/mediacloud/internal/api/middleware"
	"github.com/gaybro8777/mediacloud/internal/storage"
)

// AutocompleteHandler serves GET /api/v1/autocomplete?prefix=..., suggesting
// the tenant user's own saved searches whose name starts with prefix -- the
// search bar's "did you mean one of your saved searches" dropdown.
type AutocompleteHandler struct {
	pg storage.PostgresStore
}

func NewAutocompleteHandler(pg storage.PostgresStore) *AutocompleteHandler {
	return &AutocompleteHandler{pg: pg}
}

type autocompleteSuggestion struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

type autocompleteResponse struct {
	Suggestions []autocompleteSuggestion `json:"suggestions"`
}

func (h *AutocompleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	prefix := strings.ToLower(r.URL.Query().Get("prefix"))

	searches, err := h.pg.ListSavedSearches(r.Context(), tenantUUID, userID)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to list saved searches")
		return
	}

	suggestions := make([]autocompleteSuggestion, 0, len(searches))
	for _, s := range searches {
		if prefix != "" && !strings.HasPrefix(strings.ToLower(s.Name), prefix) {
			continue
		}
		suggestions = append(suggestions, autocompleteSuggestion{Name: s.Name, Query: s.Query})
	}

	api.JSON(w, http.StatusOK, autocompleteResponse{Suggestions: suggestions})
}
