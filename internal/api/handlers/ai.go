package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gaybro8777/mediacloud/internal/ai"
	"github.com/gaybro8777/mediacloud/internal/api"
	"github.com/gaybro8777/mediacloud/internal/api/middleware"
)

// AIHandler serves POST /api/v1/ai/suggest, handing a natural-language
// description of a media topic to the suggest_query skill and returning a
// Solr-flavored boolean query the caller can save or run directly.
type AIHandler struct {
	registry *ai.Registry
	router   *ai.Router
}

// NewAIHandler creates a new AI handler.
func NewAIHandler(registry *ai.Registry, router *ai.Router) *AIHandler {
	return &AIHandler{registry: registry, router: router}
}

type aiRequest struct {
	Query     string `json:"query"`
	SkillName string `json:"skill_name"`
}

func (h *AIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.Error(w, http.StatusMethodNotAllowed, api.ErrCodeInvalidRequest, "method not allowed")
		return
	}

	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, api.ErrCodeUnauthorized, "missing tenant context")
		return
	}

	var req aiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "query is required")
		return
	}

	skillName := req.SkillName
	if skillName == "" {
		skillName = h.router.Route(req.Query)
	}

	input := ai.SkillInput{
		Query:    req.Query,
		TenantID: tenantID,
	}

	output, err := h.registry.Execute(r.Context(), skillName, input)
	if err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "not found") || strings.Contains(errMsg, "is required") {
			api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, errMsg)
			return
		}

		slog.Error("AI skill execution failed",
			"skill", skillName,
			"tenant_id", tenantID,
			"error", err,
		)
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError,
			"AI service is temporarily unavailable. Please try again later.")
		return
	}

	api.JSON(w, http.StatusOK, output)
}

// ListSkillsHandler serves GET /api/v1/ai/skills.
type ListSkillsHandler struct {
	registry *ai.Registry
}

// NewListSkillsHandler creates a new list skills handler.
func NewListSkillsHandler(registry *ai.Registry) *ListSkillsHandler {
	return &ListSkillsHandler{registry: registry}
}

func (h *ListSkillsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, map[string]interface{}{
		"skills": h.registry.List(),
	})
}
