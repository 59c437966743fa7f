package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gaybro8777/mediacloud/internal/api/middleware"
)

// RouterConfig holds all dependencies required to build the API router.
// Handler fields that are nil will receive a default "not implemented"
// handler, allowing the router to be constructed incrementally as features
// are built out.
type RouterConfig struct {
	// AllowedOrigins for CORS. Use ["*"] during development.
	AllowedOrigins []string

	// DevMode enables development conveniences such as auth bypass headers.
	DevMode bool

	// ClerkSecretKey is the Clerk JWT signing secret.
	ClerkSecretKey string

	// Handlers -----------------------------------------------------------------

	// HealthHandler serves GET /api/v1/health.
	HealthHandler http.Handler

	// Query-language translation
	TranslateHandler   http.Handler // POST /api/v1/translate
	SearchHandler      http.Handler // GET  /api/v1/search
	AutocompleteHandler http.Handler // GET  /api/v1/autocomplete

	// Dashboard
	DashboardHandler    http.Handler // GET /api/v1/dashboard
	QueryVolumeHandler  http.Handler // GET /api/v1/dashboard/volume

	// Saved searches
	SavedSearchHandler       http.Handler // GET/POST /api/v1/saved-searches
	DeleteSavedSearchHandler http.Handler // DELETE   /api/v1/saved-searches/{search_id}
	SearchHistoryHandler     http.Handler // GET      /api/v1/search-history
	ExportHandler            http.Handler // POST     /api/v1/saved-searches/{search_id}/export

	// WebSocket handler
	WSHandler http.Handler // GET /api/v1/ws

	// AI handlers
	AIHandler                 http.Handler // POST       /api/v1/ai/suggest
	ListSkillsHandler         http.Handler // GET        /api/v1/ai/skills
	ConversationsHandler      http.Handler // GET/POST   /api/v1/conversations
	ConversationDetailHandler http.Handler // GET/DELETE /api/v1/conversations/{id}
}

// NewRouter builds a fully-configured *mux.Router with all routes and the
// middleware chain applied.
func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()

	// ---- Global middleware (applied to every route) -----------------------
	// Order matters: outermost runs first.
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.BodyLimitMiddleware)

	// ---- API v1 subrouter ------------------------------------------------
	v1 := r.PathPrefix("/api/v1").Subrouter()

	// ---- Public routes (no auth) -----------------------------------------
	v1.Handle("/health", handlerOrStub(cfg.HealthHandler)).Methods(http.MethodGet, http.MethodOptions)

	// ---- Authenticated routes --------------------------------------------
	auth := v1.NewRoute().Subrouter()
	authMW := middleware.NewAuthMiddleware(cfg.ClerkSecretKey, cfg.DevMode)
	tenantMW := middleware.NewTenantMiddleware()
	auth.Use(authMW.Authenticate)
	auth.Use(tenantMW.InjectTenant)

	// Query-language translation and sentence search
	auth.Handle("/translate", handlerOrStub(cfg.TranslateHandler)).Methods(http.MethodPost, http.MethodOptions)
	auth.Handle("/search", handlerOrStub(cfg.SearchHandler)).Methods(http.MethodGet, http.MethodOptions)
	auth.Handle("/autocomplete", handlerOrStub(cfg.AutocompleteHandler)).Methods(http.MethodGet, http.MethodOptions)

	// Dashboard
	auth.Handle("/dashboard", handlerOrStub(cfg.DashboardHandler)).Methods(http.MethodGet, http.MethodOptions)
	auth.Handle("/dashboard/volume", handlerOrStub(cfg.QueryVolumeHandler)).Methods(http.MethodGet, http.MethodOptions)

	// Saved searches
	auth.Handle("/saved-searches", handlerOrStub(cfg.SavedSearchHandler)).Methods(http.MethodGet, http.MethodPost, http.MethodOptions)
	auth.Handle("/saved-searches/{search_id}", handlerOrStub(cfg.DeleteSavedSearchHandler)).Methods(http.MethodDelete, http.MethodOptions)
	auth.Handle("/saved-searches/{search_id}/export", handlerOrStub(cfg.ExportHandler)).Methods(http.MethodPost, http.MethodOptions)
	auth.Handle("/search-history", handlerOrStub(cfg.SearchHistoryHandler)).Methods(http.MethodGet, http.MethodOptions)

	// AI
	auth.Handle("/ai/suggest", handlerOrStub(cfg.AIHandler)).Methods(http.MethodPost, http.MethodOptions)
	auth.Handle("/ai/skills", handlerOrStub(cfg.ListSkillsHandler)).Methods(http.MethodGet, http.MethodOptions)

	// Conversations
	auth.Handle("/conversations", handlerOrStub(cfg.ConversationsHandler)).Methods(http.MethodGet, http.MethodPost, http.MethodOptions)
	auth.Handle("/conversations/{id}", handlerOrStub(cfg.ConversationDetailHandler)).Methods(http.MethodGet, http.MethodDelete, http.MethodOptions)

	// WebSocket
	auth.Handle("/ws", handlerOrStub(cfg.WSHandler)).Methods(http.MethodGet)

	return r
}

// handlerOrStub returns the provided handler if non-nil, otherwise a stub
// that responds with 501 Not Implemented.
func handlerOrStub(h http.Handler) http.Handler {
	if h != nil {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Error(w, http.StatusNotImplemented, "not_implemented", "this endpoint is not yet implemented")
	})
}
