package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gaybro8777/mediacloud/internal/api"
	"github.com/gaybro8777/mediacloud/internal/api/middleware"
	"github.com/gaybro8777/mediacloud/internal/domain"
	"github.com/gaybro8777/mediacloud/internal/storage"
)

const dashboardCacheTTL = 5 * time.Minute

// DashboardHandler serves GET /api/v1/dashboard, the tenant-scoped
// translation-activity view: total/failed query counts, the most frequently
// translated raw queries, and a recent query-volume time series, all sourced
// from the ClickHouse analytics sink that every /translate call appends to.
type DashboardHandler struct {
	ch    storage.ClickHouseStore
	redis storage.RedisCache
}

func NewDashboardHandler(ch storage.ClickHouseStore, redis storage.RedisCache) *DashboardHandler {
	return &DashboardHandler{ch: ch, redis: redis}
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, api.ErrCodeUnauthorized, "missing tenant context")
		return
	}

	cacheKey := ""
	if h.redis != nil {
		cacheKey = h.redis.TenantKey(tenantID, "dashboard", "translations")
		if cached, err := h.redis.Get(r.Context(), cacheKey); err == nil && cached != "" {
			var data domain.DashboardData
			if json.Unmarshal([]byte(cached), &data) == nil {
				api.JSON(w, http.StatusOK, data)
				return
			}
		}
	}

	data, err := h.ch.GetDashboardData(r.Context(), tenantID, 50)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to retrieve dashboard data")
		return
	}

	if h.redis != nil {
		_ = h.redis.Set(r.Context(), cacheKey, data, dashboardCacheTTL)
	}

	api.JSON(w, http.StatusOK, data)
}

// QueryVolumeHandler serves GET /api/v1/dashboard/volume?window=1h, the time
// series backing the live dashboard's query-volume chart.
type QueryVolumeHandler struct {
	ch storage.ClickHouseStore
}

func NewQueryVolumeHandler(ch storage.ClickHouseStore) *QueryVolumeHandler {
	return &QueryVolumeHandler{ch: ch}
}

func (h *QueryVolumeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, api.ErrCodeUnauthorized, "missing tenant context")
		return
	}

	window := 24 * time.Hour
	if w := r.URL.Query().Get("window"); w != "" {
		if parsed, err := time.ParseDuration(w); err == nil {
			window = parsed
		}
	}

	points, err := h.ch.GetQueryVolume(r.Context(), tenantID, window)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to retrieve query volume")
		return
	}

	api.JSON(w, http.StatusOK, points)
}
