package domain

import (
	"time"

	"github.com/google/uuid"
)

// MediaSourceType classifies how a media source is syndicated or fetched.
type MediaSourceType string

const (
	MediaSourceRSS     MediaSourceType = "rss"
	MediaSourceWeb     MediaSourceType = "web_page"
	MediaSourcePodcast MediaSourceType = "podcast"
	MediaSourceYouTube MediaSourceType = "youtube"
)

// TranslationStatus tracks the lifecycle of a saved search's background
// export job.
type TranslationStatus string

const (
	TranslationStatusQueued   TranslationStatus = "queued"
	TranslationStatusRunning  TranslationStatus = "running"
	TranslationStatusComplete TranslationStatus = "complete"
	TranslationStatusFailed   TranslationStatus = "failed"
)

// Tenant represents an organization using the platform, scoping every media
// source, story, and saved search below it.
type Tenant struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ClerkOrgID string    `json:"clerk_org_id" db:"clerk_org_id"`
	Name       string    `json:"name" db:"name"`
	Plan       string    `json:"plan" db:"plan"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// MediaSource represents a single outlet being monitored (a feed, a site, a
// podcast, a channel).
type MediaSource struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	TenantID   uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Name       string          `json:"name" db:"name"`
	URL        string          `json:"url" db:"url"`
	Type       MediaSourceType `json:"type" db:"type"`
	Language   string          `json:"language,omitempty" db:"language"`
	LastFetch  *time.Time      `json:"last_fetch,omitempty" db:"last_fetch"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// Story represents a single ingested article, episode, or page from a
// MediaSource.
type Story struct {
	ID            uuid.UUID `json:"id" db:"id"`
	TenantID      uuid.UUID `json:"tenant_id" db:"tenant_id"`
	MediaSourceID uuid.UUID `json:"media_source_id" db:"media_source_id"`
	Title         string    `json:"title" db:"title"`
	URL           string    `json:"url" db:"url"`
	Language      string    `json:"language,omitempty" db:"language"`
	PublishedAt   time.Time `json:"published_at" db:"published_at"`
	IngestedAt    time.Time `json:"ingested_at" db:"ingested_at"`
	WordCount     int       `json:"word_count" db:"word_count"`
}

// Sentence is a single indexed unit of a Story's body text. The tsquery and
// regex strings produced by internal/querylang are matched against the
// Sentence field of the Bleve index and the Postgres full-text column built
// from this field.
type Sentence struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	StoryID    uuid.UUID `json:"story_id" db:"story_id"`
	SentenceNo int       `json:"sentence_no" db:"sentence_no"`
	Sentence   string    `json:"sentence" db:"sentence"`
	Language   string    `json:"language,omitempty" db:"language"`
}

// SavedSearch represents a saved Solr-flavored boolean query, along with
// bookkeeping for an asynchronous NDJSON export of its matching sentences.
type SavedSearch struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	TenantID         uuid.UUID         `json:"tenant_id" db:"tenant_id"`
	UserID           string            `json:"user_id" db:"user_id"`
	Name             string            `json:"name" db:"name"`
	Query            string            `json:"query" db:"query"`
	IsPinned         bool              `json:"is_pinned" db:"is_pinned"`
	ExportStatus     TranslationStatus `json:"export_status,omitempty" db:"export_status"`
	ExportS3Key      string            `json:"export_s3_key,omitempty" db:"export_s3_key"`
	ExportRowCount   *int64            `json:"export_row_count,omitempty" db:"export_row_count"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
}

// QueryTranslation records one run of the translator against a query,
// kept for both UI history ("searches you've run before") and as the
// ClickHouse-backed analytics signal on which queries and backends are
// actually used.
type QueryTranslation struct {
	TenantID    string    `json:"tenant_id" ch:"tenant_id"`
	UserID      string    `json:"user_id" ch:"user_id"`
	QueryID     string    `json:"query_id" ch:"query_id"`
	RawQuery    string    `json:"raw_query" ch:"raw_query"`
	NodeCount   uint32    `json:"node_count,omitempty" ch:"node_count"`
	TSQuery     string    `json:"tsquery,omitempty" ch:"tsquery"`
	Regex       string    `json:"regex,omitempty" ch:"regex"`
	Backend     string    `json:"backend" ch:"backend"`
	Succeeded   bool      `json:"succeeded" ch:"succeeded"`
	ErrorText   string    `json:"error_text,omitempty" ch:"error_text"`
	MatchCount  uint32    `json:"match_count,omitempty" ch:"match_count"`
	DurationMS  uint32    `json:"duration_ms" ch:"duration_ms"`
	RequestedAt time.Time `json:"requested_at" ch:"requested_at"`
}

// AIInteraction represents a user's interaction with an AI skill (for
// example, the suggest_query skill converting a natural-language request
// into a boolean query).
type AIInteraction struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	SkillName  string    `json:"skill_name" db:"skill_name"`
	InputText  string    `json:"input_text" db:"input_text"`
	OutputText *string   `json:"output_text,omitempty" db:"output_text"`
	TokensUsed *int      `json:"tokens_used,omitempty" db:"tokens_used"`
	LatencyMS  *int      `json:"latency_ms,omitempty" db:"latency_ms"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// SearchHistoryEntry records one query a user ran, independent of whether
// it was ever saved, so the UI can offer "recent searches" autocomplete.
type SearchHistoryEntry struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Query       string    `json:"query" db:"query"`
	ResultCount int       `json:"result_count" db:"result_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// QueryVolumePoint is a single bucket of a time series of translated query
// volume, as served to the live dashboard.
type QueryVolumePoint struct {
	Timestamp     time.Time `json:"timestamp"`
	QueryCount    int       `json:"query_count"`
	FailureCount  int       `json:"failure_count"`
	AvgDurationMS float64   `json:"avg_duration_ms"`
}

// DashboardData holds the data needed for the live translation-activity
// dashboard pushed over the websocket stream.
type DashboardData struct {
	TotalQueries   int64              `json:"total_queries"`
	FailedQueries  int64              `json:"failed_queries"`
	TopQueries     []string           `json:"top_queries"`
	VolumeSeries   []QueryVolumePoint `json:"volume_series"`
}
