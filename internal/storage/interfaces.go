package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/gaybro8777/mediacloud/internal/domain"
)

type PostgresStore interface {
	Ping(ctx context.Context) error
	SetTenantContext(ctx context.Context, tenantID string) error
	CreateTenant(ctx context.Context, t *domain.Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	GetTenantByClerkOrg(ctx context.Context, clerkOrgID string) (*domain.Tenant, error)
	ListTenants(ctx context.Context) ([]domain.Tenant, error)
	CreateMediaSource(ctx context.Context, m *domain.MediaSource) error
	GetMediaSource(ctx context.Context, tenantID, sourceID uuid.UUID) (*domain.MediaSource, error)
	ListMediaSources(ctx context.Context, tenantID uuid.UUID) ([]domain.MediaSource, error)
	CreateStory(ctx context.Context, s *domain.Story) error
	GetStory(ctx context.Context, tenantID, storyID uuid.UUID) (*domain.Story, error)
	ListStoriesByMediaSource(ctx context.Context, tenantID, mediaSourceID uuid.UUID, limit int) ([]domain.Story, error)
	BatchInsertSentences(ctx context.Context, sentences []domain.Sentence) error
	ListSentencesByStory(ctx context.Context, tenantID, storyID uuid.UUID) ([]domain.Sentence, error)
	SearchSentencesByTSQuery(ctx context.Context, tenantID uuid.UUID, tsquery string, limit int) ([]domain.Sentence, error)
	CountSentencesByTSQuery(ctx context.Context, tenantID uuid.UUID, tsquery string) (int, error)
	CreateAIInteraction(ctx context.Context, ai *domain.AIInteraction) error
	UpdateAIInteraction(ctx context.Context, tenantID uuid.UUID, aiID uuid.UUID, outputText *string, tokensUsed *int, latencyMS *int, status string) error
	CreateSavedSearch(ctx context.Context, search *domain.SavedSearch) error
	ListSavedSearches(ctx context.Context, tenantID uuid.UUID, userID string) ([]domain.SavedSearch, error)
	GetSavedSearch(ctx context.Context, tenantID uuid.UUID, userID string, searchID uuid.UUID) (*domain.SavedSearch, error)
	DeleteSavedSearch(ctx context.Context, tenantID uuid.UUID, userID string, searchID uuid.UUID) error
	UpdateSavedSearchExport(ctx context.Context, tenantID, searchID uuid.UUID, status domain.TranslationStatus, s3Key string, rowCount *int64) error
	RecordSearchHistory(ctx context.Context, tenantID uuid.UUID, userID, query string, resultCount int) error
	GetSearchHistory(ctx context.Context, tenantID uuid.UUID, userID string, limit int) ([]domain.SearchHistoryEntry, error)
	CreateConversation(ctx context.Context, c *domain.Conversation) error
	GetConversation(ctx context.Context, tenantID, conversationID uuid.UUID) (*domain.Conversation, error)
	GetConversationWithMessages(ctx context.Context, tenantID, conversationID uuid.UUID, limit int) (*domain.Conversation, error)
	ListConversations(ctx context.Context, tenantID uuid.UUID, userID string, limit int) ([]domain.Conversation, error)
	DeleteConversation(ctx context.Context, tenantID, conversationID uuid.UUID) error
	AddMessage(ctx context.Context, m *domain.Message) error
	GetMessages(ctx context.Context, tenantID, conversationID uuid.UUID, limit int) ([]domain.Message, error)
	UpdateMessageStatus(ctx context.Context, tenantID, messageID uuid.UUID, status domain.MessageStatus, errorMessage string) error
	UpdateMessageContent(ctx context.Context, tenantID, messageID uuid.UUID, content string, tokensUsed, latencyMS int, status domain.MessageStatus, followUps []string) error
}

type ClickHouseStore interface {
	Ping(ctx context.Context) error
	BatchInsertTranslations(ctx context.Context, rows []domain.QueryTranslation) error
	GetDashboardData(ctx context.Context, tenantID string, topN int) (*domain.DashboardData, error)
	GetQueryVolume(ctx context.Context, tenantID string, window time.Duration) ([]domain.QueryVolumePoint, error)
	GetRecentTranslations(ctx context.Context, tenantID, userID string, limit int) ([]domain.QueryTranslation, error)
	Close() error
}

type RedisCache interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	TenantKey(tenantID, category, id string) string
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type S3Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}
