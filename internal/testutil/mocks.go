package testutil

import (
	"context"
	"io"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/gaybro8777/mediacloud/internal/ai"
	"github.com/gaybro8777/mediacloud/internal/domain"
	"github.com/gaybro8777/mediacloud/internal/streaming"
)

type MockPostgresStore struct {
	mock.Mock
}

func (m *MockPostgresStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPostgresStore) SetTenantContext(ctx context.Context, tenantID string) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockPostgresStore) CreateTenant(ctx context.Context, t *domain.Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockPostgresStore) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockPostgresStore) GetTenantByClerkOrg(ctx context.Context, clerkOrgID string) (*domain.Tenant, error) {
	args := m.Called(ctx, clerkOrgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockPostgresStore) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Tenant), args.Error(1)
}

func (m *MockPostgresStore) CreateMediaSource(ctx context.Context, src *domain.MediaSource) error {
	args := m.Called(ctx, src)
	return args.Error(0)
}

func (m *MockPostgresStore) GetMediaSource(ctx context.Context, tenantID, sourceID uuid.UUID) (*domain.MediaSource, error) {
	args := m.Called(ctx, tenantID, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MediaSource), args.Error(1)
}

func (m *MockPostgresStore) ListMediaSources(ctx context.Context, tenantID uuid.UUID) ([]domain.MediaSource, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MediaSource), args.Error(1)
}

func (m *MockPostgresStore) CreateStory(ctx context.Context, s *domain.Story) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockPostgresStore) GetStory(ctx context.Context, tenantID, storyID uuid.UUID) (*domain.Story, error) {
	args := m.Called(ctx, tenantID, storyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Story), args.Error(1)
}

func (m *MockPostgresStore) ListStoriesByMediaSource(ctx context.Context, tenantID, mediaSourceID uuid.UUID, limit int) ([]domain.Story, error) {
	args := m.Called(ctx, tenantID, mediaSourceID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Story), args.Error(1)
}

func (m *MockPostgresStore) BatchInsertSentences(ctx context.Context, sentences []domain.Sentence) error {
	args := m.Called(ctx, sentences)
	return args.Error(0)
}

func (m *MockPostgresStore) ListSentencesByStory(ctx context.Context, tenantID, storyID uuid.UUID) ([]domain.Sentence, error) {
	args := m.Called(ctx, tenantID, storyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Sentence), args.Error(1)
}

func (m *MockPostgresStore) SearchSentencesByTSQuery(ctx context.Context, tenantID uuid.UUID, tsquery string, limit int) ([]domain.Sentence, error) {
	args := m.Called(ctx, tenantID, tsquery, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Sentence), args.Error(1)
}

func (m *MockPostgresStore) CountSentencesByTSQuery(ctx context.Context, tenantID uuid.UUID, tsquery string) (int, error) {
	args := m.Called(ctx, tenantID, tsquery)
	return args.Int(0), args.Error(1)
}

func (m *MockPostgresStore) CreateAIInteraction(ctx context.Context, interaction *domain.AIInteraction) error {
	args := m.Called(ctx, interaction)
	return args.Error(0)
}

func (m *MockPostgresStore) UpdateAIInteraction(ctx context.Context, tenantID, aiID uuid.UUID, outputText *string, tokensUsed *int, latencyMS *int, status string) error {
	args := m.Called(ctx, tenantID, aiID, outputText, tokensUsed, latencyMS, status)
	return args.Error(0)
}

func (m *MockPostgresStore) CreateSavedSearch(ctx context.Context, search *domain.SavedSearch) error {
	args := m.Called(ctx, search)
	return args.Error(0)
}

func (m *MockPostgresStore) ListSavedSearches(ctx context.Context, tenantID uuid.UUID, userID string) ([]domain.SavedSearch, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SavedSearch), args.Error(1)
}

func (m *MockPostgresStore) GetSavedSearch(ctx context.Context, tenantID uuid.UUID, userID string, searchID uuid.UUID) (*domain.SavedSearch, error) {
	args := m.Called(ctx, tenantID, userID, searchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SavedSearch), args.Error(1)
}

func (m *MockPostgresStore) DeleteSavedSearch(ctx context.Context, tenantID uuid.UUID, userID string, searchID uuid.UUID) error {
	args := m.Called(ctx, tenantID, userID, searchID)
	return args.Error(0)
}

func (m *MockPostgresStore) UpdateSavedSearchExport(ctx context.Context, tenantID, searchID uuid.UUID, status domain.TranslationStatus, s3Key string, rowCount *int64) error {
	args := m.Called(ctx, tenantID, searchID, status, s3Key, rowCount)
	return args.Error(0)
}

func (m *MockPostgresStore) RecordSearchHistory(ctx context.Context, tenantID uuid.UUID, userID, query string, resultCount int) error {
	args := m.Called(ctx, tenantID, userID, query, resultCount)
	return args.Error(0)
}

func (m *MockPostgresStore) GetSearchHistory(ctx context.Context, tenantID uuid.UUID, userID string, limit int) ([]domain.SearchHistoryEntry, error) {
	args := m.Called(ctx, tenantID, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchHistoryEntry), args.Error(1)
}

func (m *MockPostgresStore) CreateConversation(ctx context.Context, c *domain.Conversation) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockPostgresStore) GetConversation(ctx context.Context, tenantID, conversationID uuid.UUID) (*domain.Conversation, error) {
	args := m.Called(ctx, tenantID, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockPostgresStore) GetConversationWithMessages(ctx context.Context, tenantID, conversationID uuid.UUID, limit int) (*domain.Conversation, error) {
	args := m.Called(ctx, tenantID, conversationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockPostgresStore) ListConversations(ctx context.Context, tenantID uuid.UUID, userID string, limit int) ([]domain.Conversation, error) {
	args := m.Called(ctx, tenantID, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Conversation), args.Error(1)
}

func (m *MockPostgresStore) DeleteConversation(ctx context.Context, tenantID, conversationID uuid.UUID) error {
	args := m.Called(ctx, tenantID, conversationID)
	return args.Error(0)
}

func (m *MockPostgresStore) AddMessage(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockPostgresStore) GetMessages(ctx context.Context, tenantID, conversationID uuid.UUID, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, tenantID, conversationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *MockPostgresStore) UpdateMessageStatus(ctx context.Context, tenantID, messageID uuid.UUID, status domain.MessageStatus, errorMessage string) error {
	args := m.Called(ctx, tenantID, messageID, status, errorMessage)
	return args.Error(0)
}

func (m *MockPostgresStore) UpdateMessageContent(ctx context.Context, tenantID, messageID uuid.UUID, content string, tokensUsed, latencyMS int, status domain.MessageStatus, followUps []string) error {
	args := m.Called(ctx, tenantID, messageID, content, tokensUsed, latencyMS, status, followUps)
	return args.Error(0)
}

func (m *MockPostgresStore) Close() {
	m.Called()
}

type MockClickHouseStore struct {
	mock.Mock
}

func (m *MockClickHouseStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockClickHouseStore) BatchInsertTranslations(ctx context.Context, rows []domain.QueryTranslation) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockClickHouseStore) GetDashboardData(ctx context.Context, tenantID string, topN int) (*domain.DashboardData, error) {
	args := m.Called(ctx, tenantID, topN)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardData), args.Error(1)
}

func (m *MockClickHouseStore) GetQueryVolume(ctx context.Context, tenantID string, window time.Duration) ([]domain.QueryVolumePoint, error) {
	args := m.Called(ctx, tenantID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.QueryVolumePoint), args.Error(1)
}

func (m *MockClickHouseStore) GetRecentTranslations(ctx context.Context, tenantID, userID string, limit int) ([]domain.QueryTranslation, error) {
	args := m.Called(ctx, tenantID, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.QueryTranslation), args.Error(1)
}

func (m *MockClickHouseStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockRedisCache struct {
	mock.Mock
}

func (m *MockRedisCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRedisCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockRedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockRedisCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockRedisCache) TenantKey(tenantID, category, id string) string {
	args := m.Called(tenantID, category, id)
	return args.String(0)
}

func (m *MockRedisCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

type MockS3Storage struct {
	mock.Mock
}

func (m *MockS3Storage) Upload(ctx context.Context, key string, reader io.Reader, size int64) error {
	args := m.Called(ctx, key, reader, size)
	return args.Error(0)
}

func (m *MockS3Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

type MockAIClient struct {
	mock.Mock
}

func (m *MockAIClient) Query(ctx context.Context, systemPrompt string, messages []ai.Message, maxTokens int) (*ai.Response, error) {
	args := m.Called(ctx, systemPrompt, messages, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ai.Response), args.Error(1)
}

func (m *MockAIClient) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockNATSStreamer implements streaming.NATSStreamer for tests that need to
// assert on publish/subscribe calls without a live NATS server.
type MockNATSStreamer struct {
	mock.Mock
}

func (m *MockNATSStreamer) EnsureStreams(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockNATSStreamer) PublishExportSubmit(ctx context.Context, tenantID string, search domain.SavedSearch) error {
	args := m.Called(ctx, tenantID, search)
	return args.Error(0)
}

func (m *MockNATSStreamer) PublishExportProgress(ctx context.Context, tenantID, searchID string, rowCount int64, status, message string) error {
	args := m.Called(ctx, tenantID, searchID, rowCount, status, message)
	return args.Error(0)
}

func (m *MockNATSStreamer) PublishExportComplete(ctx context.Context, tenantID string, result domain.SavedSearch) error {
	args := m.Called(ctx, tenantID, result)
	return args.Error(0)
}

func (m *MockNATSStreamer) PublishQueryTranslated(ctx context.Context, tenantID string, translation domain.QueryTranslation) error {
	args := m.Called(ctx, tenantID, translation)
	return args.Error(0)
}

func (m *MockNATSStreamer) PublishStoryIngested(ctx context.Context, tenantID string, story domain.Story) error {
	args := m.Called(ctx, tenantID, story)
	return args.Error(0)
}

func (m *MockNATSStreamer) SubscribeExportSubmit(ctx context.Context, tenantID string, handler func(domain.SavedSearch)) error {
	args := m.Called(ctx, tenantID, handler)
	return args.Error(0)
}

func (m *MockNATSStreamer) SubscribeExportProgress(ctx context.Context, tenantID string, handler func(streaming.ExportProgress)) error {
	args := m.Called(ctx, tenantID, handler)
	return args.Error(0)
}

func (m *MockNATSStreamer) SubscribeExportComplete(ctx context.Context, tenantID string, handler func(domain.SavedSearch)) error {
	args := m.Called(ctx, tenantID, handler)
	return args.Error(0)
}

func (m *MockNATSStreamer) SubscribeQueryTranslated(ctx context.Context, tenantID string, handler func(domain.QueryTranslation)) error {
	args := m.Called(ctx, tenantID, handler)
	return args.Error(0)
}

func (m *MockNATSStreamer) SubscribeStoryIngested(ctx context.Context, tenantID string, handler func(domain.Story)) error {
	args := m.Called(ctx, tenantID, handler)
	return args.Error(0)
}

func (m *MockNATSStreamer) Ping() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockNATSStreamer) Close() {
	m.Called()
}

// MockSentenceIndexer implements search.SentenceIndexer for tests that need
// to assert on indexing/search calls without a live Bleve index.
type MockSentenceIndexer struct {
	mock.Mock
}

func (m *MockSentenceIndexer) Index(ctx context.Context, tenantID string, sentences []domain.Sentence) error {
	args := m.Called(ctx, tenantID, sentences)
	return args.Error(0)
}

func (m *MockSentenceIndexer) Search(ctx context.Context, tenantID, query string) (*bleve.SearchResult, error) {
	args := m.Called(ctx, tenantID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bleve.SearchResult), args.Error(1)
}

func (m *MockSentenceIndexer) Delete(tenantID string) error {
	args := m.Called(tenantID)
	return args.Error(0)
}

func (m *MockSentenceIndexer) Close() error {
	args := m.Called()
	return args.Error(0)
}
