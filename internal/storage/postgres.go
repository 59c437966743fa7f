package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gaybro8777/mediacloud/internal/domain"
)

// IsNotFound returns true if the error indicates a record was not found.
// This checks for both pgx.ErrNoRows and the "not found" error strings
// produced by this package's query methods.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if err == pgx.ErrNoRows {
		return true
	}
	return strings.Contains(err.Error(), "not found")
}

// PostgresClient wraps a pgx connection pool and provides CRUD operations
// for all relational data managed in PostgreSQL.
type PostgresClient struct {
	pool *pgxpool.Pool
}

// NewPostgresClient creates a new PostgreSQL client from the given DSN.
func NewPostgresClient(ctx context.Context, dsn string) (*PostgresClient, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &PostgresClient{pool: pool}, nil
}

// Close releases all connections in the pool.
func (p *PostgresClient) Close() {
	p.pool.Close()
}

// Ping verifies connectivity to PostgreSQL.
func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// SetTenantContext sets the app.tenant_id session variable used by
// Row-Level Security policies. The third parameter to set_config is true,
// meaning the setting is transaction-local and will be reset when the
// transaction ends. Callers should use this within a transaction to
// prevent the tenant context from leaking to other users of the pooled
// connection.
//
// The tenantID is validated as a UUID to prevent injection and then set
// via a parameterized call to set_config().
func (p *PostgresClient) SetTenantContext(ctx context.Context, tenantID string) error {
	if _, err := uuid.Parse(tenantID); err != nil {
		return fmt.Errorf("postgres: invalid tenant ID format: %w", err)
	}
	_, err := p.pool.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID)
	if err != nil {
		return fmt.Errorf("postgres: set tenant context: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Tenants
// --------------------------------------------------------------------------

// CreateTenant inserts a new tenant row.
func (p *PostgresClient) CreateTenant(ctx context.Context, t *domain.Tenant) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := p.pool.Exec(ctx, `
		INSERT INTO tenants (id, clerk_org_id, name, plan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.ClerkOrgID, t.Name, t.Plan, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create tenant: %w", err)
	}
	return nil
}

// GetTenant fetches a tenant by its primary key.
func (p *PostgresClient) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	var t domain.Tenant
	err := p.pool.QueryRow(ctx, `
		SELECT id, clerk_org_id, name, plan, created_at, updated_at
		FROM tenants WHERE id = $1
	`, id).Scan(&t.ID, &t.ClerkOrgID, &t.Name, &t.Plan, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("postgres: tenant not found: %s", id)
		}
		return nil, fmt.Errorf("postgres: get tenant: %w", err)
	}
	return &t, nil
}

// GetTenantByClerkOrg looks up a tenant by its Clerk organization ID.
func (p *PostgresClient) GetTenantByClerkOrg(ctx context.Context, clerkOrgID string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := p.pool.QueryRow(ctx, `
		SELECT id, clerk_org_id, name, plan, created_at, updated_at
		FROM tenants WHERE clerk_org_id = $1
	`, clerkOrgID).Scan(&t.ID, &t.ClerkOrgID, &t.Name, &t.Plan, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("postgres: tenant not found for clerk org: %s", clerkOrgID)
		}
		return nil, fmt.Errorf("postgres: get tenant by clerk org: %w", err)
	}
	return &t, nil
}

// ListTenants returns every tenant row, ordered by creation time. The worker
// entrypoint uses this at startup (and on its periodic rescan) to discover
// which tenants need a subscription processor.
func (p *PostgresClient) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, clerk_org_id, name, plan, created_at, updated_at
		FROM tenants
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.ClerkOrgID, &t.Name, &t.Plan, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// --------------------------------------------------------------------------
// Media Sources
// --------------------------------------------------------------------------

// CreateMediaSource inserts a new media source record.
func (p *PostgresClient) CreateMediaSource(ctx context.Context, m *domain.MediaSource) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now().UTC()

	_, err := p.pool.Exec(ctx, `
		INSERT INTO media_sources (id, tenant_id, name, url, type, language, last_fetch, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, m.ID, m.TenantID, m.Name, m.URL, m.Type, m.Language, m.LastFetch, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create media source: %w", err)
	}
	return nil
}

// GetMediaSource retrieves a media source by its ID within a tenant.
func (p *PostgresClient) GetMediaSource(ctx context.Context, tenantID, sourceID uuid.UUID) (*domain.MediaSource, error) {
	var m domain.MediaSource
	err := p.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, url, type, language, last_fetch, created_at
		FROM media_sources
		WHERE id = $1 AND tenant_id = $2
	`, sourceID, tenantID).Scan(
		&m.ID, &m.TenantID, &m.Name, &m.URL, &m.Type, &m.Language, &m.LastFetch, &m.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("postgres: media source not found: %s", sourceID)
		}
		return nil, fmt.Errorf("postgres: get media source: %w", err)
	}
	return &m, nil
}

// ListMediaSources returns all media sources for a tenant.
func (p *PostgresClient) ListMediaSources(ctx context.Context, tenantID uuid.UUID) ([]domain.MediaSource, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, tenant_id, name, url, type, language, last_fetch, created_at
		FROM media_sources
		WHERE tenant_id = $1
		ORDER BY name ASC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list media sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.MediaSource
	for rows.Next() {
		var m domain.MediaSource
		if err := rows.Scan(
			&m.ID, &m.TenantID, &m.Name, &m.URL, &m.Type, &m.Language, &m.LastFetch, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan media source: %w", err)
		}
		sources = append(sources, m)
	}
	return sources, rows.Err()
}

// --------------------------------------------------------------------------
// Stories
// --------------------------------------------------------------------------

// CreateStory inserts a new story record.
func (p *PostgresClient) CreateStory(ctx context.Context, s *domain.Story) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.IngestedAt = time.Now().UTC()

	_, err := p.pool.Exec(ctx, `
		INSERT INTO stories (
			id, tenant_id, media_source_id, title, url, language,
			published_at, ingested_at, word_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, s.ID, s.TenantID, s.MediaSourceID, s.Title, s.URL, s.Language,
		s.PublishedAt, s.IngestedAt, s.WordCount)
	if err != nil {
		return fmt.Errorf("postgres: create story: %w", err)
	}
	return nil
}

// GetStory retrieves a story by its ID within a tenant.
func (p *PostgresClient) GetStory(ctx context.Context, tenantID, storyID uuid.UUID) (*domain.Story, error) {
	var s domain.Story
	err := p.pool.QueryRow(ctx, `
		SELECT id, tenant_id, media_source_id, title, url, language,
		       published_at, ingested_at, word_count
		FROM stories
		WHERE id = $1 AND tenant_id = $2
	`, storyID, tenantID).Scan(
		&s.ID, &s.TenantID, &s.MediaSourceID, &s.Title, &s.URL, &s.Language,
		&s.PublishedAt, &s.IngestedAt, &s.WordCount,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("postgres: story not found: %s", storyID)
		}
		return nil, fmt.Errorf("postgres: get story: %w", err)
	}
	return &s, nil
}

// ListStoriesByMediaSource returns stories for a media source, most recently
// published first.
func (p *PostgresClient) ListStoriesByMediaSource(ctx context.Context, tenantID, mediaSourceID uuid.UUID, limit int) ([]domain.Story, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id, tenant_id, media_source_id, title, url, language,
		       published_at, ingested_at, word_count
		FROM stories
		WHERE tenant_id = $1 AND media_source_id = $2
		ORDER BY published_at DESC
		LIMIT $3
	`, tenantID, mediaSourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list stories: %w", err)
	}
	defer rows.Close()

	var stories []domain.Story
	for rows.Next() {
		var s domain.Story
		if err := rows.Scan(
			&s.ID, &s.TenantID, &s.MediaSourceID, &s.Title, &s.URL, &s.Language,
			&s.PublishedAt, &s.IngestedAt, &s.WordCount,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan story: %w", err)
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}

// --------------------------------------------------------------------------
// Sentences
// --------------------------------------------------------------------------

// BatchInsertSentences inserts the sentences produced by splitting a
// story's body text, used both to populate the Postgres full-text column
// and to feed the Bleve indexer.
func (p *PostgresClient) BatchInsertSentences(ctx context.Context, sentences []domain.Sentence) error {
	if len(sentences) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range sentences {
		s := &sentences[i]
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		batch.Queue(`
			INSERT INTO sentences (id, tenant_id, story_id, sentence_no, sentence, language)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, s.ID, s.TenantID, s.StoryID, s.SentenceNo, s.Sentence, s.Language)
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range sentences {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: batch insert sentences: %w", err)
		}
	}
	return nil
}

// ListSentencesByStory returns all sentences belonging to a story, in order.
func (p *PostgresClient) ListSentencesByStory(ctx context.Context, tenantID, storyID uuid.UUID) ([]domain.Sentence, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, tenant_id, story_id, sentence_no, sentence, language
		FROM sentences
		WHERE tenant_id = $1 AND story_id = $2
		ORDER BY sentence_no ASC
	`, tenantID, storyID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sentences: %w", err)
	}
	defer rows.Close()

	var sentences []domain.Sentence
	for rows.Next() {
		var s domain.Sentence
		if err := rows.Scan(&s.ID, &s.TenantID, &s.StoryID, &s.SentenceNo, &s.Sentence, &s.Language); err != nil {
			return nil, fmt.Errorf("postgres: scan sentence: %w", err)
		}
		sentences = append(sentences, s)
	}
	return sentences, rows.Err()
}

// SearchSentencesByTSQuery runs a translated tsquery string (the output of
// querylang.TSQuery) against the stored sentence corpus, scoped to a tenant.
// It is the storage-layer half of a saved-search export: the caller parses
// and translates the saved search's raw query once, then drives this method
// to stream matches to S3.
func (p *PostgresClient) SearchSentencesByTSQuery(ctx context.Context, tenantID uuid.UUID, tsquery string, limit int) ([]domain.Sentence, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, tenant_id, story_id, sentence_no, sentence, language
		FROM sentences
		WHERE tenant_id = $1
		  AND to_tsvector('english', sentence) @@ to_tsquery('english', $2)
		ORDER BY sentence_no ASC
		LIMIT $3
	`, tenantID, tsquery, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: search sentences by tsquery: %w", err)
	}
	defer rows.Close()

	var sentences []domain.Sentence
	for rows.Next() {
		var s domain.Sentence
		if err := rows.Scan(&s.ID, &s.TenantID, &s.StoryID, &s.SentenceNo, &s.Sentence, &s.Language); err != nil {
			return nil, fmt.Errorf("postgres: scan sentence: %w", err)
		}
		sentences = append(sentences, s)
	}
	return sentences, rows.Err()
}

// CountSentencesByTSQuery returns the number of sentences matching a
// translated tsquery string, without materializing the full row set.
func (p *PostgresClient) CountSentencesByTSQuery(ctx context.Context, tenantID uuid.UUID, tsquery string) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM sentences
		WHERE tenant_id = $1
		  AND to_tsvector('english', sentence) @@ to_tsquery('english', $2)
	`, tenantID, tsquery).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count sentences by tsquery: %w", err)
	}
	return count, nil
}

// --------------------------------------------------------------------------
// AI Interactions
// --------------------------------------------------------------------------

// CreateAIInteraction inserts a new AI interaction record.
func (p *PostgresClient) CreateAIInteraction(ctx context.Context, ai *domain.AIInteraction) error {
	if ai.ID == uuid.Nil {
		ai.ID = uuid.New()
	}
	ai.CreatedAt = time.Now().UTC()

	_, err := p.pool.Exec(ctx, `
		INSERT INTO ai_interactions (
			id, tenant_id, user_id, skill_name,
			input_text, output_text, tokens_used, latency_ms, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, ai.ID, ai.TenantID, ai.UserID, ai.SkillName,
		ai.InputText, ai.OutputText, ai.TokensUsed, ai.LatencyMS, ai.Status, ai.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create ai interaction: %w", err)
	}
	return nil
}

// UpdateAIInteraction updates the output fields of an AI interaction after
// the AI skill completes.
func (p *PostgresClient) UpdateAIInteraction(ctx context.Context, tenantID, interactionID uuid.UUID, outputText *string, tokensUsed *int, latencyMS *int, status string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE ai_interactions
		SET output_text = $1, tokens_used = $2, latency_ms = $3, status = $4
		WHERE id = $5 AND tenant_id = $6
	`, outputText, tokensUsed, latencyMS, status, interactionID, tenantID)
	if err != nil {
		return fmt.Errorf("postgres: update ai interaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: ai interaction not found: %s", interactionID)
	}
	return nil
}

// --------------------------------------------------------------------------
// Saved Searches
// --------------------------------------------------------------------------

// CreateSavedSearch inserts a new saved search.
func (p *PostgresClient) CreateSavedSearch(ctx context.Context, s *domain.SavedSearch) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now().UTC()

	_, err := p.pool.Exec(ctx, `
		INSERT INTO saved_searches (id, tenant_id, user_id, name, query, is_pinned, export_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.TenantID, s.UserID, s.Name, s.Query, s.IsPinned, s.ExportStatus, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create saved search: %w", err)
	}
	return nil
}

// ListSavedSearches returns all saved searches for a tenant and user.
func (p *PostgresClient) ListSavedSearches(ctx context.Context, tenantID uuid.UUID, userID string) ([]domain.SavedSearch, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, tenant_id, user_id, name, query, is_pinned,
		       export_status, export_s3_key, export_row_count, created_at
		FROM saved_searches
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY is_pinned DESC, created_at DESC
	`, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list saved searches: %w", err)
	}
	defer rows.Close()

	var searches []domain.SavedSearch
	for rows.Next() {
		var s domain.SavedSearch
		if err := rows.Scan(
			&s.ID, &s.TenantID, &s.UserID, &s.Name, &s.Query, &s.IsPinned,
			&s.ExportStatus, &s.ExportS3Key, &s.ExportRowCount, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan saved search: %w", err)
		}
		searches = append(searches, s)
	}
	return searches, rows.Err()
}

// GetSavedSearch fetches a single saved search by ID, scoped to the tenant
// and user so one user cannot read another's saved search by guessing its ID.
func (p *PostgresClient) GetSavedSearch(ctx context.Context, tenantID uuid.UUID, userID string, searchID uuid.UUID) (*domain.SavedSearch, error) {
	var s domain.SavedSearch
	err := p.pool.QueryRow(ctx, `
		SELECT id, tenant_id, user_id, name, query, is_pinned,
		       export_status, export_s3_key, export_row_count, created_at
		FROM saved_searches
		WHERE id = $1 AND tenant_id = $2 AND user_id = $3
	`, searchID, tenantID, userID).Scan(
		&s.ID, &s.TenantID, &s.UserID, &s.Name, &s.Query, &s.IsPinned,
		&s.ExportStatus, &s.ExportS3Key, &s.ExportRowCount, &s.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("postgres: saved search not found: %s", searchID)
		}
		return nil, fmt.Errorf("postgres: get saved search: %w", err)
	}
	return &s, nil
}

// DeleteSavedSearch removes a saved search by ID, scoped to the tenant and user.
func (p *PostgresClient) DeleteSavedSearch(ctx context.Context, tenantID uuid.UUID, userID string, searchID uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `
		DELETE FROM saved_searches
		WHERE id = $1 AND tenant_id = $2 AND user_id = $3
	`, searchID, tenantID, userID)
	if err != nil {
		return fmt.Errorf("postgres: delete saved search: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: saved search not found: %s", searchID)
	}
	return nil
}

// UpdateSavedSearchExport updates the background export bookkeeping fields
// of a saved search once the export worker finishes (or fails) writing the
// NDJSON file to S3.
func (p *PostgresClient) UpdateSavedSearchExport(ctx context.Context, tenantID, searchID uuid.UUID, status domain.TranslationStatus, s3Key string, rowCount *int64) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE saved_searches
		SET export_status = $1, export_s3_key = $2, export_row_count = $3
		WHERE id = $4 AND tenant_id = $5
	`, status, s3Key, rowCount, searchID, tenantID)
	if err != nil {
		return fmt.Errorf("postgres: update saved search export: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: saved search not found: %s", searchID)
	}
	return nil
}

// --------------------------------------------------------------------------
// Search History
// --------------------------------------------------------------------------

const searchHistoryLimit = 20

// RecordSearchHistory inserts a search-history row and prunes older rows
// beyond searchHistoryLimit for the same tenant/user, all within one
// transaction so a crash between the two statements can't leave the
// history unbounded.
func (p *PostgresClient) RecordSearchHistory(ctx context.Context, tenantID uuid.UUID, userID, query string, resultCount int) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: record search history begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO search_history (tenant_id, user_id, query, result_count, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, tenantID, userID, query, resultCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres: record search history insert: %w", err)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM search_history
		WHERE tenant_id = $1 AND user_id = $2
		  AND id NOT IN (
		    SELECT id FROM search_history
		    WHERE tenant_id = $1 AND user_id = $2
		    ORDER BY created_at DESC
		    LIMIT $3
		  )
	`, tenantID, userID, searchHistoryLimit)
	if err != nil {
		return fmt.Errorf("postgres: record search history cleanup: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: record search history commit: %w", err)
	}
	return nil
}

// GetSearchHistory returns the most recent search-history entries for a
// tenant and user, newest first.
func (p *PostgresClient) GetSearchHistory(ctx context.Context, tenantID uuid.UUID, userID string, limit int) ([]domain.SearchHistoryEntry, error) {
	if limit <= 0 || limit > searchHistoryLimit {
		limit = searchHistoryLimit
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, tenant_id, user_id, query, result_count, created_at
		FROM search_history
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, tenantID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: get search history: %w", err)
	}
	defer rows.Close()

	var entries []domain.SearchHistoryEntry
	for rows.Next() {
		var e domain.SearchHistoryEntry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.UserID, &e.Query, &e.ResultCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan search history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --------------------------------------------------------------------------
// Conversations and Messages (AI skill chat history)
// --------------------------------------------------------------------------

func (p *PostgresClient) CreateConversation(ctx context.Context, c *domain.Conversation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := p.pool.Exec(ctx, `
		INSERT INTO conversations (id, tenant_id, user_id, title, created_at, updated_at, message_count, last_message_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.TenantID, c.UserID, c.Title, c.CreatedAt, c.UpdatedAt, c.MessageCount, c.LastMessageAt, c.Metadata)
	if err != nil {
		return fmt.Errorf("postgres: create conversation: %w", err)
	}
	return nil
}

func (p *PostgresClient) GetConversation(ctx context.Context, tenantID, conversationID uuid.UUID) (*domain.Conversation, error) {
	var c domain.Conversation
	err := p.pool.QueryRow(ctx, `
		SELECT id, tenant_id, user_id, title, created_at, updated_at, message_count, last_message_at, metadata
		FROM conversations
		WHERE id = $1 AND tenant_id = $2
	`, conversationID, tenantID).Scan(
		&c.ID, &c.TenantID, &c.UserID, &c.Title,
		&c.CreatedAt, &c.UpdatedAt, &c.MessageCount, &c.LastMessageAt, &c.Metadata,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("postgres: conversation not found: %s", conversationID)
		}
		return nil, fmt.Errorf("postgres: get conversation: %w", err)
	}
	return &c, nil
}

func (p *PostgresClient) GetConversationWithMessages(ctx context.Context, tenantID, conversationID uuid.UUID, limit int) (*domain.Conversation, error) {
	c, err := p.GetConversation(ctx, tenantID, conversationID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, conversation_id, tenant_id, role, content, skill_name, follow_ups, tokens_used, latency_ms, status, error_message, created_at
		FROM messages
		WHERE conversation_id = $1 AND tenant_id = $2
		ORDER BY created_at ASC
		LIMIT $3
	`, conversationID, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: get conversation messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.TenantID, &m.Role, &m.Content,
			&m.SkillName, &m.FollowUps, &m.TokensUsed, &m.LatencyMS,
			&m.Status, &m.ErrorMessage, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan message: %w", err)
		}
		c.Messages = append(c.Messages, m)
	}
	return c, rows.Err()
}

func (p *PostgresClient) ListConversations(ctx context.Context, tenantID uuid.UUID, userID string, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, tenant_id, user_id, title, created_at, updated_at, message_count, last_message_at, metadata
		FROM conversations
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY updated_at DESC
		LIMIT $3
	`, tenantID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(
			&c.ID, &c.TenantID, &c.UserID, &c.Title,
			&c.CreatedAt, &c.UpdatedAt, &c.MessageCount, &c.LastMessageAt, &c.Metadata,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

func (p *PostgresClient) DeleteConversation(ctx context.Context, tenantID, conversationID uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `
		DELETE FROM conversations
		WHERE id = $1 AND tenant_id = $2
	`, conversationID, tenantID)
	if err != nil {
		return fmt.Errorf("postgres: delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: conversation not found: %s", conversationID)
	}
	return nil
}

func (p *PostgresClient) AddMessage(ctx context.Context, m *domain.Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now().UTC()
	if m.Status == "" {
		m.Status = domain.MessageStatusPending
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, tenant_id, role, content, skill_name, follow_ups, tokens_used, latency_ms, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, m.ID, m.ConversationID, m.TenantID, m.Role, m.Content,
		m.SkillName, m.FollowUps, m.TokensUsed, m.LatencyMS,
		m.Status, m.ErrorMessage, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: add message: %w", err)
	}

	if _, err := p.pool.Exec(ctx, `
		UPDATE conversations SET message_count = message_count + 1, last_message_at = $1, updated_at = $1
		WHERE id = $2 AND tenant_id = $3
	`, m.CreatedAt, m.ConversationID, m.TenantID); err != nil {
		return fmt.Errorf("postgres: bump conversation message count: %w", err)
	}
	return nil
}

func (p *PostgresClient) GetMessages(ctx context.Context, tenantID, conversationID uuid.UUID, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, conversation_id, tenant_id, role, content, skill_name, follow_ups, tokens_used, latency_ms, status, error_message, created_at
		FROM messages
		WHERE conversation_id = $1 AND tenant_id = $2
		ORDER BY created_at ASC
		LIMIT $3
	`, conversationID, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: get messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.TenantID, &m.Role, &m.Content,
			&m.SkillName, &m.FollowUps, &m.TokensUsed, &m.LatencyMS,
			&m.Status, &m.ErrorMessage, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (p *PostgresClient) UpdateMessageStatus(ctx context.Context, tenantID, messageID uuid.UUID, status domain.MessageStatus, errorMessage string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE messages
		SET status = $1, error_message = $2
		WHERE id = $3 AND tenant_id = $4
	`, status, errorMessage, messageID, tenantID)
	if err != nil {
		return fmt.Errorf("postgres: update message status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: message not found: %s", messageID)
	}
	return nil
}

func (p *PostgresClient) UpdateMessageContent(ctx context.Context, tenantID, messageID uuid.UUID, content string, tokensUsed, latencyMS int, status domain.MessageStatus, followUps []string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE messages
		SET content = $1, tokens_used = $2, latency_ms = $3, status = $4, follow_ups = $5
		WHERE id = $6 AND tenant_id = $7
	`, content, tokensUsed, latencyMS, status, followUps, messageID, tenantID)
	if err != nil {
		return fmt.Errorf("postgres: update message content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: message not found: %s", messageID)
	}
	return nil
}
