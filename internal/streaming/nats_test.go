//go:build integration

package streaming

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gaybro8777/mediacloud/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func natsURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		url = "nats://localhost:4222"
	}
	return url
}

func setupClient(t *testing.T) *NATSClient {
	t.Helper()
	client, err := NewNATSClient(natsURL(t))
	require.NoError(t, err, "failed to connect to NATS")
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewNATSClient(t *testing.T) {
	client := setupClient(t)
	assert.NotNil(t, client.conn)
	assert.NotNil(t, client.js)
}

func TestPing(t *testing.T) {
	client := setupClient(t)
	err := client.Ping()
	assert.NoError(t, err)
}

func TestEnsureStreams(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()

	err := client.EnsureStreams(ctx)
	require.NoError(t, err)

	// Calling again should be idempotent.
	err = client.EnsureStreams(ctx)
	require.NoError(t, err)
}

func TestPublishSubscribeExportSubmit(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()
	require.NoError(t, client.EnsureStreams(ctx))

	tenantID := uuid.New().String()
	searchID := uuid.New()

	search := domain.SavedSearch{
		ID:       searchID,
		TenantID: uuid.MustParse(tenantID),
		Name:     "Climate coverage",
		Query:    "climate AND policy",
	}

	var received domain.SavedSearch
	var wg sync.WaitGroup
	wg.Add(1)

	err := client.SubscribeExportSubmit(ctx, tenantID, func(s domain.SavedSearch) {
		received = s
		wg.Done()
	})
	require.NoError(t, err)

	// Allow the consumer to be fully set up.
	time.Sleep(500 * time.Millisecond)

	err = client.PublishExportSubmit(ctx, tenantID, search)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		assert.Equal(t, searchID, received.ID)
		assert.Equal(t, "climate AND policy", received.Query)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for export submit message")
	}
}

func TestPublishSubscribeExportProgress(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()
	require.NoError(t, client.EnsureStreams(ctx))

	tenantID := uuid.New().String()
	searchID := uuid.New().String()

	var received ExportProgress
	var wg sync.WaitGroup
	wg.Add(1)

	err := client.SubscribeExportProgress(ctx, tenantID, func(p ExportProgress) {
		received = p
		wg.Done()
	})
	require.NoError(t, err)

	time.Sleep(500 * time.Millisecond)

	err = client.PublishExportProgress(ctx, tenantID, searchID, 4200, "running", "exported 4200 rows")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		assert.Equal(t, searchID, received.SearchID)
		assert.Equal(t, int64(4200), received.RowCount)
		assert.Equal(t, "running", received.Status)
		assert.Equal(t, "exported 4200 rows", received.Message)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for export progress message")
	}
}

func TestTenantScopedIsolation(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()
	require.NoError(t, client.EnsureStreams(ctx))

	tenantA := uuid.New().String()
	tenantB := uuid.New().String()

	var receivedA []string
	var receivedB []string
	var mu sync.Mutex
	var wgA, wgB sync.WaitGroup
	wgA.Add(1)
	wgB.Add(1)

	// Subscribe tenant A.
	err := client.SubscribeExportProgress(ctx, tenantA, func(p ExportProgress) {
		mu.Lock()
		receivedA = append(receivedA, p.SearchID)
		mu.Unlock()
		wgA.Done()
	})
	require.NoError(t, err)

	// Subscribe tenant B.
	err = client.SubscribeExportProgress(ctx, tenantB, func(p ExportProgress) {
		mu.Lock()
		receivedB = append(receivedB, p.SearchID)
		mu.Unlock()
		wgB.Done()
	})
	require.NoError(t, err)

	time.Sleep(500 * time.Millisecond)

	searchA := uuid.New().String()
	searchB := uuid.New().String()

	// Publish to tenant A and tenant B.
	require.NoError(t, client.PublishExportProgress(ctx, tenantA, searchA, 1, "running", "tenant A progress"))
	require.NoError(t, client.PublishExportProgress(ctx, tenantB, searchB, 1, "running", "tenant B progress"))

	doneA := make(chan struct{})
	go func() { wgA.Wait(); close(doneA) }()
	doneB := make(chan struct{})
	go func() { wgB.Wait(); close(doneB) }()

	select {
	case <-doneA:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for tenant A message")
	}
	select {
	case <-doneB:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for tenant B message")
	}

	mu.Lock()
	defer mu.Unlock()

	// Tenant A should only receive search A.
	assert.Equal(t, []string{searchA}, receivedA, "tenant A received wrong messages")
	// Tenant B should only receive search B.
	assert.Equal(t, []string{searchB}, receivedB, "tenant B received wrong messages")
}

func TestPublishSubscribeQueryTranslated(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()
	require.NoError(t, client.EnsureStreams(ctx))

	tenantID := uuid.New().String()

	translation := domain.QueryTranslation{
		TenantID:    tenantID,
		UserID:      "user-1",
		QueryID:     uuid.New().String(),
		RawQuery:    "climate AND policy",
		NodeCount:   3,
		TSQuery:     "( climate & policy )",
		Backend:     "tsquery",
		Succeeded:   true,
		DurationMS:  12,
		RequestedAt: time.Now().UTC(),
	}

	var received domain.QueryTranslation
	var wg sync.WaitGroup
	wg.Add(1)

	err := client.SubscribeQueryTranslated(ctx, tenantID, func(tr domain.QueryTranslation) {
		received = tr
		wg.Done()
	})
	require.NoError(t, err)

	time.Sleep(500 * time.Millisecond)

	err = client.PublishQueryTranslated(ctx, tenantID, translation)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
		assert.Equal(t, translation.QueryID, received.QueryID)
		assert.Equal(t, translation.TSQuery, received.TSQuery)
		assert.True(t, received.Succeeded)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for query translated event")
	}
}

func TestPublishSubscribeStoryIngested(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()
	require.NoError(t, client.EnsureStreams(ctx))

	tenantID := uuid.New().String()

	story := domain.Story{
		ID:            uuid.New(),
		TenantID:      uuid.MustParse(tenantID),
		MediaSourceID: uuid.New(),
		Title:         "Local council approves climate plan",
		URL:           "https://example.com/story/1",
		Language:      "en",
		WordCount:     412,
	}

	var received domain.Story
	var wg sync.WaitGroup
	wg.Add(1)

	err := client.SubscribeStoryIngested(ctx, tenantID, func(s domain.Story) {
		received = s
		wg.Done()
	})
	require.NoError(t, err)

	time.Sleep(500 * time.Millisecond)

	err = client.PublishStoryIngested(ctx, tenantID, story)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
		assert.Equal(t, story.ID, received.ID)
		assert.Equal(t, story.Title, received.Title)
		assert.Equal(t, 412, received.WordCount)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for story ingested event")
	}
}

func TestExportComplete(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()
	require.NoError(t, client.EnsureStreams(ctx))

	tenantID := uuid.New().String()
	searchID := uuid.New()
	rowCount := int64(9001)

	result := domain.SavedSearch{
		ID:             searchID,
		TenantID:       uuid.MustParse(tenantID),
		Query:          "climate AND policy",
		ExportStatus:   domain.TranslationStatusComplete,
		ExportS3Key:    "tenants/" + tenantID + "/exports/" + searchID.String() + "/results.ndjson",
		ExportRowCount: &rowCount,
	}

	var received domain.SavedSearch
	var wg sync.WaitGroup
	wg.Add(1)

	err := client.SubscribeExportComplete(ctx, tenantID, func(s domain.SavedSearch) {
		received = s
		wg.Done()
	})
	require.NoError(t, err, "subscribe export complete should not error")

	time.Sleep(500 * time.Millisecond)

	err = client.PublishExportComplete(ctx, tenantID, result)
	require.NoError(t, err, "publish export complete should not error")

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
		assert.Equal(t, searchID, received.ID)
		assert.Equal(t, rowCount, *received.ExportRowCount)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for export complete message")
	}
}

func TestConnectionFailure(t *testing.T) {
	_, err := NewNATSClient("nats://invalid-host:4222")
	assert.Error(t, err, "connecting to invalid host should fail")
}
