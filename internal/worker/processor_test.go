package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gaybro8777/mediacloud/internal/domain"
	"github.com/gaybro8777/mediacloud/internal/testutil"
)

func TestNewProcessor(t *testing.T) {
	t.Run("all nil dependencies", func(t *testing.T) {
		p := NewProcessor(nil, nil, nil, "tenant-1")
		require.NotNil(t, p)
		assert.Nil(t, p.pipeline)
		assert.Nil(t, p.indexer)
		assert.Nil(t, p.nats)
		assert.Equal(t, "tenant-1", p.tenantID)
	})

	t.Run("with pipeline and tenant", func(t *testing.T) {
		pipeline := NewPipeline(nil, nil, nil)
		indexer := NewIndexer(nil, nil)
		nats := &testutil.MockNATSStreamer{}
		p := NewProcessor(pipeline, indexer, nats, "tenant-abc")
		require.NotNil(t, p)
		assert.NotNil(t, p.pipeline)
		assert.NotNil(t, p.indexer)
		assert.NotNil(t, p.nats)
		assert.Equal(t, "tenant-abc", p.tenantID)
	})
}

func TestProcessor_Start_SubscribesAndShutsDownOnCancel(t *testing.T) {
	nats := &testutil.MockNATSStreamer{}
	nats.On("SubscribeExportSubmit", mock.Anything, "tenant-1", mock.AnythingOfType("func(domain.SavedSearch)")).Return(nil)
	nats.On("SubscribeStoryIngested", mock.Anything, "tenant-1", mock.AnythingOfType("func(domain.Story)")).Return(nil)

	p := NewProcessor(NewPipeline(nil, nil, nil), NewIndexer(nil, nil), nats, "tenant-1")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := p.Start(ctx)
	require.NoError(t, err)

	nats.AssertExpectations(t)
}

func TestProcessor_Start_SubscribeExportSubmitError(t *testing.T) {
	nats := &testutil.MockNATSStreamer{}
	wantErr := assertErr("nats unavailable")
	nats.On("SubscribeExportSubmit", mock.Anything, "tenant-1", mock.AnythingOfType("func(domain.SavedSearch)")).Return(wantErr)

	p := NewProcessor(NewPipeline(nil, nil, nil), NewIndexer(nil, nil), nats, "tenant-1")

	err := p.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, wantErr, err)
	nats.AssertNotCalled(t, "SubscribeStoryIngested", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessor_Start_SubscribeStoryIngestedError(t *testing.T) {
	nats := &testutil.MockNATSStreamer{}
	wantErr := assertErr("nats unavailable")
	nats.On("SubscribeExportSubmit", mock.Anything, "tenant-1", mock.AnythingOfType("func(domain.SavedSearch)")).Return(nil)
	nats.On("SubscribeStoryIngested", mock.Anything, "tenant-1", mock.AnythingOfType("func(domain.Story)")).Return(wantErr)

	p := NewProcessor(NewPipeline(nil, nil, nil), NewIndexer(nil, nil), nats, "tenant-1")

	err := p.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, wantErr, err)
}

func TestProcessor_Start_SkipsExportWhenContextDone(t *testing.T) {
	nats := &testutil.MockNATSStreamer{}

	var exportHandler func(domain.SavedSearch)
	nats.On("SubscribeExportSubmit", mock.Anything, "tenant-1", mock.AnythingOfType("func(domain.SavedSearch)")).
		Run(func(args mock.Arguments) {
			exportHandler = args.Get(2).(func(domain.SavedSearch))
		}).Return(nil)
	nats.On("SubscribeStoryIngested", mock.Anything, "tenant-1", mock.AnythingOfType("func(domain.Story)")).Return(nil)

	p := NewProcessor(NewPipeline(nil, nil, nil), NewIndexer(nil, nil), nats, "tenant-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	go p.Start(ctx)
	time.Sleep(10 * time.Millisecond)

	require.NotNil(t, exportHandler)
	// With the context already cancelled, invoking the handler must not
	// touch the (nil) pipeline.
	assert.NotPanics(t, func() {
		exportHandler(domain.SavedSearch{ID: uuid.New()})
	})
}
