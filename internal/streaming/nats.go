package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gaybro8777/mediacloud/internal/domain"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ExportProgress represents a progress update for a saved search's
// background NDJSON export job.
type ExportProgress struct {
	SearchID string `json:"search_id"`
	Status   string `json:"status"`
	RowCount int64  `json:"row_count"`
	Message  string `json:"message"`
}

// NATSClient wraps a NATS connection with JetStream support for
// tenant-scoped publish/subscribe on saved-search export jobs, query
// translation events, and story ingestion events.
type NATSClient struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

// NewNATSClient connects to a NATS server and enables JetStream.
func NewNATSClient(url string) (*NATSClient, error) {
	logger := slog.Default().With("component", "nats")

	opts := []nats.Option{
		nats.Name("mediacloud"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	return &NATSClient{
		conn:   nc,
		js:     js,
		logger: logger,
	}, nil
}

// Close drains the connection (flushes pending messages) and disconnects.
func (c *NATSClient) Close() {
	if c.conn != nil {
		_ = c.conn.Drain()
	}
}

// EnsureStreams creates the required JetStream streams if they do not
// already exist. Two streams are provisioned:
//
//	EXPORTS -- saved-search NDJSON export job lifecycle (submit, progress, complete)
//	EVENTS  -- query translation and story ingestion events; story ingestion
//	           events are consumed by the worker's Bleve reindexer
func (c *NATSClient) EnsureStreams(ctx context.Context) error {
	exportsCfg := jetstream.StreamConfig{
		Name:        "EXPORTS",
		Description: "Saved-search export job lifecycle (submit, progress, complete)",
		Subjects:    []string{"exports.>"},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Discard:     jetstream.DiscardOld,
		MaxBytes:    1 * 1024 * 1024 * 1024, // 1 GB
	}

	eventsCfg := jetstream.StreamConfig{
		Name:        "EVENTS",
		Description: "Query translation and story ingestion events",
		Subjects:    []string{"translate.>", "stories.>"},
		Retention:   jetstream.InterestPolicy,
		MaxAge:      1 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Discard:     jetstream.DiscardOld,
		MaxBytes:    512 * 1024 * 1024, // 512 MB
	}

	for _, cfg := range []jetstream.StreamConfig{exportsCfg, eventsCfg} {
		_, err := c.js.CreateOrUpdateStream(ctx, cfg)
		if err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
		c.logger.Info("JetStream stream ready", "stream", cfg.Name)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Subject helpers
// ---------------------------------------------------------------------------

func subjectExportSubmit(tenantID string) string {
	return fmt.Sprintf("exports.%s.submit", tenantID)
}

func subjectExportProgress(tenantID string) string {
	return fmt.Sprintf("exports.%s.progress", tenantID)
}

func subjectExportComplete(tenantID string) string {
	return fmt.Sprintf("exports.%s.complete", tenantID)
}

func subjectQueryTranslated(tenantID string) string {
	return fmt.Sprintf("translate.%s.translated", tenantID)
}

func subjectStoryIngested(tenantID string) string {
	return fmt.Sprintf("stories.%s.ingested", tenantID)
}

// ---------------------------------------------------------------------------
// Publish helpers
// ---------------------------------------------------------------------------

func (c *NATSClient) publish(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal for %s: %w", subject, err)
	}

	_, err = c.js.Publish(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}

	c.logger.Debug("published message", "subject", subject, "bytes", len(data))
	return nil
}

// ---------------------------------------------------------------------------
// Export job lifecycle publishers
// ---------------------------------------------------------------------------

// PublishExportSubmit publishes a new saved-search export submission event.
func (c *NATSClient) PublishExportSubmit(ctx context.Context, tenantID string, search domain.SavedSearch) error {
	return c.publish(ctx, subjectExportSubmit(tenantID), search)
}

// PublishExportProgress publishes an export progress update.
func (c *NATSClient) PublishExportProgress(ctx context.Context, tenantID, searchID string, rowCount int64, status, message string) error {
	p := ExportProgress{
		SearchID: searchID,
		Status:   status,
		RowCount: rowCount,
		Message:  message,
	}
	return c.publish(ctx, subjectExportProgress(tenantID), p)
}

// PublishExportComplete publishes an export completion event.
func (c *NATSClient) PublishExportComplete(ctx context.Context, tenantID string, result domain.SavedSearch) error {
	return c.publish(ctx, subjectExportComplete(tenantID), result)
}

// ---------------------------------------------------------------------------
// Query translation and story ingestion publishers
// ---------------------------------------------------------------------------

// PublishQueryTranslated publishes one query translation event, successful
// or not, for SubscribeQueryTranslated consumers.
func (c *NATSClient) PublishQueryTranslated(ctx context.Context, tenantID string, translation domain.QueryTranslation) error {
	return c.publish(ctx, subjectQueryTranslated(tenantID), translation)
}

// PublishStoryIngested publishes a newly ingested story so the search
// worker can pick it up and re-index its sentences into Bleve.
func (c *NATSClient) PublishStoryIngested(ctx context.Context, tenantID string, story domain.Story) error {
	return c.publish(ctx, subjectStoryIngested(tenantID), story)
}

// ---------------------------------------------------------------------------
// Subscribers
// ---------------------------------------------------------------------------

// SubscribeExportSubmit creates a durable consumer for export submission
// events scoped to the given tenant. The handler is invoked for each
// message; the message is acknowledged automatically after the handler
// returns without panic.
func (c *NATSClient) SubscribeExportSubmit(ctx context.Context, tenantID string, handler func(domain.SavedSearch)) error {
	subject := subjectExportSubmit(tenantID)
	durableName := fmt.Sprintf("export-submit-%s", tenantID)

	cons, err := c.js.CreateOrUpdateConsumer(ctx, "EXPORTS", jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", durableName, err)
	}

	_, err = cons.Consume(func(msg jetstream.Msg) {
		var search domain.SavedSearch
		if err := json.Unmarshal(msg.Data(), &search); err != nil {
			c.logger.Error("unmarshal export submit", "error", err, "subject", subject)
			_ = msg.TermWithReason("unmarshal error")
			return
		}
		handler(search)
		if err := msg.Ack(); err != nil {
			c.logger.Error("ack export submit", "error", err, "subject", subject)
		}
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", durableName, err)
	}

	c.logger.Info("subscribed to export submit", "tenant", tenantID, "durable", durableName)
	return nil
}

// SubscribeExportComplete creates a durable consumer for export completion
// events scoped to the given tenant.
func (c *NATSClient) SubscribeExportComplete(ctx context.Context, tenantID string, handler func(domain.SavedSearch)) error {
	subject := subjectExportComplete(tenantID)
	durableName := fmt.Sprintf("export-complete-%s", tenantID)

	cons, err := c.js.CreateOrUpdateConsumer(ctx, "EXPORTS", jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", durableName, err)
	}

	_, err = cons.Consume(func(msg jetstream.Msg) {
		var search domain.SavedSearch
		if err := json.Unmarshal(msg.Data(), &search); err != nil {
			c.logger.Error("unmarshal export complete", "error", err, "subject", subject)
			_ = msg.TermWithReason("unmarshal error")
			return
		}
		handler(search)
		if err := msg.Ack(); err != nil {
			c.logger.Error("ack export complete", "error", err, "subject", subject)
		}
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", durableName, err)
	}

	c.logger.Info("subscribed to export complete", "tenant", tenantID, "durable", durableName)
	return nil
}

// SubscribeExportProgress creates a durable consumer for export progress
// events scoped to the given tenant.
func (c *NATSClient) SubscribeExportProgress(ctx context.Context, tenantID string, handler func(ExportProgress)) error {
	subject := subjectExportProgress(tenantID)
	durableName := fmt.Sprintf("export-progress-%s", tenantID)

	cons, err := c.js.CreateOrUpdateConsumer(ctx, "EXPORTS", jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		MaxDeliver:    3,
		AckWait:       10 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", durableName, err)
	}

	_, err = cons.Consume(func(msg jetstream.Msg) {
		var p ExportProgress
		if err := json.Unmarshal(msg.Data(), &p); err != nil {
			c.logger.Error("unmarshal export progress", "error", err, "subject", subject)
			_ = msg.TermWithReason("unmarshal error")
			return
		}
		handler(p)
		if err := msg.Ack(); err != nil {
			c.logger.Error("ack export progress", "error", err, "subject", subject)
		}
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", durableName, err)
	}

	c.logger.Info("subscribed to export progress", "tenant", tenantID, "durable", durableName)
	return nil
}

// SubscribeQueryTranslated subscribes to query translation events for the
// given tenant. This uses an ephemeral (non-durable) consumer, so the
// handler only sees events published after it subscribes.
func (c *NATSClient) SubscribeQueryTranslated(ctx context.Context, tenantID string, handler func(domain.QueryTranslation)) error {
	subject := subjectQueryTranslated(tenantID)

	cons, err := c.js.CreateOrUpdateConsumer(ctx, "EVENTS", jetstream.ConsumerConfig{
		FilterSubject:     subject,
		AckPolicy:         jetstream.AckNonePolicy,
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		InactiveThreshold: 5 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("create ephemeral consumer for %s: %w", subject, err)
	}

	_, err = cons.Consume(func(msg jetstream.Msg) {
		var t domain.QueryTranslation
		if err := json.Unmarshal(msg.Data(), &t); err != nil {
			c.logger.Error("unmarshal query translated", "error", err, "subject", subject)
			return
		}
		handler(t)
	})
	if err != nil {
		return fmt.Errorf("consume query translated %s: %w", subject, err)
	}

	c.logger.Info("subscribed to query translated", "tenant", tenantID)
	return nil
}

// SubscribeStoryIngested creates a durable consumer that triggers
// re-indexing into Bleve whenever a new story is ingested.
func (c *NATSClient) SubscribeStoryIngested(ctx context.Context, tenantID string, handler func(domain.Story)) error {
	subject := subjectStoryIngested(tenantID)
	durableName := fmt.Sprintf("story-ingested-%s", tenantID)

	cons, err := c.js.CreateOrUpdateConsumer(ctx, "EVENTS", jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", durableName, err)
	}

	_, err = cons.Consume(func(msg jetstream.Msg) {
		var story domain.Story
		if err := json.Unmarshal(msg.Data(), &story); err != nil {
			c.logger.Error("unmarshal story ingested", "error", err, "subject", subject)
			_ = msg.TermWithReason("unmarshal error")
			return
		}
		handler(story)
		if err := msg.Ack(); err != nil {
			c.logger.Error("ack story ingested", "error", err, "subject", subject)
		}
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", durableName, err)
	}

	c.logger.Info("subscribed to story ingested", "tenant", tenantID, "durable", durableName)
	return nil
}

// ---------------------------------------------------------------------------
// Health check
// ---------------------------------------------------------------------------

// Ping verifies the NATS connection is alive and JetStream is available.
func (c *NATSClient) Ping() error {
	if !c.conn.IsConnected() {
		return fmt.Errorf("nats: not connected")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.js.AccountInfo(ctx)
	if err != nil {
		return fmt.Errorf("nats jetstream ping: %w", err)
	}

	return nil
}
