package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gaybro8777/mediacloud/internal/config"
	"github.com/gaybro8777/mediacloud/internal/search"
	"github.com/gaybro8777/mediacloud/internal/storage"
	"github.com/gaybro8777/mediacloud/internal/streaming"
	"github.com/gaybro8777/mediacloud/internal/worker"
)

// tenantRescanInterval bounds how often the worker re-polls Postgres for
// tenants created after startup, so a new tenant gets a processor without
// requiring a restart.
const tenantRescanInterval = time.Minute

func main() {
	// Load .env file if present (development convenience).
	_ = godotenv.Load()             // backend/.env
	_ = godotenv.Load("../.env")    // running from backend/ -> project root .env
	_ = godotenv.Load("../../.env") // running from backend/cmd/*/ -> project root .env

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)
	slog.Info("starting mediacloud worker", "env", cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Initialize storage clients ---
	pg, err := storage.NewPostgresClient(ctx, cfg.PostgresURL)
	if err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	natsClient, err := streaming.NewNATSClient(cfg.NATSURL)
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()

	if err := natsClient.EnsureStreams(ctx); err != nil {
		slog.Error("failed to ensure NATS streams", "error", err)
		os.Exit(1)
	}

	s3Client, err := storage.NewS3Client(ctx, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL, cfg.S3SkipBucketVerification)
	if err != nil {
		slog.Error("failed to connect to S3/MinIO", "error", err)
		os.Exit(1)
	}

	bleveManager, err := search.NewBleveManager(cfg.BleveIndexDir)
	if err != nil {
		slog.Error("failed to open bleve index", "error", err)
		os.Exit(1)
	}
	defer bleveManager.Close()

	// --- Build the shared pipeline and indexer; each tenant gets its own
	// Processor wired to the same pipeline/indexer/nats client, subscribed
	// on that tenant's own subject. ---
	pipeline := worker.NewPipeline(pg, s3Client, natsClient)
	indexer := worker.NewIndexer(bleveManager, pg)

	w := &workerSupervisor{
		pg:       pg,
		nats:     natsClient,
		pipeline: pipeline,
		indexer:  indexer,
		started:  make(map[string]bool),
	}

	if err := w.scan(ctx); err != nil {
		slog.Error("failed initial tenant scan", "error", err)
		os.Exit(1)
	}

	go w.rescanLoop(ctx)

	slog.Info("worker ready, listening for saved-search exports and story ingestion")

	// --- Wait for shutdown signal ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	slog.Info("received shutdown signal, draining...", "signal", sig)
	cancel()
	w.wait()
	slog.Info("mediacloud worker stopped")
}

// workerSupervisor discovers tenants and starts one worker.Processor per
// tenant, since NATS subjects are scoped per tenant by design rather than
// exposing a single cross-tenant subscription.
type workerSupervisor struct {
	pg       storage.PostgresStore
	nats     streaming.NATSStreamer
	pipeline *worker.Pipeline
	indexer  *worker.Indexer

	mu      sync.Mutex
	started map[string]bool
	wg      sync.WaitGroup
}

func (w *workerSupervisor) scan(ctx context.Context) error {
	tenants, err := w.pg.ListTenants(ctx)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, t := range tenants {
		id := t.ID.String()
		if w.started[id] {
			continue
		}
		w.started[id] = true

		processor := worker.NewProcessor(w.pipeline, w.indexer, w.nats, id)
		w.wg.Add(1)
		go func(tenantID string) {
			defer w.wg.Done()
			if err := processor.Start(ctx); err != nil {
				slog.Error("tenant processor exited with error", "tenant_id", tenantID, "error", err)
			}
		}(id)

		slog.Info("started processor for tenant", "tenant_id", id, "tenant_name", t.Name)
	}
	return nil
}

func (w *workerSupervisor) rescanLoop(ctx context.Context) {
	ticker := time.NewTicker(tenantRescanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.scan(ctx); err != nil {
				slog.Warn("tenant rescan failed", "error", err)
			}
		}
	}
}

func (w *workerSupervisor) wait() {
	w.wg.Wait()
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
}
