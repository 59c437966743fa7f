package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gaybro8777/mediacloud/internal/ai"
	"github.com/gaybro8777/mediacloud/internal/ai/skills"
	"github.com/gaybro8777/mediacloud/internal/api"
	"github.com/gaybro8777/mediacloud/internal/api/handlers"
	"github.com/gaybro8777/mediacloud/internal/config"
	"github.com/gaybro8777/mediacloud/internal/search"
	"github.com/gaybro8777/mediacloud/internal/storage"
	"github.com/gaybro8777/mediacloud/internal/streaming"
)

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
	slog.Info("starting mediacloud API server", "port", cfg.APIPort, "env", cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Initialize storage clients ---
	pg, err := storage.NewPostgresClient(ctx, cfg.PostgresURL)
	if err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	ch, err := storage.NewClickHouseClient(ctx, cfg.ClickHouseURL)
	if err != nil {
		slog.Error("failed to connect to ClickHouse", "error", err)
		os.Exit(1)
	}
	defer ch.Close()

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

	redis, err := storage.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redis.Close()

	// S3 is non-critical at startup — log and continue if unavailable. Only
	// saved-search export downloads depend on it.
	s3Client, err := storage.NewS3Client(ctx, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL, cfg.S3SkipBucketVerification)
	if err != nil {
		slog.Warn("S3 client initialization failed; saved-search exports will not work", "error", err)
	}
	_ = s3Client

	bleveManager, err := search.NewBleveManager(cfg.BleveIndexDir)
	if err != nil {
		slog.Warn("bleve index initialization failed; sentence search will not work", "error", err)
	}

	// --- AI registry: a single suggest_query skill over the Anthropic API ---
	aiRegistry := ai.NewRegistry()
	aiRouter := ai.NewRouter()
	if cfg.AnthropicAPIKey != "" {
		aiClient, err := ai.NewClient(cfg.AnthropicAPIKey, "")
		if err != nil {
			slog.Warn("anthropic client initialization failed; suggest_query will be unavailable", "error", err)
		} else if err := aiRegistry.Register(skills.NewSuggestQuerySkill(aiClient)); err != nil {
			slog.Warn("failed to register suggest_query skill", "error", err)
		}
	} else {
		slog.Warn("ANTHROPIC_API_KEY not set; suggest_query skill disabled")
	}

	// --- WebSocket hub ---
	wsHub := streaming.NewHub()
	go wsHub.Run()

	// --- Build handlers ---
	healthHandler := handlers.NewHealthHandler(
		pg.Ping,
		ch.Ping,
		func(ctx context.Context) error { return natsClient.Ping() },
		redis.Ping,
	)

	var searchHandler *handlers.SearchHandler
	if bleveManager != nil {
		searchHandler = handlers.NewSearchHandler(bleveManager, pg)
	} else {
		searchHandler = handlers.NewSearchHandler(nil, pg)
	}

	// --- Build router ---
	router := api.NewRouter(api.RouterConfig{
		AllowedOrigins: []string{"*"},
		DevMode:        cfg.IsDevelopment(),
		ClerkSecretKey: cfg.ClerkSecretKey,

		HealthHandler: healthHandler,

		TranslateHandler:    handlers.NewTranslateHandler(ch, redis),
		SearchHandler:       searchHandler,
		AutocompleteHandler: handlers.NewAutocompleteHandler(pg),

		DashboardHandler:   handlers.NewDashboardHandler(ch, redis),
		QueryVolumeHandler: handlers.NewQueryVolumeHandler(ch),

		SavedSearchHandler:       handlers.NewSavedSearchHandler(pg),
		DeleteSavedSearchHandler: handlers.NewDeleteSavedSearchHandler(pg),
		SearchHistoryHandler:     handlers.NewSearchHistoryHandler(pg),
		ExportHandler:            handlers.NewExportHandler(pg, natsClient),

		WSHandler: handlers.NewStreamHandler(wsHub, []string{"*"}),

		AIHandler:                 handlers.NewAIHandler(aiRegistry, aiRouter),
		ListSkillsHandler:         handlers.NewListSkillsHandler(aiRegistry),
		ConversationsHandler:      handlers.NewConversationsHandler(pg),
		ConversationDetailHandler: handlers.NewConversationDetailHandler(pg),
	})

	// --- Start HTTP server ---
	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	// --- Graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}

	if bleveManager != nil {
		if err := bleveManager.Close(); err != nil {
			slog.Error("bleve index close error", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("mediacloud API server stopped")
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
