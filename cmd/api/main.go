package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/user/recipe-service/internal/adapter/content"
	"github.com/user/recipe-service/internal/adapter/llm"
	"github.com/user/recipe-service/internal/adapter/oembed"
	"github.com/user/recipe-service/internal/adapter/postgres"
	redis_adapter "github.com/user/recipe-service/internal/adapter/redis"
	"github.com/user/recipe-service/internal/adapter/webpage"
	"github.com/user/recipe-service/internal/adapter/whisper"
	"github.com/user/recipe-service/internal/adapter/youtube"
	"github.com/user/recipe-service/internal/adapter/ytdlp"
	"github.com/user/recipe-service/internal/delivery/http/handler"
	"github.com/user/recipe-service/internal/delivery/http/router"
	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/internal/repository"
	"github.com/user/recipe-service/internal/usecase"
	"github.com/user/recipe-service/pkg/config"
	"github.com/user/recipe-service/pkg/logger"
	"github.com/user/recipe-service/pkg/metrics"
)

func main() {
	// --- Configuration ---
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// --- Logger ---
	logLevel := logger.ParseLevel(cfg.LogLevel)
	logger.Init(os.Stdout, logLevel, cfg.LogFormat)
	slog.Info("Logger initialized", "level", logLevel.String(), "format", cfg.LogFormat)

	// --- Metrics ---
	metrics.Init()
	slog.Info("Metrics initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Database Connections ---

	// PostgreSQL
	dbpool, err := pgxpool.New(ctx, cfg.PostgresDSN())
	if err != nil {
		slog.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	if err := dbpool.Ping(ctx); err != nil {
		slog.Error("Unable to reach database", "error", err)
		os.Exit(1)
	}
	slog.Info("PostgreSQL connection pool established")

	if !cfg.SkipMigrations {
		version, dirty, err := postgres.RunMigrations(dbpool)
		if err != nil {
			slog.Error("Failed to apply migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("Database schema ready", "version", version, "dirty", dirty)
	}

	checks := []handler.HealthCheck{{Name: "postgres", Check: dbpool.Ping}}

	// Redis is optional: without it single-flight is per instance and
	// progress is not replayed to reattaching clients.
	var progressLog repository.ProgressLogRepository
	var sharedLock repository.InFlightRepository
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			slog.Error("Unable to connect to Redis", "error", err)
			os.Exit(1)
		}
		slog.Info("Redis connection established")

		progressLog = redis_adapter.NewProgressLogRepo(rdb, cfg.ProgressLogTTL)
		sharedLock = redis_adapter.NewInFlightRepo(rdb)
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	} else {
		slog.Warn("REDIS_ADDR not set, single-flight is limited to this instance")
	}

	// --- Repositories ---
	recipeRepo := postgres.NewRecipeRepo(dbpool)
	jobRepo := postgres.NewJobRepo(dbpool)

	// --- External services ---
	httpClient := &http.Client{Timeout: cfg.FetchTimeout}
	ytdlpRunner := ytdlp.NewRunner(cfg.YtDlpPath, cfg.TranscriptionTimeout)

	var renderer repository.PageRenderer = webpage.NewHTTPRenderer(cfg.PageLoadTimeout)
	if cfg.ChromeEnabled {
		chrome := webpage.NewChromeRenderer(cfg.MaxBrowsers, cfg.PageLoadTimeout)
		defer chrome.Close()
		renderer = chrome
		slog.Info("Headless Chrome rendering enabled", "max_browsers", cfg.MaxBrowsers)
	}

	contentFetcher := content.NewDispatcher(map[entity.SourceType]content.SourceFetcher{
		entity.SourceYouTube:   youtube.NewFetcher(httpClient, youtube.NewDataAPI(httpClient, cfg.YouTubeAPIKey)),
		entity.SourceTikTok:    ytdlpRunner,
		entity.SourceInstagram: ytdlpRunner,
		entity.SourceWeb:       webpage.NewFetcher(renderer),
	})

	transcriber := whisper.NewTranscriber(cfg.OpenAIAPIKey, cfg.WhisperModel, ytdlpRunner, cfg.TranscriptionTimeout)
	if !transcriber.Available() {
		slog.Warn("OPENAI_API_KEY not set, audio transcription disabled")
	}

	llmClient := llm.NewClient(cfg.LLMAPIBase, cfg.LLMKey(), cfg.LLMModel, cfg.LLMMaxTokens, cfg.LLMTemperature, cfg.LLMTimeout)

	// --- Use Cases ---
	extractor := usecase.NewStructuredExtractor(llmClient, cfg.LLMTemperature, usecase.DefaultRetryPolicy(), cfg.DefaultLocale)
	orchestrator := usecase.NewExtractionOrchestrator(usecase.OrchestratorDeps{
		Recipes:       recipeRepo,
		Jobs:          jobRepo,
		Metadata:      oembed.NewClient(oembed.DefaultEndpoints(), cfg.IGOEmbedToken, cfg.FetchTimeout),
		Content:       contentFetcher,
		Transcriber:   transcriber,
		Extractor:     extractor,
		ProgressLog:   progressLog,
		SharedLock:    sharedLock,
		LockTTL:       cfg.LockTTL,
		DefaultLocale: cfg.DefaultLocale,
	})
	jobStatus := usecase.NewJobStatusReader(jobRepo, progressLog)
	recipeService := usecase.NewRecipeService(recipeRepo, progressLog)

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(orchestrator, jobStatus, recipeService, checks...)
	httpRouter := router.New(apiHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		slog.Error("Could not listen on port", "port", cfg.ServerPort, "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	// --- Graceful Shutdown ---
	slog.Info("Shutdown signal received, draining", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}
	if err := orchestrator.Wait(shutdownCtx); err != nil {
		slog.Warn("In-flight extractions did not finish before shutdown", "error", err)
	}
	slog.Info("Server stopped")
}
