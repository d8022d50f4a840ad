package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/venueqa/venueqa/internal/bootstrap"
	"github.com/venueqa/venueqa/internal/config"
	"github.com/venueqa/venueqa/internal/domain"
	logpkg "github.com/venueqa/venueqa/internal/logger"
	"github.com/venueqa/venueqa/internal/metrics"
	contentrepo "github.com/venueqa/venueqa/internal/repository/content"
	chiTransport "github.com/venueqa/venueqa/internal/transport/chi"
	"github.com/venueqa/venueqa/internal/transport/ollama"
	openaiTransport "github.com/venueqa/venueqa/internal/transport/openai"
	"github.com/venueqa/venueqa/internal/transport/sources"
	answeruc "github.com/venueqa/venueqa/internal/usecase/answer"
	healthuc "github.com/venueqa/venueqa/internal/usecase/health"
	ingestuc "github.com/venueqa/venueqa/internal/usecase/ingest"
	retrievaluc "github.com/venueqa/venueqa/internal/usecase/retrieval"
	"github.com/venueqa/venueqa/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting venueqa API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := bootstrap.Store(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterCompletionMetrics()
	metrics.RegisterIngestMetrics()

	// Embedders: raw batch embedder for ingestion, cached one for queries
	docEmbedder := bootstrap.Embedder(cfg.Embedding, logger)
	queryEmbedder := bootstrap.QueryEmbedder(cfg.Embedding, store, logger)
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache),
	)

	repo := contentrepo.New(store)

	fetcher := sources.New(&sources.Config{
		ConferenceURL: cfg.Sources.ConferenceURL,
		JournalURL:    cfg.Sources.JournalURL,
		Timeout:       time.Duration(cfg.Sources.TimeoutSec) * time.Second,
		Logger:        logger,
	})

	ingestSvc := ingestuc.New(fetcher, repo, docEmbedder, ingestuc.Config{
		BatchSize:     cfg.Ingest.BatchSize,
		Workers:       cfg.Ingest.Workers,
		FetchAttempts: cfg.Ingest.FetchAttempts,
		FetchBackoff:  time.Duration(cfg.Ingest.FetchBackoffSec) * time.Second,
		Force:         cfg.Ingest.Force,
	}, logger)

	resolver := retrievaluc.NewResolver(cfg.Retrieval.IndexName)
	retrievalSvc := retrievaluc.New(repo, queryEmbedder, resolver, logger)
	if cfg.Retrieval.VectorOnly {
		retrievalSvc = retrievalSvc.WithVectorOnly()
	}

	providers := buildProviders(cfg.Completion, logger)
	providerNames := make([]string, len(providers))
	for i, p := range providers {
		providerNames[i] = p.Name()
	}
	logger.Info("Completion provider chain", zap.Strings("providers", providerNames))

	answerSvc := answeruc.New(retrievalSvc, providers, logger)
	healthSvc := healthuc.New(store, docEmbedder, providerNames)

	server := chiTransport.NewServer(answerSvc, retrievalSvc, ingestSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	// Ingestion: optional run at boot plus a fixed-interval schedule.
	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	if cfg.Ingest.OnBoot {
		go runIngestion(schedulerCtx, ingestSvc, logger)
	}
	if cfg.Ingest.IntervalHours > 0 {
		go scheduleIngestion(
			schedulerCtx, ingestSvc, time.Duration(cfg.Ingest.IntervalHours)*time.Hour, logger,
		)
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildProviders assembles the ordered completion chain from config.
func buildProviders(cfg config.CompletionConfig, logger *zap.Logger) []domain.CompletionProvider {
	providers := make([]domain.CompletionProvider, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		timeout := time.Duration(pc.TimeoutSec) * time.Second
		switch pc.Kind {
		case "ollama":
			providers = append(providers, ollama.New(&ollama.Config{
				BaseURL: pc.BaseURL,
				Model:   pc.Model,
				Timeout: timeout,
				Logger:  logger,
			}))
		default: // openai-compatible
			providers = append(providers, openaiTransport.NewChatProvider(&openaiTransport.ChatConfig{
				Name:    pc.Name,
				APIKey:  pc.APIKey,
				BaseURL: pc.BaseURL,
				Model:   pc.Model,
				Timeout: timeout,
				Logger:  logger,
			}))
		}
	}
	return providers
}

func runIngestion(ctx context.Context, svc *ingestuc.Service, logger *zap.Logger) {
	reports, err := svc.RunAll(ctx)
	if err != nil {
		logger.Error("Ingestion run failed", zap.Error(err))
	}
	for _, rep := range reports {
		logger.Info("Ingestion report",
			zap.String("entity", string(rep.Entity)),
			zap.Int("fetched", rep.Fetched),
			zap.Int("skipped", rep.Skipped),
			zap.Int("upserted", rep.Upserted),
			zap.Int("failed", rep.Failed),
		)
	}
}

func scheduleIngestion(
	ctx context.Context, svc *ingestuc.Service, interval time.Duration, logger *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runIngestion(ctx, svc, logger)
		}
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
