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

	"github.com/draftmill-io/draftmill/internal/cache"
	"github.com/draftmill-io/draftmill/internal/collab"
	"github.com/draftmill-io/draftmill/internal/config"
	dbRedis "github.com/draftmill-io/draftmill/internal/db/redis"
	"github.com/draftmill-io/draftmill/internal/domain"
	logpkg "github.com/draftmill-io/draftmill/internal/logger"
	"github.com/draftmill-io/draftmill/internal/metrics"
	"github.com/draftmill-io/draftmill/internal/ratelimit"
	"github.com/draftmill-io/draftmill/internal/repository/embcache"
	"github.com/draftmill-io/draftmill/internal/repository/knowledge"
	chiTransport "github.com/draftmill-io/draftmill/internal/transport/chi"
	openaiEmb "github.com/draftmill-io/draftmill/internal/transport/openai"
	healthuc "github.com/draftmill-io/draftmill/internal/usecase/health"
	retrievaluc "github.com/draftmill-io/draftmill/internal/usecase/retrieval"
	workflowuc "github.com/draftmill-io/draftmill/internal/usecase/workflow"
	"github.com/draftmill-io/draftmill/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting draftmill API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create corpus store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Corpus store not ready", zap.Error(err))
	}
	logger.Info("Connected to corpus store")

	metrics.RegisterCollectors()

	// Embedder powers the specialized strategy; without it that section
	// falls back to text search.
	var embedder domain.Embedder
	var embHealth healthuc.EmbeddingChecker
	if cfg.Embedding.Provider != "" {
		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
		embHealth = base

		embedder = embcache.New(base, store, cfg.Database.KeyPrefix, logger)
		if cfg.Embedding.QueryInstruction != "" {
			embedder = domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction)
		}
		logger.Info("Embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	}

	corpus := knowledge.New(store, cfg.Database.KeyPrefix, embedder, cfg.Embedding.Dimensions, logger)
	if err := corpus.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to create corpus indexes", zap.Error(err))
	}

	sources := make([]retrievaluc.Source, 0, 3)
	for _, src := range corpus.Sources() {
		sources = append(sources, src)
	}

	tracker := metrics.NewTracker()
	limiter := ratelimit.New(
		cfg.Retrieval.RateLimit.MaxRequests,
		time.Duration(cfg.Retrieval.RateLimit.WindowSec)*time.Second,
	)

	retrievalSvc := retrievaluc.New(sources, cache.New(), limiter, tracker,
		retrievaluc.Config{
			MaxConcurrentRequests: int64(cfg.Retrieval.MaxConcurrentRequests),
			StrategyTimeout:       time.Duration(cfg.Retrieval.StrategyTimeoutSec) * time.Second,
		}, logger)

	workflowSvc, err := workflowuc.New(
		collab.TemplatePlanner{},
		collab.SimulatedDelegator{},
		collab.MarkdownIntegrator{},
		collab.HeuristicScorer{},
		retrievalSvc,
		nil,
		tracker,
		workflowuc.Config{
			TaskTimeout:      time.Duration(cfg.Workflow.TaskTimeoutSec) * time.Second,
			QualityThreshold: cfg.Workflow.QualityThreshold,
		},
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to create workflow service", zap.Error(err))
	}

	healthSvc := healthuc.New(store, embHealth)

	server := chiTransport.NewServer(retrievalSvc, workflowSvc, healthSvc, tracker, logger).
		WithSearchDefaults(chiTransport.SearchDefaults{
			Threshold: cfg.Retrieval.RelevanceThreshold,
			TTL:       time.Duration(cfg.Retrieval.CacheTTLSec) * time.Second,
		})

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

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
