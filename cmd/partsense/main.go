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
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/mecanice/partsense/internal/config"
	dbPostgres "github.com/mecanice/partsense/internal/db/postgres"
	dbRedis "github.com/mecanice/partsense/internal/db/redis"
	"github.com/mecanice/partsense/internal/domain"
	logpkg "github.com/mecanice/partsense/internal/logger"
	"github.com/mecanice/partsense/internal/metrics"
	"github.com/mecanice/partsense/internal/repository/chunkstore"
	"github.com/mecanice/partsense/internal/repository/embcache"
	mechanicrepo "github.com/mecanice/partsense/internal/repository/mechanic"
	chiTransport "github.com/mecanice/partsense/internal/transport/chi"
	openaiTransport "github.com/mecanice/partsense/internal/transport/openai"
	healthuc "github.com/mecanice/partsense/internal/usecase/health"
	mechanicuc "github.com/mecanice/partsense/internal/usecase/mechanic"
	recommenduc "github.com/mecanice/partsense/internal/usecase/recommend"
	retrieveuc "github.com/mecanice/partsense/internal/usecase/retrieve"
	"github.com/mecanice/partsense/internal/version"
)

// vectorStore is the composition-root view of a chunk store driver.
type vectorStore interface {
	retrieveuc.Store
	Ping(ctx context.Context) error
	Close()
}

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

	logger.Info("Starting partsense API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("vector_store", cfg.VectorStore.Driver),
	)

	ctx := context.Background()

	pool, err := dbPostgres.Connect(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := dbPostgres.RunMigrations(cfg.Database.DSN, cfg.Database.MigrationsDir, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterPipelineMetrics()

	embedder, embHealth, err := buildEmbedder(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	store, err := buildVectorStore(ctx, cfg, pool, logger)
	if err != nil {
		logger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer store.Close()

	retrieveSvc := retrieveuc.New(embedder, store, cfg.RAG.TopK, cfg.RAG.MaxChunksInPrompt)
	recommendSvc := recommenduc.New(
		retrieveSvc,
		recommenduc.NewGenerator(openaiTransport.NewChatClient(&openaiTransport.ChatConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: time.Duration(cfg.LLM.TimeoutSec) * time.Second,
			Logger:  logger,
		})),
		recommenduc.NewPromptBuilder(cfg.RAG.MaxChunksInPrompt),
		recommenduc.NewTTLCache(time.Duration(cfg.Cache.TTLSec)*time.Second),
		logger,
	)
	mechanicSvc := mechanicuc.New(mechanicrepo.New(pool))
	healthSvc := healthuc.New(store, embHealth)

	server := chiTransport.NewServer(recommendSvc, mechanicSvc, healthSvc, cfg.Auth.AdminToken, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the embedder chain: provider -> optional redis cache.
// The health checker reflects the raw provider, not the cache.
func buildEmbedder(ctx context.Context, cfg config.Config, logger *zap.Logger) (domain.Embedder, healthuc.EmbeddingChecker, error) {
	var base domain.Embedder
	var health healthuc.EmbeddingChecker

	switch cfg.Embedding.Provider {
	case "openai_compatible":
		emb := openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:   cfg.Embedding.APIKey,
			BaseURL:  cfg.Embedding.BaseURL,
			Model:    cfg.Embedding.Model,
			Timeout:  time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
			Provider: cfg.Embedding.Provider,
			Logger:   logger,
		})
		base = emb
		health = emb
	case "deterministic":
		base = domain.NewHashEmbedder(cfg.Embedding.Dimensions)
	default:
		return nil, nil, fmt.Errorf("unknown embedding provider %q: %w", cfg.Embedding.Provider, domain.ErrInvalidConfig)
	}

	if len(cfg.Redis.Addrs) == 0 {
		return base, health, nil
	}

	kv, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Redis.Addrs,
		Password: cfg.Redis.Password,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create redis store: %w", err)
	}
	if err := kv.WaitForReady(ctx, 10*time.Second); err != nil {
		return nil, nil, fmt.Errorf("redis not ready: %w", err)
	}
	logger.Info("Embedding cache enabled", zap.Strings("addrs", cfg.Redis.Addrs))

	return embcache.New(base, kv, metrics.EmbeddingCacheTotal, logger), health, nil
}

// buildVectorStore selects the chunk store driver.
func buildVectorStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger) (vectorStore, error) {
	switch cfg.VectorStore.Driver {
	case "pgvector":
		return chunkstore.NewPGStore(pool), nil
	case "qdrant":
		client, err := qdrant.NewClient(&qdrant.Config{
			Host:   cfg.VectorStore.Qdrant.Host,
			Port:   cfg.VectorStore.Qdrant.Port,
			APIKey: cfg.VectorStore.Qdrant.APIKey,
			UseTLS: cfg.VectorStore.Qdrant.UseTLS,
		})
		if err != nil {
			return nil, fmt.Errorf("create qdrant client: %w", err)
		}
		store := chunkstore.NewQdrantStore(client, cfg.VectorStore.Qdrant.Collection)
		if err := store.EnsureCollection(ctx, uint64(cfg.Embedding.Dimensions)); err != nil {
			return nil, err
		}
		logger.Info("Qdrant collection ready", zap.String("collection", cfg.VectorStore.Qdrant.Collection))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown vector store driver %q: %w", cfg.VectorStore.Driver, domain.ErrInvalidConfig)
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
