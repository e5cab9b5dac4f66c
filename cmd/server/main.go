package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/vetddx/internal/analysis"
	"github.com/Skufu/vetddx/internal/api"
	"github.com/Skufu/vetddx/internal/config"
	"github.com/Skufu/vetddx/internal/gateway"
	"github.com/Skufu/vetddx/internal/logging"
	"github.com/Skufu/vetddx/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	gin.SetMode(cfg.GinMode)

	logger, err := logging.New(cfg.LogLevel, cfg.GinMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("store setup failed", zap.Error(err))
	}
	defer closeStore()

	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set; gemini calls will fail")
	}
	if cfg.OpenRouterAPIKey == "" {
		logger.Warn("OPENROUTER_API_KEY not set; mimo calls will fail")
	}

	router := api.NewRouter(api.Options{
		Gateway:         gateway.FromConfig(cfg, logger),
		Store:           store,
		Normalizer:      analysis.NewNormalizer(cfg.Tuning),
		Logger:          logger,
		UpstreamTimeout: cfg.UpstreamTimeout,
		MaxBodyBytes:    cfg.MaxBodyBytes,
	})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("server listening", zap.String("port", cfg.Port), zap.Bool("db", cfg.EnableDB))
	waitForShutdown(server, logger)
}

// openStore returns Postgres when ENABLE_DB is set and the in-memory history
// otherwise. The returned func releases the store.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, func(), error) {
	if !cfg.EnableDB {
		mem, err := storage.NewMemoryStore(cfg.HistorySize)
		if err != nil {
			return nil, nil, err
		}
		return mem, func() {}, nil
	}

	pg, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

func waitForShutdown(server *http.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
