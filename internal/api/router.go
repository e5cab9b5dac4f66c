// Package api exposes the proxy, analysis and case-history endpoints over gin.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/vetddx/internal/analysis"
	"github.com/Skufu/vetddx/internal/export"
	"github.com/Skufu/vetddx/internal/gateway"
	"github.com/Skufu/vetddx/internal/logging"
	"github.com/Skufu/vetddx/internal/storage"
)

const (
	defaultMaxBodyBytes    = 1 << 20
	defaultUpstreamTimeout = 120 * time.Second
	defaultHistorySize     = 256
	maxListLimit           = 200
)

// Options configures NewRouter. Zero fields get defaults; a nil Gateway has no
// upstream clients, so every model call fails with a missing-credential error.
type Options struct {
	Gateway         *gateway.Gateway
	Store           storage.Store
	Normalizer      *analysis.Normalizer
	Logger          *zap.Logger
	UpstreamTimeout time.Duration
	MaxBodyBytes    int64
}

type handler struct {
	gateway         *gateway.Gateway
	store           storage.Store
	normalizer      *analysis.Normalizer
	exporter        *export.Exporter
	logger          *zap.Logger
	upstreamTimeout time.Duration
}

func NewRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Gateway == nil {
		opts.Gateway = gateway.New(opts.Logger, nil, nil)
	}
	if opts.Normalizer == nil {
		opts.Normalizer = analysis.NewNormalizer(analysis.DefaultTuning())
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.UpstreamTimeout <= 0 {
		opts.UpstreamTimeout = defaultUpstreamTimeout
	}
	if opts.Store == nil {
		opts.Store, _ = storage.NewMemoryStore(defaultHistorySize)
	}

	h := &handler{
		gateway:         opts.Gateway,
		store:           opts.Store,
		normalizer:      opts.Normalizer,
		exporter:        export.New(opts.Normalizer),
		logger:          opts.Logger,
		upstreamTimeout: opts.UpstreamTimeout,
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		logging.GinLogger(opts.Logger),
		gin.Recovery(),
		limitBodySize(opts.MaxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", h.ready)

	api := router.Group("/api")
	api.POST("/generate-differentials", h.generate)
	api.OPTIONS("/generate-differentials", preflight)
	api.POST("/analyze", h.analyze)
	api.OPTIONS("/analyze", preflight)

	api.POST("/cases", h.createCase)
	api.OPTIONS("/cases", preflight)
	api.GET("/cases", h.listCases)
	api.GET("/cases/:id", h.getCase)
	api.GET("/cases/:id/export.pdf", h.exportCase)

	return router
}

func preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h *handler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"store":  fmt.Sprintf("unhealthy: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": "ok"})
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// upstreamContext detaches from the client connection so an abandoned request
// does not cancel a call already issued upstream.
func (h *handler) upstreamContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.upstreamTimeout)
}
