// Package server implements the HTTP ingest host: other chat platforms push
// group messages and bot responses as JSON and they are published to the
// event bus like any other host's events.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/edgard/chatlogger/internal/config"
	"github.com/edgard/chatlogger/internal/event"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
	healthTimeout     = 2 * time.Second
	maxBodyBytes      = 1 << 20
)

var releaseMode sync.Once

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP ingest host.
type Server struct {
	httpSrv *http.Server
	logger  *slog.Logger
}

// New creates a server listening on cfg.ListenAddr.
func New(cfg config.HTTPConfig, publisher event.Publisher, pinger Pinger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log := logger.With("component", "http_server")

	return &Server{
		httpSrv: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           NewRouter(cfg, publisher, pinger, log),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		logger: log,
	}
}

// NewRouter builds the gin engine with every route and middleware.
func NewRouter(cfg config.HTTPConfig, publisher event.Publisher, pinger Pinger, logger *slog.Logger) *gin.Engine {
	releaseMode.Do(func() { gin.SetMode(gin.ReleaseMode) })
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/healthz", healthHandler(pinger))

	v1 := r.Group("/v1/events")
	if cfg.RateLimit > 0 {
		v1.Use(rateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)))
	}
	v1.Use(limitBody(maxBodyBytes))
	v1.POST("/group-message", groupMessageHandler(publisher, logger))
	v1.POST("/bot-response", botResponseHandler(publisher, logger))

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		s.logger.Info("HTTP ingest listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("HTTP ingest stopped")
	return nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.DebugContext(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"duration", time.Since(start))
	}
}

func rateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

func healthHandler(pinger Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if pinger == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "storage not initialized"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		if err := pinger.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
