// Package apihttp exposes a small read-mostly HTTP API over the ledger,
// the trade log and the risk decision trail, plus an evaluation endpoint
// for ad-hoc "should I take this trade" questions.
package apihttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tradeguard/internal/ledger"
	"tradeguard/internal/logger"
	"tradeguard/internal/risk"
	"tradeguard/internal/store/gormstore"

	"github.com/gin-gonic/gin"
)

type Server struct {
	addr   string
	router *gin.Engine
}

type ServerConfig struct {
	Addr      string
	Store     *gormstore.Store
	Ledger    *ledger.Ledger
	Evaluator *risk.Evaluator
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil || cfg.Ledger == nil || cfg.Evaluator == nil {
		return nil, errors.New("api server requires store, ledger and evaluator")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9985"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handlers{store: cfg.Store, ledger: cfg.Ledger, evaluator: cfg.Evaluator}
	api := router.Group("/api")
	{
		api.GET("/portfolio/latest", h.latestSnapshot)
		api.GET("/portfolio/trades", h.inferredTrades)
		api.GET("/risk/summary", h.riskSummary)
		api.GET("/risk/decisions", h.riskDecisions)
		api.POST("/risk/evaluate", h.evaluate)
	}

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("api: listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("api: %s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Truncate(time.Millisecond))
	}
}
