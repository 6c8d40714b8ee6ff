// Package server exposes the screening engine over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/clearwatch/clearwatch/internal/config"
	"github.com/clearwatch/clearwatch/internal/screening"
	"github.com/clearwatch/clearwatch/internal/watchlist"
)

// Server hosts the screening and watchlist HTTP API.
type Server struct {
	engine *screening.Engine
	store  watchlist.Store
	logger *zap.Logger
	http   *http.Server
}

// New builds the server and its route table.
func New(cfg config.ServerConfig, engine *screening.Engine, store watchlist.Store, logger *zap.Logger) *Server {
	s := &Server{
		engine: engine,
		store:  store,
		logger: logger,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(otelgin.Middleware("clearwatch"))
	router.Use(cors.Default())

	s.routes(router)

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/screenings", s.handleScreening)

		wl := v1.Group("/watchlist")
		{
			wl.PUT("/sources/:source", s.handleReplaceSource)
			wl.GET("/statistics", s.handleStatistics)
			wl.GET("/search", s.handleSearch)
		}
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}
