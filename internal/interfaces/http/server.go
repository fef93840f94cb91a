// Package http exposes the ops surface: health, monitor status, and the last
// observed catalog. It is not user-facing; the chat interface is.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stockwatch/backend/internal/application/monitor"
	"github.com/stockwatch/backend/internal/infrastructure/logger"
	"github.com/stockwatch/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// StatusProvider reports the monitor's current status.
type StatusProvider interface {
	Status() monitor.Status
}

// ProductSource lists the last observed catalog.
type ProductSource interface {
	FindAll(ctx context.Context) ([]persistence.Product, error)
}

// AlertCounter counts alerts recorded since a point in time.
type AlertCounter interface {
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping() error
}

// Server is the ops HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds the ops server and its routes.
func NewServer(addr string, status StatusProvider, products ProductSource, alerts AlertCounter, db Pinger, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(logger.GinMiddleware(log), logger.Recovery(log))

	h := &handlers{
		status:   status,
		products: products,
		alerts:   alerts,
		db:       db,
	}

	engine.GET("/healthz", h.health)
	api := engine.Group("/api/v1")
	api.GET("/status", h.monitorStatus)
	api.GET("/products", h.listProducts)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: log,
	}
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Info("ops http server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("ops http server failed", zap.Error(err))
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
