package layoutserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/appstate"
	"github.com/astroviz/orrery/internal/pipeline"
	"github.com/astroviz/orrery/pkg/api"
	"github.com/astroviz/orrery/pkg/events"
	"github.com/astroviz/orrery/pkg/healthcheck"
)

// Dependencies are the engine components the server exposes.
type Dependencies struct {
	Loader       api.SystemLoader
	Orchestrator *pipeline.Orchestrator
	Bus          *events.Bus
	State        *appstate.State
	Health       *healthcheck.Engine
}

// Server is the HTTP surface of the layout engine.
type Server struct {
	config *Config
	deps   Dependencies
	logger *zap.Logger
	http   *http.Server
}

// NewServer creates the HTTP server. It must be started with Start.
func NewServer(config *Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &Server{
		config: config,
		deps:   deps,
		logger: logger.With(zap.String("component", "layout_server")),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggingMiddleware(s.logger))
	engine.Use(CORSMiddleware(config.CORS))

	engine.GET("/healthz", s.handleHealth)

	v1 := engine.Group("/api/v1", AuthMiddleware(config.Auth, s.logger))
	{
		v1.GET("/systems", s.handleListSystems)
		v1.GET("/systems/:id/layout", s.handleLayout)
		v1.GET("/state", s.handleState)
		v1.GET("/statistics", s.handleStatistics)
		v1.DELETE("/cache", s.handleClearCache)
		v1.POST("/events/view-mode", s.handleViewModeEvent)
		v1.POST("/events/focus", s.handleFocusEvent)
		v1.POST("/events/time-control", s.handleTimeControlEvent)
		v1.POST("/events/hover", s.handleHoverEvent)
	}

	s.http = &http.Server{
		Addr:    config.ListenAddress,
		Handler: engine,
	}
	return s, nil
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("Layout server listening", zap.String("address", s.config.ListenAddress))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop drains connections within the configured shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	s.logger.Info("Layout server shutting down")
	return s.http.Shutdown(shutdownCtx)
}
