package layoutserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/coordinators"
	"github.com/astroviz/orrery/internal/pipeline"
	"github.com/astroviz/orrery/internal/viewmode"
	"github.com/astroviz/orrery/pkg/events"
)

func (s *Server) handleHealth(c *gin.Context) {
	result := s.deps.Health.CheckAll(c.Request.Context())
	status := http.StatusOK
	if !result.IsHealthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}

func (s *Server) handleListSystems(c *gin.Context) {
	ids, err := s.deps.Loader.ListSystems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"systems": ids})
}

// handleLayout is the renderer entry point: it loads the system, runs the
// pipeline synchronously and returns the per-object layout map.
func (s *Server) handleLayout(c *gin.Context) {
	mode, known := viewmode.Parse(c.DefaultQuery("mode", string(viewmode.DefaultMode)))
	if !known {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown view mode " + c.Query("mode")})
		return
	}
	paused := c.Query("paused") == "true"
	systemID := c.Param("id")

	system, err := s.deps.Loader.LoadSystem(c.Request.Context(), mode, systemID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if system == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "system not found"})
		return
	}

	result := s.deps.Orchestrator.Run(c.Request.Context(), pipeline.CalculationRequest{
		SystemID: system.ID,
		Objects:  system.Objects,
		Mode:     mode,
		Paused:   paused,
	}, uuid.NewString(), nil)

	switch result.Outcome {
	case pipeline.OutcomeCompleted:
		c.JSON(http.StatusOK, gin.H{
			"systemId": system.ID,
			"mode":     mode,
			"layout":   result.Layout,
			"warnings": result.Warnings,
			"cacheHit": result.CacheHit,
			"duration": result.Duration.Milliseconds(),
		})
	case pipeline.OutcomeCancelled, pipeline.OutcomeTimedOut:
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": result.Err.Error(), "outcome": result.Outcome})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Err.Error(), "outcome": result.Outcome})
	}
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.State.Snapshot())
}

func (s *Server) handleStatistics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"pipeline": s.deps.Orchestrator.Statistics(),
		"eventBus": s.deps.Bus.Statistics(),
		"healthy":  s.deps.Bus.Healthy(),
	})
}

func (s *Server) handleClearCache(c *gin.Context) {
	s.deps.Orchestrator.ClearCache()
	s.emit(c, events.New(events.CacheInvalidated, "api", coordinators.CacheInvalidation{Reason: "explicit cache clear"}))
	c.Status(http.StatusNoContent)
}

// handleViewModeEvent injects a view-mode-change request; the coordination
// layer decides whether it proceeds. 202 means accepted for processing, not
// that a transition started.
func (s *Server) handleViewModeEvent(c *gin.Context) {
	var req struct {
		SystemID string `json:"systemId" binding:"required"`
		Mode     string `json:"mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev := events.NewCorrelated(events.ViewModeChangeRequested, "api", uuid.NewString(), coordinators.ViewModeChangeRequest{
		SystemID: req.SystemID,
		Mode:     req.Mode,
	})
	s.emit(c, ev)
	c.JSON(http.StatusAccepted, gin.H{"correlationId": ev.CorrelationID})
}

func (s *Server) handleFocusEvent(c *gin.Context) {
	var req struct {
		ObjectID string `json:"objectId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev := events.NewCorrelated(events.ObjectFocusRequested, "api", uuid.NewString(), coordinators.FocusRequest{
		ObjectID: req.ObjectID,
	})
	s.emit(c, ev)
	c.JSON(http.StatusAccepted, gin.H{"correlationId": ev.CorrelationID})
}

func (s *Server) handleTimeControlEvent(c *gin.Context) {
	var req struct {
		Paused    *bool    `json:"paused"`
		TimeScale *float64 `json:"timeScale"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev := events.NewCorrelated(events.TimeControlChangeRequested, "api", uuid.NewString(), coordinators.TimeControlChangeRequest{
		Paused:    req.Paused,
		TimeScale: req.TimeScale,
		Reason:    "api",
	})
	s.emit(c, ev)
	c.JSON(http.StatusAccepted, gin.H{"correlationId": ev.CorrelationID})
}

func (s *Server) handleHoverEvent(c *gin.Context) {
	var req struct {
		ObjectID string `json:"objectId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.deps.State.SetHovered(req.ObjectID)
	s.emit(c, events.New(events.ObjectHoverChanged, "api", coordinators.HoverChanged{ObjectID: req.ObjectID}))
	c.Status(http.StatusAccepted)
}

func (s *Server) emit(c *gin.Context, ev events.Event) {
	if err := s.deps.Bus.Emit(c.Request.Context(), ev); err != nil {
		s.logger.Error("Failed to emit event from API",
			zap.String("eventType", string(ev.Type)),
			zap.Error(err))
	}
}
