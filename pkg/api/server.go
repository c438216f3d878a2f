// Package api is the HTTP façade over the platform: process creation and
// inspection, suspend/resume, autonomy entry points, and the WebSocket
// live-tail endpoint.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/agentcore/pkg/autonomy"
	"github.com/codeready-toolchain/agentcore/pkg/platform"
	"github.com/codeready-toolchain/agentcore/pkg/wsevents"
)

// Server wraps a gin engine with the platform routes.
type Server struct {
	engine    *gin.Engine
	platform  *platform.Platform
	autonomy  *autonomy.Autonomy
	pool      *platform.WorkerPool
	hub       *wsevents.Hub
	wsOrigins []string
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithAllowedWSOrigins sets the origin patterns accepted on the
// WebSocket endpoint. Empty means same-origin only.
func WithAllowedWSOrigins(patterns []string) ServerOption {
	return func(s *Server) { s.wsOrigins = patterns }
}

// NewServer builds the HTTP server. pool may be nil (async process
// creation then returns 503); hub may be nil (no WebSocket endpoint).
func NewServer(p *platform.Platform, auto *autonomy.Autonomy, pool *platform.WorkerPool, hub *wsevents.Hub, opts ...ServerOption) *Server {
	s := &Server{
		engine:   gin.New(),
		platform: p,
		autonomy: auto,
		pool:     pool,
		hub:      hub,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	v1 := s.engine.Group("/v1")
	{
		v1.GET("/agents", s.handleListAgents)
		v1.POST("/agents/:name/processes", s.handleCreateProcess)

		v1.GET("/processes", s.handleListProcesses)
		v1.GET("/processes/:id", s.handleGetProcess)
		v1.GET("/processes/:id/events", s.handleProcessEvents)
		v1.POST("/processes/:id/resume", s.handleResumeProcess)
		v1.POST("/processes/:id/cancel", s.handleCancelProcess)

		v1.POST("/autonomy/run", s.handleAutonomyRun)
		v1.POST("/autonomy/accomplish", s.handleAutonomyAccomplish)
	}

	if s.hub != nil {
		s.engine.GET("/ws", s.handleWebSocket)
	}
}

// Handler exposes the engine as an http.Handler for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Run starts the HTTP server on addr, blocking until it exits.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}
