package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/agentcore/pkg/autonomy"
	"github.com/codeready-toolchain/agentcore/pkg/process"
)

// handleAutonomyRun is the closed execution model: rank registered
// agents against the intent and run the winner.
func (s *Server) handleAutonomyRun(c *gin.Context) {
	var req AutonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	p, err := s.autonomy.ChooseAndRunAgent(c.Request.Context(), req.Intent, autonomyOptions(req))
	if p == nil {
		respondAutonomyError(c, err)
		return
	}
	respondRunOutcome(c, p, err)
}

// handleAutonomyAccomplish is the open execution model: rank the goals
// of the scope agent, synthesize a pruned single-goal agent, and run it.
// Approval is granted implicitly — interactive approval flows go through
// the suspend/resume mechanism instead of blocking an HTTP request.
func (s *Server) handleAutonomyAccomplish(c *gin.Context) {
	var req AutonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if req.Scope == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "scope is required"})
		return
	}
	scope, ok := s.platform.Agent(req.Scope)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("unknown scope agent %q", req.Scope)})
		return
	}

	p, err := s.autonomy.ChooseAndAccomplishGoal(c.Request.Context(), req.Intent, autonomyOptions(req), nil, scope)
	if p == nil {
		respondAutonomyError(c, err)
		return
	}
	respondRunOutcome(c, p, err)
}

func autonomyOptions(req AutonomyRequest) autonomy.Options {
	return autonomy.Options{
		GoalConfidenceCutOff:  req.GoalConfidenceCutOff,
		AgentConfidenceCutOff: req.AgentConfidenceCutOff,
		Process: process.Options{
			Budget: process.Budget{MaxActions: req.MaxActions},
			Test:   req.Test,
		},
	}
}
