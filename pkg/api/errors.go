package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/agentcore/pkg/autonomy"
	"github.com/codeready-toolchain/agentcore/pkg/process"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// respondRunOutcome writes the process view for a completed Run or
// Resume call. Terminal variants are not HTTP errors — the process ran,
// its status says how it ended — but unexpected errors are 500s.
func respondRunOutcome(c *gin.Context, p *process.AgentProcess, err error) {
	var waiting *process.WaitingError
	switch {
	case err == nil, errors.As(err, &waiting), process.IsTerminalError(err):
		c.JSON(http.StatusOK, processResponse(p))
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

// respondAutonomyError maps the autonomy variant errors to responses.
func respondAutonomyError(c *gin.Context, err error) {
	var noAgent *autonomy.NoAgentFoundError
	var noGoal *autonomy.NoGoalFoundError
	var notApproved *autonomy.GoalNotApprovedError
	switch {
	case errors.As(err, &noAgent):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Kind: "no_agent_found"})
	case errors.As(err, &noGoal):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Kind: "no_goal_found"})
	case errors.As(err, &notApproved):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error(), Kind: "goal_not_approved"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
