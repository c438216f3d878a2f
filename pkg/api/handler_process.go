package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/agentcore/pkg/events"
	"github.com/codeready-toolchain/agentcore/pkg/model"
	"github.com/codeready-toolchain/agentcore/pkg/process"
)

func (s *Server) handleListAgents(c *gin.Context) {
	agents := s.platform.Agents()
	out := make([]AgentResponse, len(agents))
	for i, agent := range agents {
		out[i] = agentResponse(agent)
	}
	c.JSON(http.StatusOK, gin.H{"agents": out})
}

// handleCreateProcess creates (and runs) a process for a registered
// agent. With ?async=true the process is queued on the worker pool and a
// 202 with its id is returned; otherwise the call blocks until the
// process reaches a terminal or WAITING status.
func (s *Server) handleCreateProcess(c *gin.Context) {
	name := c.Param("name")
	agent, ok := s.platform.Agent(name)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("unknown agent %q", name)})
		return
	}

	var req CreateProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	bindings := make(map[string]any, len(req.Bindings)+1)
	for k, v := range req.Bindings {
		bindings[k] = v
	}
	if req.Input != "" {
		bindings[process.DefaultBinding] = model.UserInput{Text: req.Input}
	}

	opts := process.Options{
		Budget: process.Budget{
			MaxActions: req.MaxActions,
			MaxTokens:  req.MaxTokens,
			MaxCost:    req.MaxCost,
		},
		Test: req.Test,
	}

	p := s.platform.CreateProcess(agent, opts, bindings)

	if c.Query("async") == "true" {
		if s.pool == nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "no worker pool configured"})
			return
		}
		if err := s.pool.Submit(p); err != nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"id": p.ID(), "status": p.Status().String()})
		return
	}

	err := p.Run(c.Request.Context())
	respondRunOutcome(c, p, err)
}

func (s *Server) handleListProcesses(c *gin.Context) {
	procs := s.platform.Processes()
	out := make([]ProcessResponse, len(procs))
	for i, p := range procs {
		out[i] = processResponse(p)
	}
	c.JSON(http.StatusOK, gin.H{"processes": out})
}

func (s *Server) handleGetProcess(c *gin.Context) {
	p, ok := s.platform.Process(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "process not found"})
		return
	}
	c.JSON(http.StatusOK, processResponse(p))
}

// handleProcessEvents returns the buffered event history for a process
// (the REST flavor of the WebSocket live tail).
func (s *Server) handleProcessEvents(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.platform.Process(id); !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "process not found"})
		return
	}
	bus := s.platform.Bus()
	if bus == nil {
		c.JSON(http.StatusOK, gin.H{"events": []events.Event{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": bus.Catchup(events.ProcessChannel(id))})
}

// handleResumeProcess applies an awaitable response to a WAITING process
// and drives it to its next terminal or WAITING status.
func (s *Server) handleResumeProcess(c *gin.Context) {
	id := c.Param("id")
	p, ok := s.platform.Process(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "process not found"})
		return
	}

	var req ResumeProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	pending := p.PendingAwaitable()
	if pending == nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "process is not waiting"})
		return
	}

	response, err := buildAwaitableResponse(pending, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	_, runErr := s.platform.ResumeProcess(c.Request.Context(), id, response)
	if runErr != nil && p.Status() == process.Waiting {
		// The awaitable rejected the response; the process is unchanged.
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: runErr.Error()})
		return
	}
	respondRunOutcome(c, p, runErr)
}

// buildAwaitableResponse maps the wire request to the typed response the
// pending awaitable expects.
func buildAwaitableResponse(pending model.Awaitable, req ResumeProcessRequest) (any, error) {
	switch pending.Kind() {
	case "confirmation":
		if req.Accepted == nil {
			return nil, fmt.Errorf("confirmation response requires \"accepted\"")
		}
		return process.ConfirmationResponse{
			RequestID: req.RequestID,
			Accepted:  *req.Accepted,
			Payload:   req.Payload,
		}, nil
	case "form":
		return process.FormResponse{
			RequestID: req.RequestID,
			Values:    req.Values,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported awaitable kind %q", pending.Kind())
	}
}

func (s *Server) handleCancelProcess(c *gin.Context) {
	id := c.Param("id")
	if !s.platform.CancelProcess(id) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "process not found"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": id, "status": "cancellation requested"})
}
