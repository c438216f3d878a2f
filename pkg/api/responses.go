package api

import (
	"time"

	"github.com/codeready-toolchain/agentcore/pkg/events"
	"github.com/codeready-toolchain/agentcore/pkg/model"
	"github.com/codeready-toolchain/agentcore/pkg/process"
)

// AgentResponse describes one registered agent.
type AgentResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Actions     []string `json:"actions"`
	Goals       []string `json:"goals"`
}

// ProcessResponse is the API view of an AgentProcess.
type ProcessResponse struct {
	ID      string            `json:"id"`
	Agent   string            `json:"agent"`
	Status  string            `json:"status"`
	History []HistoryEntry    `json:"history"`
	Usage   events.TokenUsage `json:"usage"`
	Cost    float64           `json:"cost"`
	Failure string            `json:"failure,omitempty"`
	Pending *PendingAwaitable `json:"pending,omitempty"`
}

// HistoryEntry is one executed action in a ProcessResponse.
type HistoryEntry struct {
	ActionName string    `json:"action_name"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
}

// PendingAwaitable describes what a WAITING process is suspended on.
type PendingAwaitable struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

func agentResponse(agent model.Agent) AgentResponse {
	actions := make([]string, len(agent.Actions()))
	for i, act := range agent.Actions() {
		actions[i] = act.Name()
	}
	goals := make([]string, len(agent.Goals()))
	for i, g := range agent.Goals() {
		goals[i] = g.Name()
	}
	return AgentResponse{
		Name:        agent.Name(),
		Description: agent.Description(),
		Actions:     actions,
		Goals:       goals,
	}
}

func processResponse(p *process.AgentProcess) ProcessResponse {
	history := make([]HistoryEntry, 0, len(p.History()))
	for _, h := range p.History() {
		history = append(history, HistoryEntry{
			ActionName: h.ActionName,
			StartedAt:  h.StartedAt,
			FinishedAt: h.FinishedAt,
			Outcome:    h.Outcome,
			Error:      h.Error,
		})
	}

	usage, cost := p.Usage()
	resp := ProcessResponse{
		ID:      p.ID(),
		Agent:   p.Agent().Name(),
		Status:  p.Status().String(),
		History: history,
		Usage:   usage,
		Cost:    cost,
	}
	if failure := p.FailureInfo(); failure != nil {
		resp.Failure = failure.Error()
	}
	if pending := p.PendingAwaitable(); pending != nil {
		pa := &PendingAwaitable{ID: pending.ID(), Kind: pending.Kind()}
		if confirmation, ok := pending.(process.ConfirmationRequest); ok {
			pa.Message = confirmation.Message
		}
		resp.Pending = pa
	}
	return resp
}
