package process

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/agentcore/pkg/blackboard"
	"github.com/codeready-toolchain/agentcore/pkg/events"
	"github.com/codeready-toolchain/agentcore/pkg/model"
)

// DefaultBinding is the blackboard binding name under which Autonomy seeds
// the user's input object.
const DefaultBinding = "userInput"

// HistoryEntry records one executed action.
type HistoryEntry struct {
	ActionName string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string // "value", "binding", "awaitable", "error"
	Error      string
}

// AgentProcess is a running execution of an Agent: its own blackboard,
// status, action history, and accumulated usage. The plan/act loop is
// strictly sequential; accessors are safe to call from other goroutines
// (the HTTP API polls status while a worker drives the loop).
type AgentProcess struct {
	id    string
	agent model.Agent
	opts  Options
	bus   *events.Bus
	tools model.ToolMediator

	mu         sync.Mutex
	status     Status
	bb         *blackboard.Blackboard
	history    []HistoryEntry
	usage      events.TokenUsage
	cost       float64
	actionsRun int
	failure    *FailureInfo
	pending    model.Awaitable
	result     any
	executed   map[string]bool // canRerun=false actions already run
	chosenGoal *model.Goal     // locked after first plan unless AllowGoalChange

	cancelRequested bool
	cancelRun       context.CancelFunc

	createdAt time.Time
	startedAt time.Time
}

// New creates a CREATED process for agent, seeding the blackboard with
// opts.InitialBindings. bus and tools may be nil for agents that emit no
// events and call no models.
func New(agent model.Agent, opts Options, bus *events.Bus, tools model.ToolMediator) *AgentProcess {
	p := &AgentProcess{
		id:        uuid.NewString(),
		agent:     agent,
		opts:      opts,
		bus:       bus,
		tools:     tools,
		status:    Created,
		bb:        blackboard.New(),
		executed:  make(map[string]bool),
		createdAt: time.Now(),
	}
	for name, obj := range opts.InitialBindings {
		p.bb.Bind(name, obj)
	}
	p.publish(events.TypeProcessCreated, events.ProcessCreatedPayload{AgentName: agent.Name()})
	return p
}

// ID returns the process's unique identifier.
func (p *AgentProcess) ID() string { return p.id }

// Agent returns the agent this process executes.
func (p *AgentProcess) Agent() model.Agent { return p.agent }

// Options returns the process options.
func (p *AgentProcess) Options() Options { return p.opts }

// Status returns the current lifecycle status.
func (p *AgentProcess) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Blackboard returns the process's live blackboard. Only the executing
// worker may mutate it; other goroutines should use Snapshot.
func (p *AgentProcess) Blackboard() *blackboard.Blackboard { return p.bb }

// History returns a copy of the executed-action history, oldest first.
func (p *AgentProcess) History() []HistoryEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]HistoryEntry(nil), p.history...)
}

// Usage returns accumulated token usage and cost.
func (p *AgentProcess) Usage() (events.TokenUsage, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.usage, p.cost
}

// FailureInfo returns why the process FAILED, or nil.
func (p *AgentProcess) FailureInfo() *FailureInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failure
}

// PendingAwaitable returns the awaitable a WAITING process is suspended
// on, or nil.
func (p *AgentProcess) PendingAwaitable() model.Awaitable {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Result returns the object that satisfied the winning goal, for a
// COMPLETED process.
func (p *AgentProcess) Result() (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != Completed {
		return nil, false
	}
	return p.result, p.result != nil
}

// ResultAs returns the last blackboard object assignable to T from a
// COMPLETED process — the typed flavor of Result for invocation helpers.
func ResultAs[T any](p *AgentProcess) (T, bool) {
	var zero T
	if p.Status() != Completed {
		return zero, false
	}
	return blackboard.LastOfType[T](p.bb)
}

// BindTools attaches the process-bound mediator. Must happen before Run;
// the platform wires this after it knows the process ID (the mediator's
// usage attribution and event routing need it).
func (p *AgentProcess) BindTools(tools model.ToolMediator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == Created {
		p.tools = tools
	}
}

// Cancel requests termination. The run loop observes the request at its
// next iteration; an in-flight action sees its context cancelled.
func (p *AgentProcess) Cancel() {
	p.mu.Lock()
	p.cancelRequested = true
	cancel := p.cancelRun
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// AddUsage attributes token usage and cost to this process. Wired into
// the mediator's ProcessContext.
func (p *AgentProcess) AddUsage(usage events.TokenUsage, cost float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.usage.InputTokens += usage.InputTokens
	p.usage.OutputTokens += usage.OutputTokens
	p.usage.TotalTokens += usage.TotalTokens
	p.cost += cost
}

// CheckBudget returns a *TerminatedError when any budget dimension is
// exhausted. Consulted between actions and before each LLM call.
func (p *AgentProcess) CheckBudget() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.opts.Budget.Exceeded(p.actionsRun, p.usage.TotalTokens, p.cost) {
		return &TerminatedError{ProcessID: p.id, Reason: "budget exhausted"}
	}
	return nil
}

func (p *AgentProcess) setStatus(s Status) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}

func (p *AgentProcess) publish(eventType string, payload any) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(events.ProcessChannel(p.id), events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ProcessID: p.id,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// typeNameOf returns the unqualified type name used to match blackboard
// objects against Goal.SatisfiedByType / Action.OutputType tags. Pointers
// are dereferenced so *Writeup and Writeup both read as "Writeup".
func typeNameOf(obj any) string {
	t := reflect.TypeOf(obj)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
