// Package platform is the façade over the runtime (C9): the registry of
// agents and tool groups, the factory of processes, and the worker pool
// that drives them.
package platform

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codeready-toolchain/agentcore/pkg/events"
	"github.com/codeready-toolchain/agentcore/pkg/llmtool"
	"github.com/codeready-toolchain/agentcore/pkg/model"
	"github.com/codeready-toolchain/agentcore/pkg/process"
)

// ToolGroup names a set of MCP servers an action's tool-group role
// resolves to.
type ToolGroup struct {
	Name        string
	Description string
	ServerIDs   []string
}

// ToolExecutorFactory builds a per-process ToolExecutor over the given
// MCP servers. pkg/mcp's ClientFactory implements this; tests use stubs.
type ToolExecutorFactory interface {
	CreateToolExecutor(ctx context.Context, serverIDs []string) (llmtool.ToolExecutor, error)
}

// registrySnapshot is the immutable registry state. Registration replaces
// the snapshot atomically so concurrent readers never lock — writes
// happen at startup or through admin APIs, reads on every planning cycle.
type registrySnapshot struct {
	agents     map[string]model.Agent
	agentOrder []string
	toolGroups map[string]ToolGroup
}

func emptySnapshot() *registrySnapshot {
	return &registrySnapshot{
		agents:     map[string]model.Agent{},
		toolGroups: map[string]ToolGroup{},
	}
}

// EventStore receives every event a managed process emits, when
// configured. pkg/processstore implements this.
type EventStore interface {
	Append(ctx context.Context, ev events.Event) error
}

// Platform holds the shared runtime: registries, the event bus, the model
// provider, and the set of in-flight processes.
type Platform struct {
	registry atomic.Pointer[registrySnapshot]
	regMu    sync.Mutex // serializes writers; readers go through the snapshot

	llm         llmtool.LLMClient
	toolFactory ToolExecutorFactory
	bus         *events.Bus
	store       EventStore

	mu        sync.RWMutex
	processes map[string]*managedProcess
}

type managedProcess struct {
	proc     *process.AgentProcess
	toolExec llmtool.ToolExecutor
	storeSub *events.Subscription
}

// Option customizes a Platform.
type Option func(*Platform)

// WithToolExecutorFactory wires live tool execution (e.g. MCP).
func WithToolExecutorFactory(f ToolExecutorFactory) Option {
	return func(p *Platform) { p.toolFactory = f }
}

// WithEventStore persists every process event to store.
func WithEventStore(store EventStore) Option {
	return func(p *Platform) { p.store = store }
}

// New creates a Platform over the given LLM client and event bus. bus may
// be nil when nothing subscribes.
func New(llm llmtool.LLMClient, bus *events.Bus, opts ...Option) *Platform {
	p := &Platform{
		llm:       llm,
		bus:       bus,
		processes: make(map[string]*managedProcess),
	}
	p.registry.Store(emptySnapshot())
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Bus returns the platform's event bus.
func (p *Platform) Bus() *events.Bus { return p.bus }

// RegisterAgent adds (or replaces) an agent in the registry.
func (p *Platform) RegisterAgent(agent model.Agent) {
	p.regMu.Lock()
	defer p.regMu.Unlock()
	cur := p.registry.Load()
	next := &registrySnapshot{
		agents:     make(map[string]model.Agent, len(cur.agents)+1),
		agentOrder: cur.agentOrder,
		toolGroups: cur.toolGroups,
	}
	for k, v := range cur.agents {
		next.agents[k] = v
	}
	if _, exists := next.agents[agent.Name()]; !exists {
		next.agentOrder = append(append([]string(nil), cur.agentOrder...), agent.Name())
	}
	next.agents[agent.Name()] = agent
	p.registry.Store(next)
	slog.Info("agent registered", "agent", agent.Name())
}

// RegisterToolGroup adds (or replaces) a tool group.
func (p *Platform) RegisterToolGroup(tg ToolGroup) {
	p.regMu.Lock()
	defer p.regMu.Unlock()
	cur := p.registry.Load()
	next := &registrySnapshot{
		agents:     cur.agents,
		agentOrder: cur.agentOrder,
		toolGroups: make(map[string]ToolGroup, len(cur.toolGroups)+1),
	}
	for k, v := range cur.toolGroups {
		next.toolGroups[k] = v
	}
	next.toolGroups[tg.Name] = tg
	p.registry.Store(next)
	slog.Info("tool group registered", "tool_group", tg.Name, "servers", tg.ServerIDs)
}

// Agents returns registered agents in registration order.
func (p *Platform) Agents() []model.Agent {
	snap := p.registry.Load()
	out := make([]model.Agent, 0, len(snap.agentOrder))
	for _, name := range snap.agentOrder {
		out = append(out, snap.agents[name])
	}
	return out
}

// Agent returns the registered agent with the given name.
func (p *Platform) Agent(name string) (model.Agent, bool) {
	snap := p.registry.Load()
	agent, ok := snap.agents[name]
	return agent, ok
}

// ToolGroups returns the registered tool groups by name.
func (p *Platform) ToolGroups() map[string]ToolGroup {
	snap := p.registry.Load()
	out := make(map[string]ToolGroup, len(snap.toolGroups))
	for k, v := range snap.toolGroups {
		out[k] = v
	}
	return out
}

// CreateProcess instantiates a process for agent: wires its mediator
// (deterministic fake LLM when opts.Test is set), resolves the tool
// groups its actions require, and tracks it for lookup, resume, and
// cancellation.
func (p *Platform) CreateProcess(agent model.Agent, opts process.Options, initialBindings map[string]any) *process.AgentProcess {
	if len(initialBindings) > 0 {
		if opts.InitialBindings == nil {
			opts.InitialBindings = make(map[string]any, len(initialBindings))
		}
		for k, v := range initialBindings {
			opts.InitialBindings[k] = v
		}
	}
	if opts.AvailableToolGroups == nil {
		opts.AvailableToolGroups = p.availableToolGroups()
	}

	proc := process.New(agent, opts, p.bus, nil)

	toolExec := p.buildToolExecutor(agent, opts)
	llm := p.llm
	if opts.Test {
		llm = llmtool.NewFakeLLM()
	}
	mediator := llmtool.NewMediator(llm, toolExec, llmtool.ProcessContext{
		ProcessID:      proc.ID(),
		Bus:            p.bus,
		ShowPrompts:    opts.Verbosity.ShowPrompts || opts.Verbosity.Debug,
		ShowResponses:  opts.Verbosity.ShowLlmResponses || opts.Verbosity.Debug,
		AddUsage:       proc.AddUsage,
		CheckBudget:    proc.CheckBudget,
		ToolDelay:      time.Duration(opts.ToolDelayMs) * time.Millisecond,
		OperationDelay: time.Duration(opts.OperationDelayMs) * time.Millisecond,
	})
	proc.BindTools(mediator)

	managed := &managedProcess{proc: proc, toolExec: toolExec}
	if p.store != nil && p.bus != nil {
		managed.storeSub = p.bus.Subscribe(events.ProcessChannel(proc.ID()))
		go p.persistEvents(managed.storeSub)
	}

	p.mu.Lock()
	p.processes[proc.ID()] = managed
	p.mu.Unlock()

	return proc
}

// Process returns a tracked process by id.
func (p *Platform) Process(id string) (*process.AgentProcess, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	managed, ok := p.processes[id]
	if !ok {
		return nil, false
	}
	return managed.proc, true
}

// Processes returns all tracked processes.
func (p *Platform) Processes() []*process.AgentProcess {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*process.AgentProcess, 0, len(p.processes))
	for _, managed := range p.processes {
		out = append(out, managed.proc)
	}
	return out
}

// CancelProcess requests cancellation of a tracked process. Returns false
// when the id is unknown.
func (p *Platform) CancelProcess(id string) bool {
	proc, ok := p.Process(id)
	if !ok {
		return false
	}
	proc.Cancel()
	return true
}

// ResumeProcess applies response to a WAITING process and re-runs it to
// its next terminal or WAITING state.
func (p *Platform) ResumeProcess(ctx context.Context, id string, response any) (*process.AgentProcess, error) {
	proc, ok := p.Process(id)
	if !ok {
		return nil, fmt.Errorf("unknown process %q", id)
	}
	return proc, proc.Resume(ctx, response)
}

// Release drops a terminal process from tracking and closes its tool
// executor. Idempotent.
func (p *Platform) Release(id string) {
	p.mu.Lock()
	managed, ok := p.processes[id]
	delete(p.processes, id)
	p.mu.Unlock()
	if !ok {
		return
	}
	if managed.toolExec != nil {
		if err := managed.toolExec.Close(); err != nil {
			slog.Warn("failed to close tool executor", "process_id", id, "error", err)
		}
	}
	if managed.storeSub != nil {
		managed.storeSub.Close()
	}
}

// availableToolGroups reports the tool-group names the platform can
// actually satisfy; the planner excludes actions requiring anything else.
func (p *Platform) availableToolGroups() map[string]bool {
	snap := p.registry.Load()
	out := make(map[string]bool, len(snap.toolGroups))
	for name := range snap.toolGroups {
		out[name] = true
	}
	return out
}

// buildToolExecutor resolves the union of the agent's required tool groups
// to MCP servers and builds one executor for the process. Returns nil when
// the agent needs no tools or no factory is wired.
func (p *Platform) buildToolExecutor(agent model.Agent, opts process.Options) llmtool.ToolExecutor {
	snap := p.registry.Load()
	serverSet := map[string]bool{}
	var serverIDs []string
	for _, act := range agent.Actions() {
		for _, groupName := range act.ToolGroups {
			group, ok := snap.toolGroups[groupName]
			if !ok {
				continue
			}
			for _, id := range group.ServerIDs {
				if !serverSet[id] {
					serverSet[id] = true
					serverIDs = append(serverIDs, id)
				}
			}
		}
	}
	if len(serverIDs) == 0 {
		return nil
	}
	if p.toolFactory == nil || opts.Test {
		return llmtool.NewStubToolExecutor(nil)
	}

	exec, err := p.toolFactory.CreateToolExecutor(context.Background(), serverIDs)
	if err != nil {
		slog.Warn("failed to create tool executor, using stub",
			"agent", agent.Name(), "error", err)
		return llmtool.NewStubToolExecutor(nil)
	}
	return exec
}

// persistEvents copies a process's event stream into the configured
// store until the subscription closes.
func (p *Platform) persistEvents(sub *events.Subscription) {
	for ev := range sub.C {
		if err := p.store.Append(context.Background(), ev); err != nil {
			slog.Warn("failed to persist event", "event_type", ev.Type, "process_id", ev.ProcessID, "error", err)
		}
	}
}
