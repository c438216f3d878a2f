package platform

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/agentcore/pkg/events"
	"github.com/codeready-toolchain/agentcore/pkg/llmtool"
	"github.com/codeready-toolchain/agentcore/pkg/model"
	"github.com/codeready-toolchain/agentcore/pkg/process"
	"github.com/codeready-toolchain/agentcore/pkg/worldstate"
)

type Writeup struct{ Text string }

func req(cond string) []model.ConditionRequirement {
	return []model.ConditionRequirement{{Condition: cond, Determination: worldstate.True}}
}

// writerAgent produces a Writeup from the seeded user input, optionally
// via an LLM call.
func writerAgent(name string, useLLM bool) model.Agent {
	exec := model.ExecutorFunc(func(ctx model.ActionContext) (model.Outcome, error) {
		text := "static writeup"
		if useLLM {
			generated, err := ctx.Tools.GenerateText(ctx.Context, "write a summary", "write-1")
			if err != nil {
				return model.Outcome{}, err
			}
			text = generated
		}
		return model.ValueOutcome(Writeup{Text: text}), nil
	})
	actions := []model.Action{{
		ActionName:    "write",
		Preconditions: req("userInputPresent"),
		Cost:          1,
		OutputType:    "Writeup",
		Executor:      exec,
	}}
	conditions := []worldstate.Condition{
		worldstate.ObjectOfTypePresent[model.UserInput]("userInputPresent"),
	}
	goal := model.Goal{GoalName: name + "-goal", SatisfiedByType: "Writeup"}
	return model.NewAgent(name, actions, conditions, []model.Goal{goal})
}

func defaultOptions() process.Options {
	return process.Options{
		Budget:          process.Budget{MaxActions: 10},
		InitialBindings: map[string]any{process.DefaultBinding: model.UserInput{Text: "hello"}},
	}
}

func TestRegisterAndListAgents(t *testing.T) {
	p := New(llmtool.NewFakeLLM(), nil)
	p.RegisterAgent(writerAgent("alpha", false))
	p.RegisterAgent(writerAgent("beta", false))

	agents := p.Agents()
	require.Len(t, agents, 2)
	assert.Equal(t, "alpha", agents[0].Name())
	assert.Equal(t, "beta", agents[1].Name())

	// Re-registering replaces without duplicating.
	p.RegisterAgent(writerAgent("alpha", true))
	assert.Len(t, p.Agents(), 2)

	_, ok := p.Agent("alpha")
	assert.True(t, ok)
	_, ok = p.Agent("missing")
	assert.False(t, ok)
}

func TestRegistrySafeForConcurrentReaders(t *testing.T) {
	p := New(llmtool.NewFakeLLM(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = p.Agents()
				_ = p.ToolGroups()
			}
		}()
	}
	for j := 0; j < 100; j++ {
		p.RegisterAgent(writerAgent("alpha", false))
		p.RegisterToolGroup(ToolGroup{Name: "search", ServerIDs: []string{"s1"}})
	}
	wg.Wait()
}

func TestCreateProcessAndRun(t *testing.T) {
	bus := events.NewBus(0)
	p := New(llmtool.NewFakeLLM(), bus)
	p.RegisterAgent(writerAgent("writer", false))

	agent, _ := p.Agent("writer")
	proc := p.CreateProcess(agent, defaultOptions(), nil)

	tracked, ok := p.Process(proc.ID())
	require.True(t, ok)
	assert.Same(t, proc, tracked)

	require.NoError(t, proc.Run(context.Background()))
	result, ok := process.ResultAs[Writeup](proc)
	require.True(t, ok)
	assert.Equal(t, "static writeup", result.Text)

	p.Release(proc.ID())
	_, ok = p.Process(proc.ID())
	assert.False(t, ok)
}

func TestTestModeUsesDeterministicLLM(t *testing.T) {
	// The platform LLM would fail the test if consulted: nil client.
	p := New(nil, nil)
	p.RegisterAgent(writerAgent("writer", true))

	opts := defaultOptions()
	opts.Test = true
	agent, _ := p.Agent("writer")
	proc := p.CreateProcess(agent, opts, nil)

	require.NoError(t, proc.Run(context.Background()))
	result, ok := process.ResultAs[Writeup](proc)
	require.True(t, ok)
	assert.Contains(t, result.Text, "fake response")
}

func TestActionsRequiringUnknownToolGroupsAreExcluded(t *testing.T) {
	agent := writerAgent("tooluser", false)
	agent.ActionList[0].ToolGroups = []string{"unregistered-group"}

	p := New(llmtool.NewFakeLLM(), nil)
	p.RegisterAgent(agent)

	proc := p.CreateProcess(agent, defaultOptions(), nil)
	err := proc.Run(context.Background())

	var stuck *process.StuckError
	require.ErrorAs(t, err, &stuck, "the only action needs a tool group the platform cannot satisfy")
}

func TestCancelProcess(t *testing.T) {
	p := New(llmtool.NewFakeLLM(), nil)
	assert.False(t, p.CancelProcess("nope"))

	agent := writerAgent("writer", false)
	p.RegisterAgent(agent)
	proc := p.CreateProcess(agent, defaultOptions(), nil)
	assert.True(t, p.CancelProcess(proc.ID()))
}

type capturingStore struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capturingStore) Append(_ context.Context, ev events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *capturingStore) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestEventStoreReceivesProcessEvents(t *testing.T) {
	bus := events.NewBus(0)
	store := &capturingStore{}
	p := New(llmtool.NewFakeLLM(), bus, WithEventStore(store))
	p.RegisterAgent(writerAgent("writer", false))

	agent, _ := p.Agent("writer")
	proc := p.CreateProcess(agent, defaultOptions(), nil)
	require.NoError(t, proc.Run(context.Background()))

	require.Eventually(t, func() bool { return store.count() >= 3 },
		time.Second, 5*time.Millisecond,
		"action and completion events should reach the store")
}

func TestWorkerPoolRunsSubmittedProcesses(t *testing.T) {
	p := New(llmtool.NewFakeLLM(), nil)
	p.RegisterAgent(writerAgent("writer", false))

	pool := NewWorkerPool(p, 2)
	pool.Start(context.Background())
	defer pool.Stop()

	agent, _ := p.Agent("writer")
	procs := make([]*process.AgentProcess, 0, 5)
	for i := 0; i < 5; i++ {
		proc := p.CreateProcess(agent, defaultOptions(), nil)
		require.NoError(t, pool.Submit(proc))
		procs = append(procs, proc)
	}

	require.Eventually(t, func() bool {
		for _, proc := range procs {
			if proc.Status() != process.Completed {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWorkerPoolRejectsAfterStop(t *testing.T) {
	p := New(llmtool.NewFakeLLM(), nil)
	pool := NewWorkerPool(p, 1)
	pool.Start(context.Background())
	pool.Stop()

	err := pool.Submit(process.New(writerAgent("writer", false), defaultOptions(), nil, nil))
	require.Error(t, err)
}

func TestInvokeFor(t *testing.T) {
	p := New(llmtool.NewFakeLLM(), nil)
	p.RegisterAgent(writerAgent("writer", false))

	result, err := InvokeFor[Writeup](context.Background(), p,
		process.Options{Budget: process.Budget{MaxActions: 10}},
		model.UserInput{Text: "write about Lynda"})
	require.NoError(t, err)
	assert.Equal(t, "static writeup", result.Text)
}

func TestInvokeForNoProducer(t *testing.T) {
	p := New(llmtool.NewFakeLLM(), nil)
	_, err := InvokeFor[Writeup](context.Background(), p, process.Options{}, model.UserInput{})
	require.Error(t, err)
}

func TestInvokeForAmbiguousProducer(t *testing.T) {
	p := New(llmtool.NewFakeLLM(), nil)
	p.RegisterAgent(writerAgent("writer-1", false))
	p.RegisterAgent(writerAgent("writer-2", false))

	_, err := InvokeFor[Writeup](context.Background(), p, process.Options{}, model.UserInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
}
