package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/agentcore/pkg/blackboard"
	"github.com/codeready-toolchain/agentcore/pkg/events"
	"github.com/codeready-toolchain/agentcore/pkg/model"
	"github.com/codeready-toolchain/agentcore/pkg/planner"
	"github.com/codeready-toolchain/agentcore/pkg/worldstate"
)

// Run drives the plan/act/replan loop until the process reaches a
// terminal status or suspends on an Awaitable. It returns nil on
// COMPLETED; every other outcome is a typed variant (*FailedError,
// *StuckError, *TerminatedError, *WaitingError) so callers can switch on
// it without string matching.
//
// Run may be called once, on a CREATED process. Use Resume to continue a
// WAITING process.
func (p *AgentProcess) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.status != Created {
		status := p.status
		p.mu.Unlock()
		return fmt.Errorf("process %s cannot run from status %s", p.id, status)
	}
	p.status = Running
	p.startedAt = time.Now()
	p.mu.Unlock()

	return p.loop(ctx)
}

// RunAsync runs the process on its own goroutine and delivers Run's
// result on the returned channel.
func (p *AgentProcess) RunAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx)
	}()
	return done
}

// Resume applies response to the pending Awaitable and re-enters the
// plan/act loop. Only valid on a WAITING process. A response the
// awaitable rejects leaves the process WAITING and returns the rejection.
func (p *AgentProcess) Resume(ctx context.Context, response any) error {
	p.mu.Lock()
	if p.status != Waiting {
		status := p.status
		p.mu.Unlock()
		return fmt.Errorf("process %s cannot resume from status %s", p.id, status)
	}
	pending := p.pending
	p.mu.Unlock()

	if err := pending.HandleResponse(p.bb, response); err != nil {
		return fmt.Errorf("awaitable %s rejected response: %w", pending.ID(), err)
	}

	p.mu.Lock()
	p.pending = nil
	p.status = Running
	p.mu.Unlock()

	p.publish(events.TypeObjectAdded, events.ObjectAddedPayload{TypeName: typeNameOf(response)})
	return p.loop(ctx)
}

// loop is the core plan, act, replan state machine.
func (p *AgentProcess) loop(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.mu.Lock()
	p.cancelRun = cancel
	p.mu.Unlock()

	for {
		if err := p.checkTermination(ctx); err != nil {
			return err
		}

		snap := p.bb.Snapshot()
		ws, evalErrs := worldstate.Evaluate(p.agent.Conditions(), snap)
		for _, err := range evalErrs {
			slog.Warn("condition degraded to UNKNOWN", "process_id", p.id, "error", err)
		}
		ws = p.seedSyntheticConditions(ws, snap)

		if p.opts.Verbosity.ShowPlanning || p.opts.Verbosity.Debug {
			p.publish(events.TypeReadyToPlan, events.ReadyToPlanPayload{Conditions: conditionMap(ws)})
		}

		goals := p.planningGoals()
		plan, ok := planner.Plan(ws, p.agent.PlanningSystem(), goals, planner.Options{
			AvailableToolGroups: p.opts.AvailableToolGroups,
			AlreadyExecuted:     p.executedSet(),
		})
		if !ok {
			if goal, obj, satisfied := p.satisfiedGoal(ws, snap); satisfied {
				return p.complete(goal, obj)
			}
			return p.stuck()
		}

		p.lockGoal(plan.Goal)
		if p.opts.Verbosity.ShowPlanning || p.opts.Verbosity.Debug {
			p.publish(events.TypePlanFormulated, events.PlanFormulatedPayload{
				GoalName:    plan.Goal.Name(),
				ActionNames: plan.ActionNames(),
				TotalCost:   plan.TotalCost,
			})
		}

		action, _ := plan.Head()
		outcome, actionErr := p.runAction(ctx, action)
		if actionErr != nil {
			if ctx.Err() != nil || p.isCancelRequested() {
				return p.terminate("cancelled")
			}
			return p.fail(action, actionErr)
		}

		if p.opts.Budget.MaxActions > 0 {
			p.publish(events.TypeProgressUpdate, events.ProgressUpdatePayload{
				Label:   "actions",
				Current: p.actionCount(),
				Total:   p.opts.Budget.MaxActions,
			})
		}

		if outcome.IsAwaitable() {
			return p.suspend(outcome.Awaitable)
		}
		p.applyOutcome(outcome)

		snap = p.bb.Snapshot()
		ws, _ = worldstate.Evaluate(p.agent.Conditions(), snap)
		ws = p.seedSyntheticConditions(ws, snap)
		if goal, obj, satisfied := p.satisfiedGoal(ws, snap); satisfied {
			return p.complete(goal, obj)
		}
	}
}

// checkTermination applies the between-action termination tests: external
// cancellation, budget exhaustion, and the early-termination policy.
func (p *AgentProcess) checkTermination(ctx context.Context) error {
	if ctx.Err() != nil || p.isCancelRequested() {
		return p.terminate("cancelled")
	}
	if err := p.CheckBudget(); err != nil {
		return p.terminate("budget exhausted")
	}
	if p.opts.EarlyTerminationPolicy != nil && p.opts.EarlyTerminationPolicy(p) {
		return p.terminate("early termination policy")
	}
	return nil
}

// runAction executes one action, recording history and emitting
// action.start/action.finish around it.
func (p *AgentProcess) runAction(ctx context.Context, action model.Action) (model.Outcome, error) {
	p.publish(events.TypeActionStart, events.ActionStartPayload{ActionName: action.Name()})
	started := time.Now()

	outcome, err := action.Executor.Run(model.ActionContext{
		Context:    ctx,
		ProcessID:  p.id,
		Blackboard: p.bb,
		Tools:      p.tools,
	})
	finished := time.Now()

	entry := HistoryEntry{
		ActionName: action.Name(),
		StartedAt:  started,
		FinishedAt: finished,
	}
	finish := events.ActionFinishPayload{ActionName: action.Name()}
	switch {
	case err != nil:
		entry.Outcome = "error"
		entry.Error = err.Error()
		finish.Outcome = "error"
		finish.Error = err.Error()
	case outcome.IsAwaitable():
		entry.Outcome = "awaitable"
		finish.Outcome = "awaitable"
	case outcome.BindingName != "":
		entry.Outcome = "binding"
		finish.Outcome = "binding"
	default:
		entry.Outcome = "value"
		finish.Outcome = "value"
	}

	p.mu.Lock()
	p.history = append(p.history, entry)
	p.actionsRun++
	if !action.CanRerun {
		p.executed[action.Name()] = true
	}
	p.mu.Unlock()

	p.publish(events.TypeActionFinish, finish)
	return outcome, err
}

// applyOutcome writes a non-awaitable outcome to the blackboard.
func (p *AgentProcess) applyOutcome(outcome model.Outcome) {
	switch {
	case outcome.BindingName != "":
		p.bb.Bind(outcome.BindingName, outcome.BoundValue)
		p.publish(events.TypeObjectBound, events.ObjectBoundPayload{
			Name:     outcome.BindingName,
			TypeName: typeNameOf(outcome.BoundValue),
		})
	case outcome.Value != nil:
		p.bb.Append(outcome.Value)
		p.publish(events.TypeObjectAdded, events.ObjectAddedPayload{TypeName: typeNameOf(outcome.Value)})
	}
}

// seedSyntheticConditions overlays the "goal output observed" conditions
// onto ws from actual blackboard contents, so planning sees objects that
// already exist (including those seeded before the first action).
func (p *AgentProcess) seedSyntheticConditions(ws worldstate.WorldState, snap *blackboard.Snapshot) worldstate.WorldState {
	for _, g := range p.agent.Goals() {
		if g.SatisfiedByType == "" {
			continue
		}
		det := worldstate.False
		if objectOfTypePresent(snap, g.SatisfiedByType) {
			det = worldstate.True
		}
		ws = ws.With(g.SatisfiedCondition(), det)
	}
	return ws
}

// planningGoals restricts replanning to the locked goal unless the
// process allows goal changes mid-flight.
func (p *AgentProcess) planningGoals() []model.Goal {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.opts.AllowGoalChange && p.chosenGoal != nil {
		return []model.Goal{*p.chosenGoal}
	}
	return p.agent.Goals()
}

func (p *AgentProcess) lockGoal(g model.Goal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.chosenGoal == nil {
		goal := g
		p.chosenGoal = &goal
	}
}

// satisfiedGoal reports whether some goal is achieved: its preconditions
// are TRUE and, when SatisfiedByType is set, an object of that type is on
// the blackboard. Returns the goal and satisfying object.
func (p *AgentProcess) satisfiedGoal(ws worldstate.WorldState, snap *blackboard.Snapshot) (model.Goal, any, bool) {
	for _, g := range p.agent.Goals() {
		if !g.SatisfiedIn(ws) {
			continue
		}
		if g.SatisfiedByType == "" {
			return g, nil, true
		}
		if obj, ok := lastObjectOfType(snap, g.SatisfiedByType); ok {
			return g, obj, true
		}
	}
	return model.Goal{}, nil, false
}

func (p *AgentProcess) complete(goal model.Goal, obj any) error {
	p.mu.Lock()
	p.status = Completed
	p.result = obj
	started := p.startedAt
	p.mu.Unlock()

	p.publish(events.TypeProcessCompleted, events.ProcessCompletedPayload{
		DurationMs: time.Since(started).Milliseconds(),
	})
	slog.Info("process completed", "process_id", p.id, "goal", goal.Name())
	return nil
}

func (p *AgentProcess) stuck() error {
	p.setStatus(Stuck)
	err := &StuckError{ProcessID: p.id}
	p.publish(events.TypeProcessFailed, events.ProcessFailedPayload{Reason: err.Error()})
	return err
}

func (p *AgentProcess) fail(action model.Action, actionErr error) error {
	info := &FailureInfo{
		Reason: fmt.Sprintf("action %s failed", action.Name()),
		Err:    actionErr,
	}
	p.mu.Lock()
	p.status = Failed
	p.failure = info
	p.mu.Unlock()

	err := &FailedError{ProcessID: p.id, Detail: info}
	p.publish(events.TypeProcessFailed, events.ProcessFailedPayload{Reason: err.Error()})
	return err
}

func (p *AgentProcess) terminate(reason string) error {
	p.setStatus(Terminated)
	err := &TerminatedError{ProcessID: p.id, Reason: reason}
	p.publish(events.TypeProcessFailed, events.ProcessFailedPayload{Reason: err.Error()})
	return err
}

func (p *AgentProcess) suspend(awaitable model.Awaitable) error {
	p.mu.Lock()
	p.status = Waiting
	p.pending = awaitable
	p.mu.Unlock()
	return &WaitingError{ProcessID: p.id, Awaitable: awaitable}
}

func (p *AgentProcess) isCancelRequested() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelRequested
}

func (p *AgentProcess) executedSet() map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	set := make(map[string]bool, len(p.executed))
	for name := range p.executed {
		set[name] = true
	}
	return set
}

func (p *AgentProcess) actionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.actionsRun
}

// IsTerminalError reports whether err is one of the terminal process
// variants (anything except WAITING, which is resumable).
func IsTerminalError(err error) bool {
	var failed *FailedError
	var stuck *StuckError
	var terminated *TerminatedError
	return errors.As(err, &failed) || errors.As(err, &stuck) || errors.As(err, &terminated)
}

func conditionMap(ws worldstate.WorldState) map[string]string {
	out := make(map[string]string)
	for _, name := range ws.Names() {
		out[name] = ws.Get(name).String()
	}
	return out
}

func objectOfTypePresent(snap *blackboard.Snapshot, typeName string) bool {
	_, ok := lastObjectOfType(snap, typeName)
	return ok
}

func lastObjectOfType(snap *blackboard.Snapshot, typeName string) (any, bool) {
	objects := snap.Objects()
	for i := len(objects) - 1; i >= 0; i-- {
		if typeNameOf(objects[i]) == typeName {
			return objects[i], true
		}
	}
	return nil, false
}
