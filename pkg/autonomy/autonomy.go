// Package autonomy turns free-form user intents into running agent
// processes: rank candidates (goals or agents), synthesize a pruned agent
// when needed, seed the blackboard, and execute.
package autonomy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/agentcore/pkg/blackboard"
	"github.com/codeready-toolchain/agentcore/pkg/events"
	"github.com/codeready-toolchain/agentcore/pkg/model"
	"github.com/codeready-toolchain/agentcore/pkg/process"
	"github.com/codeready-toolchain/agentcore/pkg/ranker"
	"github.com/codeready-toolchain/agentcore/pkg/worldstate"
)

// DefaultConfidenceCutOff is the minimum top score required before a
// ranking choice is acted on.
const DefaultConfidenceCutOff = 0.6

// Channel is the event-bus channel carrying ranking events that occur
// before any process exists.
const Channel = "autonomy"

// Platform is the narrow view of the platform façade (C9) Autonomy needs:
// what agents exist, and how to instantiate one.
type Platform interface {
	Agents() []model.Agent
	CreateProcess(agent model.Agent, opts process.Options, initialBindings map[string]any) *process.AgentProcess
}

// GoalApprover decides whether the top-ranked goal may be pursued.
// Returning false vetoes execution with the given reason.
type GoalApprover func(intent string, goal model.Goal, rankings ranker.Rankings) (approved bool, reason string)

// Options configures one autonomy invocation.
type Options struct {
	// GoalConfidenceCutOff and AgentConfidenceCutOff gate selection; zero
	// means DefaultConfidenceCutOff.
	GoalConfidenceCutOff  float64
	AgentConfidenceCutOff float64

	// Process carries the options handed to the created process.
	Process process.Options
}

func (o Options) goalCutOff() float64 {
	if o.GoalConfidenceCutOff > 0 {
		return o.GoalConfidenceCutOff
	}
	return DefaultConfidenceCutOff
}

func (o Options) agentCutOff() float64 {
	if o.AgentConfidenceCutOff > 0 {
		return o.AgentConfidenceCutOff
	}
	return DefaultConfidenceCutOff
}

// Autonomy selects and executes agents against user intents.
type Autonomy struct {
	platform Platform
	ranker   ranker.Ranker
	bus      *events.Bus
}

// New creates an Autonomy over the given platform and ranker. bus may be
// nil when no one listens.
func New(platform Platform, r ranker.Ranker, bus *events.Bus) *Autonomy {
	return &Autonomy{platform: platform, ranker: r, bus: bus}
}

// ChooseAndRunAgent implements the closed execution model: rank the
// registered agents against the intent and run the winner to a terminal
// (or WAITING) status. The returned process is nil when no agent cleared
// the cut-off.
func (a *Autonomy) ChooseAndRunAgent(ctx context.Context, intent string, opts Options) (*process.AgentProcess, error) {
	agents := a.platform.Agents()
	candidates := make([]ranker.Candidate, len(agents))
	for i, agent := range agents {
		candidates[i] = ranker.Candidate{Name: agent.Name(), Description: agent.Description()}
	}

	rankings, err := a.rank(ctx, "agent", intent, candidates)
	if err != nil {
		return nil, err
	}

	top, ok := rankings.Top()
	if !ok || top.Score < opts.agentCutOff() {
		a.choiceNotMade(rankings, opts.agentCutOff(), "no agent above cut-off")
		return nil, &NoAgentFoundError{Intent: intent, Rankings: rankings}
	}
	a.choiceMade(top)

	var chosen model.Agent
	for _, agent := range agents {
		if agent.Name() == top.Candidate.Name {
			chosen = agent
			break
		}
	}

	p := a.startProcess(chosen, intent, opts)
	return p, p.Run(ctx)
}

// ChooseAndAccomplishGoal implements the open execution model: rank the
// goals in scope against the intent, get approval, synthesize an agent
// containing all of scope's actions and conditions plus the single chosen
// goal, prune actions unreachable from the seeded user input, and execute.
func (a *Autonomy) ChooseAndAccomplishGoal(ctx context.Context, intent string, opts Options, approver GoalApprover, scope model.Agent) (*process.AgentProcess, error) {
	goals := scope.Goals()
	candidates := make([]ranker.Candidate, len(goals))
	for i, g := range goals {
		candidates[i] = ranker.Candidate{Name: g.Name(), Description: g.Description}
	}

	rankings, err := a.rank(ctx, "goal", intent, candidates)
	if err != nil {
		return nil, err
	}

	top, ok := rankings.Top()
	if !ok || top.Score < opts.goalCutOff() {
		a.choiceNotMade(rankings, opts.goalCutOff(), "no goal above cut-off")
		return nil, &NoGoalFoundError{Intent: intent, Rankings: rankings}
	}

	var chosenGoal model.Goal
	for _, g := range goals {
		if g.Name() == top.Candidate.Name {
			chosenGoal = g
			break
		}
	}

	if approver != nil {
		approved, reason := approver(intent, chosenGoal, rankings)
		if !approved {
			a.choiceNotMade(rankings, opts.goalCutOff(), "goal not approved: "+reason)
			return nil, &GoalNotApprovedError{Intent: intent, Rankings: rankings, Reason: reason}
		}
	}
	a.choiceMade(top)

	agent := a.synthesizeAgent(scope, chosenGoal, intent)
	p := a.startProcess(agent, intent, opts)
	return p, p.Run(ctx)
}

// synthesizeAgent builds the single-goal agent for the open model and
// prunes actions unreachable from a blackboard holding only the user
// input.
func (a *Autonomy) synthesizeAgent(scope model.Agent, goal model.Goal, intent string) model.Agent {
	agent := scope.WithSingleGoal(goal)

	bb := blackboard.New()
	bb.Bind(process.DefaultBinding, model.UserInput{Text: intent})
	ws, evalErrs := worldstate.Evaluate(agent.Conditions(), bb.Snapshot())
	for _, err := range evalErrs {
		slog.Warn("condition degraded during pruning", "error", err)
	}

	pruned := agent.Prune(ws)
	pruned.AgentName = fmt.Sprintf("%s:%s", scope.Name(), goal.Name())

	a.publish(events.TypeDynamicAgentCreated, events.DynamicAgentCreatedPayload{
		AgentName:   pruned.Name(),
		GoalName:    goal.Name(),
		ActionNames: actionNames(pruned.Actions()),
	})
	return pruned
}

func (a *Autonomy) startProcess(agent model.Agent, intent string, opts Options) *process.AgentProcess {
	procOpts := opts.Process
	if procOpts.InitialBindings == nil {
		procOpts.InitialBindings = make(map[string]any)
	}
	if _, seeded := procOpts.InitialBindings[process.DefaultBinding]; !seeded {
		procOpts.InitialBindings[process.DefaultBinding] = model.UserInput{Text: intent}
	}
	return a.platform.CreateProcess(agent, procOpts, procOpts.InitialBindings)
}

func (a *Autonomy) rank(ctx context.Context, description, intent string, candidates []ranker.Candidate) (ranker.Rankings, error) {
	a.publish(events.TypeRankingChoiceRequest, events.RankingChoiceRequestPayload{
		Description: description,
		Candidates:  candidateNames(candidates),
	})
	rankings, err := a.ranker.Rank(ctx, description, intent, candidates)
	if err != nil {
		return ranker.Rankings{}, fmt.Errorf("ranking %ss failed: %w", description, err)
	}
	return rankings, nil
}

func (a *Autonomy) choiceMade(top ranker.Ranked) {
	a.publish(events.TypeRankingChoiceMade, events.RankingChoiceMadePayload{
		Chosen: top.Candidate.Name,
		Score:  top.Score,
	})
}

func (a *Autonomy) choiceNotMade(rankings ranker.Rankings, cutOff float64, reason string) {
	var topScore float64
	if top, ok := rankings.Top(); ok {
		topScore = top.Score
	}
	a.publish(events.TypeRankingChoiceNotMade, events.RankingChoiceNotMadePayload{
		TopScore: topScore,
		CutOff:   cutOff,
		Reason:   reason,
	})
}

func (a *Autonomy) publish(eventType string, payload any) {
	if a.bus == nil {
		return
	}
	a.bus.Publish(Channel, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func candidateNames(candidates []ranker.Candidate) []string {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	return names
}

func actionNames(actions []model.Action) []string {
	names := make([]string, len(actions))
	for i, act := range actions {
		names[i] = act.Name()
	}
	return names
}
