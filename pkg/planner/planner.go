// Package planner implements the GOAP A* search: given a WorldState, a set
// of Actions, and a set of Goals, find the lowest-cost ordered Action
// sequence that reaches some goal.
package planner

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"

	"github.com/codeready-toolchain/agentcore/pkg/model"
	"github.com/codeready-toolchain/agentcore/pkg/worldstate"
)

// Options configures a planning call.
type Options struct {
	// AvailableToolGroups restricts neighbor expansion to actions whose
	// ToolGroups are all present. nil means unrestricted (every action's
	// tool groups are considered available).
	AvailableToolGroups map[string]bool

	// AlreadyExecuted names actions that must not be re-selected because
	// they are canRerun=false and have already run earlier in this
	// process. Mirrors the executor's synthetic "already-executed-X"
	// condition without requiring the caller to
	// thread it through WorldState condition names.
	AlreadyExecuted map[string]bool
}

// Plan searches system's actions for the lowest-cost path from ws to any
// of goals. It returns (plan, true) if some goal is reachable, or
// (model.Plan{}, false) — NoPlan — otherwise.
func Plan(ws worldstate.WorldState, system model.PlanningSystem, goals []model.Goal, opts Options) (model.Plan, bool) {
	var candidates []model.Plan
	for _, g := range goals {
		if contradicted(g, ws, system, opts) {
			continue
		}
		if p, ok := planForGoal(ws, system, g, opts); ok {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return model.Plan{}, false
	}
	return bestOf(candidates), true
}

// contradicted reports whether ws definitely rules out g: some
// precondition holds the opposite determination and no available action's
// postconditions can establish the required one. A merely UNKNOWN
// condition never contradicts, and neither does a FALSE one that some
// action could still flip — those are left for the A* search to resolve.
func contradicted(g model.Goal, ws worldstate.WorldState, system model.PlanningSystem, opts Options) bool {
	for _, pre := range g.Preconditions {
		cur := ws.Get(pre.Condition)
		if cur == pre.Determination || cur == worldstate.Unknown {
			continue
		}
		if !establishable(pre, system, opts) {
			return true
		}
	}
	return false
}

// establishable reports whether some action still available to the search
// guarantees pre via its postconditions.
func establishable(pre model.ConditionRequirement, system model.PlanningSystem, opts Options) bool {
	for _, act := range system.Actions {
		if opts.AvailableToolGroups != nil && !act.HasToolGroups(opts.AvailableToolGroups) {
			continue
		}
		if !act.CanRerun && opts.AlreadyExecuted[act.Name()] {
			continue
		}
		for _, post := range act.Postconditions {
			if post.Condition == pre.Condition && post.Determination == pre.Determination {
				return true
			}
		}
	}
	return false
}

// bestOf applies the cross-goal tie-break: lowest total cost, then highest
// summed action value, then shortest length, then lexicographic action
// names.
func bestOf(candidates []model.Plan) model.Plan {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.TotalCost != b.TotalCost {
			return a.TotalCost < b.TotalCost
		}
		if a.TotalValue != b.TotalValue {
			return a.TotalValue > b.TotalValue
		}
		if len(a.Actions) != len(b.Actions) {
			return len(a.Actions) < len(b.Actions)
		}
		return strings.Join(a.ActionNames(), ",") < strings.Join(b.ActionNames(), ",")
	})
	return candidates[0]
}

// node is one state in the A* search over WorldStates.
type node struct {
	ws    worldstate.WorldState
	used  map[string]bool // non-rerunnable actions already spent on this path
	path  []model.Action
	gCost float64
}

type queueItem struct {
	n          node
	fCost      float64
	pathKey    string // lexicographic action-name join, for deterministic tie-break
	signature  string
	index      int
}

type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	a, b := pq[i], pq[j]
	if a.fCost != b.fCost {
		return a.fCost < b.fCost
	}
	if a.n.gCost != b.n.gCost {
		return a.n.gCost < b.n.gCost
	}
	// Equal cost-so-far: apply the same tie-break order used across goals
	// within a single goal's search too, so the result
	// is deterministic and not an artifact of exploration order.
	av, bv := sumValue(a.n.path), sumValue(b.n.path)
	if av != bv {
		return av > bv
	}
	if len(a.n.path) != len(b.n.path) {
		return len(a.n.path) < len(b.n.path)
	}
	return a.pathKey < b.pathKey
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index, pq[j].index = i, j
}
func (pq *priorityQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// planForGoal runs a single-goal A* search and returns the optimal-cost
// plan, if any.
func planForGoal(start worldstate.WorldState, system model.PlanningSystem, g model.Goal, opts Options) (model.Plan, bool) {
	usedStart := map[string]bool{}
	for name := range opts.AlreadyExecuted {
		usedStart[name] = true
	}

	startNode := node{ws: start, used: usedStart, path: nil, gCost: 0}
	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &queueItem{
		n:         startNode,
		fCost:     heuristic(startNode, g),
		pathKey:   "",
		signature: signatureOf(startNode),
	})

	visited := map[string]float64{} // signature -> best gCost seen

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*queueItem)
		n := item.n

		if best, ok := visited[item.signature]; ok && best < n.gCost {
			continue
		}
		visited[item.signature] = n.gCost

		if goalReached(g, n.ws) {
			return model.Plan{
				Goal:       g,
				Actions:    n.path,
				TotalCost:  n.gCost,
				TotalValue: sumValue(n.path),
			}, true
		}

		for _, act := range sortedActions(system.Actions) {
			if !act.CanRerun && n.used[act.Name()] {
				continue
			}
			if opts.AvailableToolGroups != nil && !act.HasToolGroups(opts.AvailableToolGroups) {
				continue
			}
			if !act.SatisfiedIn(n.ws) {
				continue
			}

			nextWS := act.Apply(n.ws)
			if g.SatisfiedByType != "" && act.OutputType == g.SatisfiedByType {
				nextWS = nextWS.With(g.SatisfiedCondition(), worldstate.True)
			}

			nextUsed := n.used
			if !act.CanRerun {
				nextUsed = copyUsed(n.used)
				nextUsed[act.Name()] = true
			}

			nextPath := make([]model.Action, len(n.path)+1)
			copy(nextPath, n.path)
			nextPath[len(n.path)] = act

			next := node{ws: nextWS, used: nextUsed, path: nextPath, gCost: n.gCost + act.Cost}
			sig := signatureOf(next)
			if best, ok := visited[sig]; ok && best <= next.gCost {
				continue
			}

			heap.Push(pq, &queueItem{
				n:         next,
				fCost:     next.gCost + heuristic(next, g),
				pathKey:   strings.Join(actionNames(nextPath), ","),
				signature: sig,
			})
		}
	}

	return model.Plan{}, false
}

func goalReached(g model.Goal, ws worldstate.WorldState) bool {
	if !g.SatisfiedIn(ws) {
		return false
	}
	if g.SatisfiedByType == "" {
		return true
	}
	return ws.Get(g.SatisfiedCondition()) == worldstate.True
}

// heuristic counts unsatisfied goal preconditions plus, if SatisfiedByType
// is set and not yet observed on this path, one more unit of remaining
// work. Both terms are non-negative integers and never overestimate the
// number of actions still required, so the heuristic is admissible.
func heuristic(n node, g model.Goal) float64 {
	h := g.UnsatisfiedCount(n.ws)
	if g.SatisfiedByType != "" && n.ws.Get(g.SatisfiedCondition()) != worldstate.True {
		h++
	}
	return float64(h)
}

func sumValue(path []model.Action) float64 {
	var v float64
	for _, a := range path {
		v += a.Value
	}
	return v
}

func actionNames(path []model.Action) []string {
	names := make([]string, len(path))
	for i, a := range path {
		names[i] = a.Name()
	}
	return names
}

func copyUsed(m map[string]bool) map[string]bool {
	next := make(map[string]bool, len(m)+1)
	for k, v := range m {
		next[k] = v
	}
	return next
}

// sortedActions returns actions sorted by name so neighbor expansion order
// is deterministic across calls and platforms.
func sortedActions(actions []model.Action) []model.Action {
	sorted := make([]model.Action, len(actions))
	copy(sorted, actions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name() < sorted[j].Name() })
	return sorted
}

// signatureOf builds a canonical string key for a search node so the
// closed-set lookup is independent of map iteration order.
func signatureOf(n node) string {
	var sb strings.Builder
	names := n.ws.Names()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "%s=%s;", name, n.ws.Get(name))
	}
	sb.WriteByte('|')
	used := make([]string, 0, len(n.used))
	for name, on := range n.used {
		if on {
			used = append(used, name)
		}
	}
	sort.Strings(used)
	sb.WriteString(strings.Join(used, ","))
	return sb.String()
}
