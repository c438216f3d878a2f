// Package worldstate evaluates named boolean conditions against a
// blackboard snapshot, producing the WorldState the planner searches over.
package worldstate

import (
	"fmt"
	"log/slog"

	"github.com/codeready-toolchain/agentcore/pkg/blackboard"
)

// Determination is the three-valued result of evaluating a Condition.
type Determination int

const (
	Unknown Determination = iota
	True
	False
)

func (d Determination) String() string {
	switch d {
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	default:
		return "UNKNOWN"
	}
}

// Condition is a named predicate over a blackboard snapshot. Evaluate must
// be deterministic for a given snapshot and must not panic for expected
// input — a panic is recovered by Evaluate (the package function) and
// degrades the condition to Unknown.
type Condition interface {
	Name() string
	Evaluate(snap *blackboard.Snapshot) Determination
}

// Func adapts a plain function into a Condition.
type Func struct {
	name string
	eval func(snap *blackboard.Snapshot) Determination
}

// NewFunc builds a Condition from a name and evaluator function.
func NewFunc(name string, eval func(snap *blackboard.Snapshot) Determination) Func {
	return Func{name: name, eval: eval}
}

func (f Func) Name() string { return f.name }

func (f Func) Evaluate(snap *blackboard.Snapshot) Determination {
	return f.eval(snap)
}

// LastResultOfType builds the "last result of type T" computed condition:
// true iff the most recently appended blackboard object is assignable to T.
func LastResultOfType[T any](name string) Func {
	return NewFunc(name, func(snap *blackboard.Snapshot) Determination {
		last, ok := snap.Last()
		if !ok {
			return False
		}
		if _, ok := last.(T); ok {
			return True
		}
		return False
	})
}

// ObjectOfTypePresent builds the "object of type T present" computed
// condition: true iff the blackboard contains any object assignable to T.
func ObjectOfTypePresent[T any](name string) Func {
	return NewFunc(name, func(snap *blackboard.Snapshot) Determination {
		if blackboard.HasType[T](snap) {
			return True
		}
		return False
	})
}

// WorldState is an immutable map from condition name to Determination.
type WorldState struct {
	values map[string]Determination
}

// Empty returns a WorldState with no known conditions (all lookups return
// Unknown).
func Empty() WorldState {
	return WorldState{values: map[string]Determination{}}
}

// Get returns the determination for name, or Unknown if not evaluated.
func (w WorldState) Get(name string) Determination {
	if w.values == nil {
		return Unknown
	}
	if v, ok := w.values[name]; ok {
		return v
	}
	return Unknown
}

// Satisfies reports whether name's determination equals required.
func (w WorldState) Satisfies(name string, required Determination) bool {
	return w.Get(name) == required
}

// With returns a copy of w with name set to det, leaving w unmodified.
func (w WorldState) With(name string, det Determination) WorldState {
	next := make(map[string]Determination, len(w.values)+1)
	for k, v := range w.values {
		next[k] = v
	}
	next[name] = det
	return WorldState{values: next}
}

// Names returns the set of condition names this state has a value for.
func (w WorldState) Names() []string {
	names := make([]string, 0, len(w.values))
	for k := range w.values {
		names = append(names, k)
	}
	return names
}

// EvaluationError records a single condition evaluator failure. The
// condition degrades to Unknown; evaluation of the remaining conditions
// continues.
type EvaluationError struct {
	Condition string
	Err       error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("condition %q evaluation failed: %v", e.Condition, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Evaluate runs every condition against snap, producing a WorldState. A
// condition whose Evaluate panics is recorded as Unknown and its panic is
// captured as an *EvaluationError in the returned slice; evaluation of the
// remaining conditions is unaffected.
func Evaluate(conditions []Condition, snap *blackboard.Snapshot) (WorldState, []error) {
	values := make(map[string]Determination, len(conditions))
	var errs []error
	for _, c := range conditions {
		det, err := safeEvaluate(c, snap)
		if err != nil {
			errs = append(errs, err)
			slog.Warn("condition evaluation failed, degrading to UNKNOWN",
				"condition", c.Name(), "error", err)
			det = Unknown
		}
		values[c.Name()] = det
	}
	return WorldState{values: values}, errs
}

func safeEvaluate(c Condition, snap *blackboard.Snapshot) (det Determination, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &EvaluationError{Condition: c.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return c.Evaluate(snap), nil
}
