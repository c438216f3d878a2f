package model

import (
	"context"

	"github.com/codeready-toolchain/agentcore/pkg/blackboard"
)

// TransformResult reports whether a structured-output transform produced a
// usable value. Returned (rather than an error) by TransformIfPossible so
// actions can decide how to proceed when the model refuses or cannot
// produce valid structured output.
type TransformResult struct {
	OK     bool
	Reason string
}

// ToolMediator is the view of LLM/tool mediation (C6) an Executor works
// through. The concrete implementation lives in pkg/llmtool, already bound
// to the current process; model only depends on this interface to avoid an
// import cycle.
type ToolMediator interface {
	// GenerateText runs a plain text generation.
	GenerateText(ctx context.Context, prompt string, interactionID string) (string, error)
	// Transform generates structured output from input via promptFn and
	// decodes it into out (a non-nil pointer). Decoding failures are
	// returned as errors and are never retried.
	Transform(ctx context.Context, input any, promptFn func(any) string, interactionID string, out any) error
	// TransformIfPossible is Transform with a soft failure mode: a model
	// that refuses or produces undecodable output yields an unset
	// TransformResult instead of an error.
	TransformIfPossible(ctx context.Context, input any, promptFn func(any) string, interactionID string, out any) (TransformResult, error)
	// CallTool executes a named tool with the given arguments and returns
	// its textual result.
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// ActionContext bundles everything an Executor needs to run: cancellation,
// the process's live blackboard, and the LLM/tool mediator bound to the
// current process.
type ActionContext struct {
	Context    context.Context
	ProcessID  string
	Blackboard *blackboard.Blackboard
	Tools      ToolMediator
}

// Outcome is the result an Executor hands back to the process executor. A
// well-formed Outcome sets exactly one of Value, (BindingName, BoundValue),
// or Awaitable.
type Outcome struct {
	Value       any
	BindingName string
	BoundValue  any
	Awaitable   Awaitable
}

// ValueOutcome produces an Outcome that appends v to the blackboard
// unbound.
func ValueOutcome(v any) Outcome {
	return Outcome{Value: v}
}

// BindingOutcome produces an Outcome that binds v under name (and appends
// it if not already present).
func BindingOutcome(name string, v any) Outcome {
	return Outcome{BindingName: name, BoundValue: v}
}

// AwaitableOutcome produces an Outcome that suspends the process.
func AwaitableOutcome(a Awaitable) Outcome {
	return Outcome{Awaitable: a}
}

// IsAwaitable reports whether this outcome suspends the process.
func (o Outcome) IsAwaitable() bool { return o.Awaitable != nil }

// Awaitable is a value an action returns instead of completing
// synchronously; it suspends the owning process until resume(response) is
// invoked with a matching response value.
type Awaitable interface {
	// ID uniquely identifies this suspend point within the process.
	ID() string
	// Kind names the awaitable's variety for event payloads (e.g.
	// "confirmation", "form").
	Kind() string
	// HandleResponse validates and applies an external response, writing
	// any resulting objects to bb. Returning an error leaves the process
	// WAITING.
	HandleResponse(bb *blackboard.Blackboard, response any) error
}
