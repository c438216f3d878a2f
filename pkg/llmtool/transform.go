package llmtool

import (
	"context"

	"github.com/codeready-toolchain/agentcore/pkg/model"
)

// TransformInto is the generic convenience wrapper over
// ToolMediator.Transform for callers that want a typed value back.
func TransformInto[T any](ctx context.Context, m model.ToolMediator, input any, promptFn func(any) string, interactionID string) (T, error) {
	var out T
	if err := m.Transform(ctx, input, promptFn, interactionID, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// TransformIntoIfPossible is the typed wrapper over
// ToolMediator.TransformIfPossible.
func TransformIntoIfPossible[T any](ctx context.Context, m model.ToolMediator, input any, promptFn func(any) string, interactionID string) (T, model.TransformResult, error) {
	var out T
	res, err := m.TransformIfPossible(ctx, input, promptFn, interactionID, &out)
	if err != nil || !res.OK {
		var zero T
		return zero, res, err
	}
	return out, res, nil
}
