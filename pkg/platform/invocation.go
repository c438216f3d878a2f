package platform

import (
	"context"
	"fmt"
	"reflect"

	"github.com/codeready-toolchain/agentcore/pkg/model"
	"github.com/codeready-toolchain/agentcore/pkg/process"
)

// InvokeFor locates the unique registered agent whose goal is satisfied
// by T, runs it with the given positional inputs (first input lands under
// the default binding, the rest are appended), and returns the resulting
// T from the blackboard.
func InvokeFor[T any](ctx context.Context, p *Platform, opts process.Options, inputs ...any) (T, error) {
	bindings := make(map[string]any, 1)
	if len(inputs) > 0 {
		bindings[process.DefaultBinding] = inputs[0]
	}
	return invoke[T](ctx, p, opts, bindings, inputs[min(1, len(inputs)):])
}

// InvokeNamed is InvokeFor with a named input map instead of positional
// inputs.
func InvokeNamed[T any](ctx context.Context, p *Platform, opts process.Options, inputs map[string]any) (T, error) {
	return invoke[T](ctx, p, opts, inputs, nil)
}

func invoke[T any](ctx context.Context, p *Platform, opts process.Options, bindings map[string]any, extra []any) (T, error) {
	var zero T
	outputType := reflect.TypeFor[T]()
	for outputType.Kind() == reflect.Ptr {
		outputType = outputType.Elem()
	}
	typeName := outputType.Name()

	agent, err := agentProducing(p, typeName)
	if err != nil {
		return zero, err
	}

	proc := p.CreateProcess(agent, opts, bindings)
	for _, obj := range extra {
		proc.Blackboard().Append(obj)
	}
	defer p.Release(proc.ID())

	if err := proc.Run(ctx); err != nil {
		return zero, err
	}

	result, ok := process.ResultAs[T](proc)
	if !ok {
		return zero, fmt.Errorf("process %s completed without producing a %s", proc.ID(), typeName)
	}
	return result, nil
}

// agentProducing finds the single registered agent with a goal satisfied
// by typeName. Zero or multiple matches are errors — the invocation
// contract requires uniqueness.
func agentProducing(p *Platform, typeName string) (model.Agent, error) {
	var found []model.Agent
	for _, agent := range p.Agents() {
		for _, g := range agent.Goals() {
			if g.SatisfiedByType == typeName {
				found = append(found, agent)
				break
			}
		}
	}
	switch len(found) {
	case 0:
		return model.Agent{}, fmt.Errorf("no registered agent produces %s", typeName)
	case 1:
		return found[0], nil
	default:
		names := make([]string, len(found))
		for i, a := range found {
			names[i] = a.Name()
		}
		return model.Agent{}, fmt.Errorf("ambiguous invocation: agents %v all produce %s", names, typeName)
	}
}
