package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/agentcore/pkg/blackboard"
	"github.com/codeready-toolchain/agentcore/pkg/model"
	"github.com/codeready-toolchain/agentcore/pkg/process"
	"github.com/codeready-toolchain/agentcore/pkg/worldstate"
)

func registryWithComponents() *ComponentRegistry {
	components := NewComponentRegistry()
	components.RegisterAction(model.Action{
		ActionName: "extractPerson",
		Cost:       1,
		Executor: model.ExecutorFunc(func(model.ActionContext) (model.Outcome, error) {
			return model.ValueOutcome(struct{}{}), nil
		}),
	})
	components.RegisterAction(model.Action{
		ActionName: "writeup",
		Cost:       1,
		Executor: model.ExecutorFunc(func(model.ActionContext) (model.Outcome, error) {
			return model.ValueOutcome(struct{}{}), nil
		}),
	})
	components.RegisterCondition(worldstate.NewFunc("userInputPresent",
		func(snap *blackboard.Snapshot) worldstate.Determination {
			return worldstate.True
		}))
	components.RegisterGoal(model.Goal{GoalName: "deliverWriteup", SatisfiedByType: "Writeup"})
	return components
}

func TestResolveAgentFromDefinition(t *testing.T) {
	def := &AgentDefinition{
		Description: "finds horoscopes and news",
		Actions:     []string{"extractPerson", "writeup"},
		Conditions:  []string{"userInputPresent"},
		Goals:       []string{"deliverWriteup"},
	}

	agent, err := registryWithComponents().ResolveAgent("StarFinder", def)
	require.NoError(t, err)
	assert.Equal(t, "StarFinder", agent.Name())
	assert.Equal(t, "finds horoscopes and news", agent.Description())
	assert.Len(t, agent.Actions(), 2)
	assert.Len(t, agent.Conditions(), 1)
	assert.Len(t, agent.Goals(), 1)
}

func TestResolveAgentCollectsMissingComponents(t *testing.T) {
	def := &AgentDefinition{
		Actions:    []string{"extractPerson", "nonexistentAction"},
		Conditions: []string{"nonexistentCondition"},
		Goals:      []string{"deliverWriteup", "nonexistentGoal"},
	}

	_, err := registryWithComponents().ResolveAgent("broken", def)
	require.Error(t, err)

	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs.Errors, 3)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestConfigResolveAgentAndOptions(t *testing.T) {
	dir := writeConfig(t, validYAML)
	cfg, err := Initialize(t.Context(), dir)
	require.NoError(t, err)

	agent, err := cfg.ResolveAgent("StarFinder", registryWithComponents())
	require.NoError(t, err)
	assert.Equal(t, "StarFinder", agent.Name())

	opts, err := cfg.ProcessOptions("StarFinder")
	require.NoError(t, err)
	assert.Equal(t, process.Budget{MaxActions: 10}, opts.Budget)
	assert.True(t, opts.Verbosity.ShowPlanning)

	_, err = cfg.ProcessOptions("missing")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestProcessOptionsFallBackToDefaultBudget(t *testing.T) {
	dir := writeConfig(t, `
agents:
  frugal:
    actions: ["a"]
    goals: ["g"]
`)
	cfg, err := Initialize(t.Context(), dir)
	require.NoError(t, err)

	opts, err := cfg.ProcessOptions("frugal")
	require.NoError(t, err)
	assert.Equal(t, GetBuiltinConfig().Defaults.Budget.MaxActions, opts.Budget.MaxActions)
}
