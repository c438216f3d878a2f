package processstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/agentcore/pkg/blackboard"
	"github.com/codeready-toolchain/agentcore/pkg/events"
	"github.com/codeready-toolchain/agentcore/pkg/model"
	"github.com/codeready-toolchain/agentcore/pkg/process"
	"github.com/codeready-toolchain/agentcore/pkg/worldstate"
)

type Writeup struct {
	Text string `json:"text"`
}

func TestMemStoreEventLog(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(ctx, events.Event{
			ID:        string(rune('a' + i)),
			Type:      events.TypeActionStart,
			ProcessID: "p-1",
		}))
	}
	require.NoError(t, s.Append(ctx, events.Event{ID: "x", ProcessID: "p-2"}))

	log, err := s.Events(ctx, "p-1")
	require.NoError(t, err)
	require.Len(t, log, 3)
	assert.Equal(t, "a", log[0].ID)
	assert.Equal(t, "c", log[2].ID)
}

func TestMemStoreRecordRoundTrip(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	rec := Record{ProcessID: "p-1", AgentName: "writer", Status: "COMPLETED", UpdatedAt: time.Now()}
	require.NoError(t, s.SaveRecord(ctx, rec))

	got, ok, err := s.Record(ctx, "p-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "writer", got.AgentName)

	_, ok, err = s.Record(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := s.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemStoreRetention(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	old := Record{ProcessID: "old", UpdatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := Record{ProcessID: "fresh", UpdatedAt: time.Now()}
	require.NoError(t, s.SaveRecord(ctx, old))
	require.NoError(t, s.SaveRecord(ctx, fresh))
	require.NoError(t, s.Append(ctx, events.Event{ID: "e", ProcessID: "old"}))

	removed, err := s.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok, _ := s.Record(ctx, "old")
	assert.False(t, ok)
	log, _ := s.Events(ctx, "old")
	assert.Empty(t, log)
	_, ok, _ = s.Record(ctx, "fresh")
	assert.True(t, ok)
}

// completedProcess runs a tiny agent to COMPLETED so Snapshot has real
// state to serialize.
func completedProcess(t *testing.T) *process.AgentProcess {
	t.Helper()
	agent := model.NewAgent("writer",
		[]model.Action{{
			ActionName: "write",
			Cost:       1,
			OutputType: "Writeup",
			Executor: model.ExecutorFunc(func(model.ActionContext) (model.Outcome, error) {
				return model.ValueOutcome(Writeup{Text: "persisted prose"}), nil
			}),
		}},
		nil,
		[]model.Goal{{GoalName: "g", SatisfiedByType: "Writeup"}},
	)
	p := process.New(agent, process.Options{
		Budget:          process.Budget{MaxActions: 5},
		InitialBindings: map[string]any{process.DefaultBinding: model.UserInput{Text: "write it"}},
	}, nil, nil)
	require.NoError(t, p.Run(context.Background()))
	return p
}

func TestSnapshotAndRehydrateRoundTrip(t *testing.T) {
	p := completedProcess(t)

	rec, err := Snapshot(p)
	require.NoError(t, err)
	assert.Equal(t, p.ID(), rec.ProcessID)
	assert.Equal(t, "COMPLETED", rec.Status)
	require.Len(t, rec.History, 1)
	assert.Equal(t, "write", rec.History[0].ActionName)

	types := NewTypeRegistry()
	RegisterType[Writeup](types)
	RegisterType[model.UserInput](types)

	bb, err := Rehydrate(rec, types)
	require.NoError(t, err)

	// Same ordered objects.
	assert.Equal(t, p.Blackboard().Len(), bb.Len())
	writeup, ok := blackboard.LastOfType[Writeup](bb)
	require.True(t, ok)
	assert.Equal(t, "persisted prose", writeup.Text)

	// Same bindings.
	bound, ok := bb.Get(process.DefaultBinding)
	require.True(t, ok)
	assert.Equal(t, model.UserInput{Text: "write it"}, bound)
}

func TestRehydrateUnknownTypesDecodeGenerically(t *testing.T) {
	p := completedProcess(t)
	rec, err := Snapshot(p)
	require.NoError(t, err)

	bb, err := Rehydrate(rec, NewTypeRegistry())
	require.NoError(t, err)
	assert.Equal(t, p.Blackboard().Len(), bb.Len(),
		"binding a generically-decoded object must not re-append it")

	last, ok := bb.Last()
	require.True(t, ok)
	generic, isMap := last.(map[string]any)
	require.True(t, isMap)
	assert.Equal(t, "persisted prose", generic["text"])

	// The binding resolves to the same map instance that was appended.
	bound, ok := bb.Get(process.DefaultBinding)
	require.True(t, ok)
	boundMap, isMap := bound.(map[string]any)
	require.True(t, isMap)
	assert.Equal(t, "write it", boundMap["Text"])
}

func TestSnapshotCapturesPendingAwaitable(t *testing.T) {
	agent := model.NewAgent("asker",
		[]model.Action{{
			ActionName: "ask",
			Postconditions: []model.ConditionRequirement{
				{Condition: "confirmed", Determination: worldstate.True},
			},
			Cost: 1,
			Executor: model.ExecutorFunc(func(model.ActionContext) (model.Outcome, error) {
				return model.AwaitableOutcome(process.ConfirmationRequest{
					RequestID: "c-1",
					Message:   "proceed?",
				}), nil
			}),
		}},
		[]worldstate.Condition{
			worldstate.ObjectOfTypePresent[Writeup]("confirmed"),
		},
		[]model.Goal{{
			GoalName: "g",
			Preconditions: []model.ConditionRequirement{
				{Condition: "confirmed", Determination: worldstate.True},
			},
		}},
	)
	p := process.New(agent, process.Options{Budget: process.Budget{MaxActions: 5}}, nil, nil)

	err := p.Run(context.Background())
	var waiting *process.WaitingError
	require.ErrorAs(t, err, &waiting)

	rec, snapErr := Snapshot(p)
	require.NoError(t, snapErr)
	require.NotNil(t, rec.Pending)
	assert.Equal(t, "ConfirmationRequest", rec.Pending.TypeName)
	assert.Equal(t, "WAITING", rec.Status)
}
