package blackboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResultA struct{ Value string }
type fakeResultB struct{ Value int }

func TestBlackboardOrdering(t *testing.T) {
	b := New()
	b.Append(fakeResultA{Value: "first"})
	b.Append(fakeResultB{Value: 1})
	b.Append(fakeResultA{Value: "second"})

	last, ok := LastOfType[fakeResultA](b)
	require.True(t, ok)
	assert.Equal(t, "second", last.Value)

	all := AllOfType[fakeResultA](b)
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Value)
	assert.Equal(t, "second", all[1].Value)

	lastAny, ok := b.Last()
	require.True(t, ok)
	assert.Equal(t, fakeResultA{Value: "second"}, lastAny)
}

func TestBlackboardLastOfTypeMissing(t *testing.T) {
	b := New()
	b.Append(fakeResultB{Value: 42})

	_, ok := LastOfType[fakeResultA](b)
	assert.False(t, ok)
}

func TestBlackboardBindRoundTrip(t *testing.T) {
	b := New()
	obj := fakeResultA{Value: "bound"}
	b.Bind("target", obj)

	got, ok := b.Get("target")
	require.True(t, ok)
	assert.Equal(t, obj, got)

	// Binding also appends the object to the ordered sequence exactly once.
	assert.Equal(t, 1, b.Len())

	// Re-binding the same value under a different name does not re-append.
	b.Bind("other", obj)
	assert.Equal(t, 1, b.Len())

	_, ok = b.Get("missing")
	assert.False(t, ok)
}

// Binding an already-appended map or slice must recognize it by the
// identity of its backing data, not re-append it.
func TestBlackboardBindUncomparableIdentity(t *testing.T) {
	b := New()

	m := map[string]any{"key": "value"}
	b.Append(m)
	b.Bind("config", m)
	assert.Equal(t, 1, b.Len())

	s := []string{"one", "two"}
	b.Append(s)
	b.Bind("items", s)
	assert.Equal(t, 2, b.Len())

	// A distinct map with equal contents is a different object.
	b.Bind("other", map[string]any{"key": "value"})
	assert.Equal(t, 3, b.Len())

	got, ok := b.Get("config")
	require.True(t, ok)
	assert.Equal(t, m, got)
}

func TestBlackboardBindOverwrite(t *testing.T) {
	b := New()
	b.Bind("slot", fakeResultA{Value: "v1"})
	b.Bind("slot", fakeResultA{Value: "v2"})

	got, ok := b.Get("slot")
	require.True(t, ok)
	assert.Equal(t, fakeResultA{Value: "v2"}, got)
	assert.Equal(t, 2, b.Len())
}

func TestSnapshotIsolation(t *testing.T) {
	b := New()
	b.Append(fakeResultA{Value: "pre"})
	snap := b.Snapshot()

	b.Append(fakeResultA{Value: "post"})

	assert.Equal(t, 1, snap.Len())
	last, ok := LastOfTypeSnapshot[fakeResultA](snap)
	require.True(t, ok)
	assert.Equal(t, "pre", last.Value)

	all := AllOfType[fakeResultA](b)
	assert.Len(t, all, 2)
}

func TestHasType(t *testing.T) {
	b := New()
	snap := b.Snapshot()
	assert.False(t, HasType[fakeResultA](snap))

	b.Append(fakeResultA{Value: "x"})
	snap = b.Snapshot()
	assert.True(t, HasType[fakeResultA](snap))
	assert.False(t, HasType[fakeResultB](snap))
}

func TestAllOfTypeSnapshotOrder(t *testing.T) {
	b := New()
	b.Append(fakeResultB{Value: 1})
	b.Append(fakeResultA{Value: "a"})
	b.Append(fakeResultB{Value: 2})
	snap := b.Snapshot()

	all := AllOfTypeSnapshot[fakeResultB](snap)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].Value)
	assert.Equal(t, 2, all[1].Value)
}
