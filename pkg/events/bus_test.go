package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus(0)
	sub := bus.Subscribe(ProcessChannel("p1"))
	defer sub.Close()

	bus.Publish(ProcessChannel("p1"), Event{ID: "1", Type: TypeProcessCreated, ProcessID: "p1", Timestamp: time.Now()})

	select {
	case ev := <-sub.C:
		assert.Equal(t, TypeProcessCreated, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusChannelsAreIsolated(t *testing.T) {
	bus := NewBus(0)
	subA := bus.Subscribe(ProcessChannel("a"))
	defer subA.Close()
	subB := bus.Subscribe(ProcessChannel("b"))
	defer subB.Close()

	bus.Publish(ProcessChannel("a"), Event{ID: "1", Type: TypeProcessCreated})

	select {
	case ev := <-subA.C:
		assert.Equal(t, TypeProcessCreated, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("subA should have received the event")
	}

	select {
	case <-subB.C:
		t.Fatal("subB should not receive events published to a different channel")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusCatchup(t *testing.T) {
	bus := NewBus(2)
	ch := ProcessChannel("catchup")
	bus.Publish(ch, Event{ID: "1", Type: TypeProcessCreated})
	bus.Publish(ch, Event{ID: "2", Type: TypeActionStart})
	bus.Publish(ch, Event{ID: "3", Type: TypeActionFinish})

	buffered := bus.Catchup(ch)
	require.Len(t, buffered, 2)
	assert.Equal(t, "2", buffered[0].ID)
	assert.Equal(t, "3", buffered[1].ID)

	sub := bus.Subscribe(ch)
	defer sub.Close()
	first := <-sub.C
	second := <-sub.C
	assert.Equal(t, "2", first.ID)
	assert.Equal(t, "3", second.ID)
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(0)
	sub := bus.Subscribe(ProcessChannel("p"))
	sub.Close()

	_, ok := <-sub.C
	assert.False(t, ok)
}
