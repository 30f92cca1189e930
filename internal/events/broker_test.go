package events

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	e := Running("alpha", 42)
	assert.Equal(t, EventRunning, e.Type)
	assert.Equal(t, "alpha", e.Backend)
	assert.Equal(t, 42, e.PID)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())

	x := Exited("alpha", 42, 3)
	require.NotNil(t, x.ExitCode)
	assert.Equal(t, 3, *x.ExitCode)
	assert.NotEqual(t, e.ID, x.ID)

	f := SpawnFailed("beta", errors.New("no such file"))
	assert.Equal(t, EventSpawnFailed, f.Type)
	assert.Equal(t, "no such file", f.Error)
}

func TestBroker_FanOut(t *testing.T) {
	b := NewBroker()
	s1 := b.Subscribe()
	s2 := b.Subscribe()
	assert.Equal(t, 2, b.SubscriberCount())

	b.Publish(New(EventStarting, "alpha"))

	for _, sub := range []Subscription{s1, s2} {
		select {
		case ev := <-sub.C:
			assert.Equal(t, "alpha", ev.Backend)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBroker_Unsubscribe(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	b.Unsubscribe(sub.ID)
	b.Unsubscribe(sub.ID)

	_, open := <-sub.C
	assert.False(t, open)
	assert.Equal(t, 0, b.SubscriberCount())

	b.Publish(New(EventStarting, "alpha"))
}

func TestBroker_PublishDoesNotBlock(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+10; i++ {
			b.Publish(New(EventStarting, "alpha"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Len(t, sub.C, subscriberBuffer)
}

func TestBroker_Close(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	b.Close()
	b.Close()

	_, open := <-sub.C
	assert.False(t, open)

	late := b.Subscribe()
	_, open = <-late.C
	assert.False(t, open, "subscriptions after close are already closed")

	b.Publish(New(EventStarting, "alpha"))
}
