package events

import (
	"sync"

	"mcphub/pkg/logging"

	"github.com/google/uuid"
)

const subscriberBuffer = 100

// Subscription is a registered listener on a Broker.
type Subscription struct {
	ID string
	C  <-chan Event
}

// Broker fans lifecycle events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	closed      bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string]chan Event),
	}
}

// Subscribe registers a new listener. The returned channel is closed by
// Unsubscribe or Close.
func (b *Broker) Subscribe() Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return Subscription{ID: id, C: ch}
	}
	b.subscribers[id] = ch
	return Subscription{ID: id, C: ch}
}

// Unsubscribe removes a listener and closes its channel.
func (b *Broker) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Publish delivers the event to every subscriber.
func (b *Broker) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			logging.Debug("Events", "Subscriber %s blocked, skipping %s event for %s", id, event.Type, event.Backend)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}
