// Package events fans dataset reload notifications out to live subscribers.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/mr1hm/go-covid-forecast/internal/models"
)

// SubscriberBuffer is how many undelivered events a subscriber may queue
// before further events are dropped for it.
const SubscriberBuffer = 16

type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan models.DatasetEvent
	nextID      atomic.Uint64
	closed      bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan models.DatasetEvent),
	}
}

// Subscribe registers a listener. After Close the returned channel is
// already closed.
func (b *Broadcaster) Subscribe() (uint64, <-chan models.DatasetEvent) {
	id := b.nextID.Add(1)
	ch := make(chan models.DatasetEvent, SubscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subscribers[id] = ch
	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Broadcast never blocks; subscribers with a full buffer miss the event.
func (b *Broadcaster) Broadcast(ev models.DatasetEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes every subscriber channel so streaming handlers return.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
