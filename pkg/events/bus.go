package events

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fluxorio/todo-service/pkg/core"
)

const defaultBufferSize = 100

// Bus fans events out to in-process subscribers.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
	closed      bool
	bufferSize  int
	dropped     atomic.Int64
}

// NewBus creates a bus. bufferSize <= 0 uses the default of 100.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Bus{
		subscribers: make(map[string][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe returns a channel receiving events of eventType. "*" receives every type.
// The channel is closed when the bus closes or cancel is called.
func (b *Bus) Subscribe(eventType string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)

	var once sync.Once
	cancel := func() {
		once.Do(func() { b.unsubscribe(eventType, ch) })
	}
	return ch, cancel
}

func (b *Bus) unsubscribe(eventType string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[eventType]
	for i, sub := range subs {
		if sub == ch {
			b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Publish delivers ev to the subscribers of its type and to wildcard subscribers
func (b *Bus) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return &core.Error{Code: "BUS_CLOSED", Message: "event bus is closed"}
	}
	b.deliver(b.subscribers[ev.Type], ev)
	if ev.Type != "*" {
		b.deliver(b.subscribers["*"], ev)
	}
	return nil
}

func (b *Bus) deliver(subs []chan Event, ev Event) {
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns the number of deliveries skipped because a subscriber was full
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Close closes every subscriber channel
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	b.subscribers = nil
	return nil
}
