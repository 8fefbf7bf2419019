// Package progress fans human-readable pipeline messages out to live
// subscribers, e.g. the /logs event stream, and optionally to an external
// forwarder.
package progress

import (
	"context"
	"sync"
	"time"
)

type Event struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Forwarder receives every published event from the hub's Run loop.
type Forwarder interface {
	Forward(ctx context.Context, e Event) error
}

// Hub delivers at most once per subscriber: a subscriber whose buffer is
// full misses the event instead of blocking the publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[uint64]chan Event
	next uint64

	forward chan Event
	now     func() time.Time
}

// NewHub returns a hub. forwardBuffer sizes the queue feeding Run; zero
// disables forwarding.
func NewHub(forwardBuffer int) *Hub {
	h := &Hub{
		subs: make(map[uint64]chan Event),
		now:  time.Now,
	}
	if forwardBuffer > 0 {
		h.forward = make(chan Event, forwardBuffer)
	}
	return h
}

// Subscribe registers a subscriber. The returned cancel func unregisters
// it and closes the channel; calling it more than once is safe.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (h *Hub) Publish(level, message string) {
	e := Event{Time: h.now(), Level: level, Message: message}

	h.mu.RLock()
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
	h.mu.RUnlock()

	if h.forward != nil {
		select {
		case h.forward <- e:
		default:
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Run hands queued events to f until ctx is done. Forwarding errors are
// reported through onErr and do not stop the loop.
func (h *Hub) Run(ctx context.Context, f Forwarder, onErr func(error)) {
	if h.forward == nil || f == nil {
		<-ctx.Done()
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-h.forward:
			if err := f.Forward(ctx, e); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}
