package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingForwarder struct {
	mu     sync.Mutex
	events []Event
	fail   bool
}

func (r *recordingForwarder) Forward(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if r.fail {
		return errors.New("broker down")
	}
	return nil
}

func (r *recordingForwarder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestHub_SubscribePublish(t *testing.T) {
	h := NewHub(0)
	a, cancelA := h.Subscribe(4)
	b, cancelB := h.Subscribe(4)
	defer cancelB()

	h.Publish("info", "[Process] Starting")

	for _, ch := range []<-chan Event{a, b} {
		select {
		case e := <-ch:
			assert.Equal(t, "[Process] Starting", e.Message)
			assert.Equal(t, "info", e.Level)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, h.Subscribers())
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub(0)
	ch, cancel := h.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for range 10 {
			h.Publish("info", "msg")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a full subscriber")
	}
	assert.Len(t, ch, 1)
}

func TestHub_RunForwards(t *testing.T) {
	h := NewHub(8)
	f := &recordingForwarder{fail: true}

	var errs int
	var mu sync.Mutex
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx, f, func(error) {
			mu.Lock()
			errs++
			mu.Unlock()
		})
		close(stopped)
	}()

	h.Publish("warn", "one")
	h.Publish("info", "two")

	require.Eventually(t, func() bool { return f.count() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-stopped

	mu.Lock()
	assert.Equal(t, 2, errs)
	mu.Unlock()
}
