package client

import (
	"context"
	"sync"
	"time"
)

// Event announces that the backend rejected the session.
type Event struct {
	// Path of the request that received the 401.
	Path string
	At   time.Time
}

// Signal fans session-invalidated events out to navigation listeners.
// Delivery never blocks the request pipeline; a listener that falls behind
// misses events rather than stalling other calls.
type Signal struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewSignal() *Signal {
	return &Signal{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of events and a function that unsubscribes
// and closes it.
func (s *Signal) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan Event, 8)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Signal) Invalidate(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Listen calls fn for every event until ctx is done. It blocks; run it in
// its own goroutine.
func (s *Signal) Listen(ctx context.Context, fn func(Event)) {
	events, stop := s.Subscribe()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			fn(ev)
		}
	}
}
