// Package stream manages narrator response streams as first-class,
// cancellable handles.
//
// A Stream carries the ordered event sequence for exactly one outstanding
// narrator call. The Manager enforces the at-most-one-open-stream rule per
// session: beginning a new stream cancels the previous one, so two streams
// can never interleave chunks into the same buffer.
package stream

import (
	"context"
	"sync"

	"github.com/emberfall/worldforge/internal/worldgen/domain"
)

// eventBuffer bounds how far a producer can run ahead of its consumer.
const eventBuffer = 64

// Stream is a handle on one in-flight narrator exchange.
type Stream struct {
	events chan domain.StreamEvent
	done   chan struct{}
	cancel context.CancelFunc

	mu       sync.Mutex
	terminal bool
	canceled bool
}

// New creates a stream handle. cancel is invoked on Cancel to stop the
// producer promptly; it may be nil in tests.
func New(cancel context.CancelFunc) *Stream {
	return &Stream{
		events: make(chan domain.StreamEvent, eventBuffer),
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// Events exposes the ordered event sequence. The channel closes after a
// terminal event has been delivered.
func (s *Stream) Events() <-chan domain.StreamEvent {
	return s.events
}

// Done closes when the stream is canceled. Consumers select on it so a
// caller-initiated abort unblocks them without waiting for the producer.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Publish delivers one event to the consumer in arrival order. It reports
// false once the stream is terminal or canceled; producers stop on false.
func (s *Stream) Publish(event domain.StreamEvent) bool {
	s.mu.Lock()
	if s.terminal || s.canceled {
		s.mu.Unlock()
		return false
	}
	if event.Terminal() {
		s.terminal = true
	}
	s.mu.Unlock()

	select {
	case s.events <- event:
	case <-s.done:
		return false
	}
	if event.Terminal() {
		close(s.events)
	}
	return true
}

// Cancel aborts the stream: the producer's context is canceled and no
// further events are delivered. Idempotent.
func (s *Stream) Cancel() {
	s.mu.Lock()
	if s.canceled || s.terminal {
		s.canceled = true
		s.mu.Unlock()
		return
	}
	s.canceled = true
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	close(s.done)
}

// Canceled reports whether Cancel has been called.
func (s *Stream) Canceled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canceled
}
