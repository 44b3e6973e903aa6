// Package ringchan provides a bounded channel with overwrite-oldest
// semantics. Advertisement traffic is bursty and consumers are slow
// (humans, log sinks), so producers must never block: when the buffer
// is full the oldest unread element is dropped in favor of the newest.
package ringchan

import "sync/atomic"

// Ring is a bounded buffer over a channel. Send never blocks
// indefinitely; reads come from C or Receive.
type Ring[T any] struct {
	ch chan T

	sent    atomic.Int64
	dropped atomic.Int64
}

// New creates a Ring with the given capacity. Capacity must be
// positive.
func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("ringchan: capacity must be > 0")
	}
	return &Ring[T]{ch: make(chan T, capacity)}
}

// C returns the receive side. Consumers range over it until Close.
func (r *Ring[T]) C() <-chan T {
	return r.ch
}

// Send inserts v, discarding the oldest buffered element when full.
func (r *Ring[T]) Send(v T) {
	for {
		select {
		case r.ch <- v:
			r.sent.Add(1)
			return
		default:
		}
		select {
		case <-r.ch:
			r.dropped.Add(1)
		default:
			// A concurrent reader drained the buffer first; retry the
			// send.
		}
	}
}

// Receive blocks until a value arrives or the ring is closed.
func (r *Ring[T]) Receive() (T, bool) {
	v, ok := <-r.ch
	return v, ok
}

// TryReceive returns immediately, with ok false when nothing is
// buffered.
func (r *Ring[T]) TryReceive() (T, bool) {
	select {
	case v, ok := <-r.ch:
		return v, ok
	default:
		var zero T
		return zero, false
	}
}

// Len returns the number of buffered elements.
func (r *Ring[T]) Len() int { return len(r.ch) }

// Cap returns the buffer capacity.
func (r *Ring[T]) Cap() int { return cap(r.ch) }

// Close closes the ring. Sending after Close panics.
func (r *Ring[T]) Close() { close(r.ch) }

// Sent returns how many values have been accepted in total.
func (r *Ring[T]) Sent() int64 { return r.sent.Load() }

// Dropped returns how many buffered values were discarded unread.
func (r *Ring[T]) Dropped() int64 { return r.dropped.Load() }
