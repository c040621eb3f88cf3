// Package broadcast pkg/broadcast/slot.go
package broadcast

import "sync"

// Slot is a single-writer, many-reader cell holding the most recent value of
// one metric. Readers always see the latest complete value; there is no
// queue and no tearing. The version counter increases by one per publish so
// consumers can tell whether a slot changed between two reads.
type Slot[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
}

// NewSlot creates a slot pre-filled with a default value, so a consumer
// never observes an uninitialized metric.
func NewSlot[T any](initial T) *Slot[T] {
	return &Slot[T]{value: initial}
}

// Publish overwrites the current value and bumps the version. Only the
// scheduler dispatch for the owning metric kind may call this.
func (s *Slot[T]) Publish(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = value
	s.version++
}

// Read returns the most recently published value without blocking the
// publisher.
func (s *Slot[T]) Read() T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.value
}

// Version returns the number of publications so far; zero means the slot
// still holds its initial default.
func (s *Slot[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.version
}
