package broadcast

import "context"

// Signal is a coalescing wake primitive: any number of Raise calls between
// two Waits collapse into a single wake. It notifies, it does not enqueue.
type Signal struct {
	ch chan struct{}
}

func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Raise marks work as pending. Never blocks; a raise while one is already
// pending is dropped.
func (s *Signal) Raise() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Wait blocks the single consumer until at least one Raise happened since
// the previous Wait returned, then clears the pending mark.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
