// Package scheduler pkg/scheduler/interfaces.go
package scheduler

import "context"

//go:generate mockgen -destination=mock_scheduler.go -package=scheduler github.com/sysline/sysline/pkg/scheduler Source

// Source produces one sample of a metric. A source may keep carried-forward
// state between calls (previous counters, previous timestamps); the
// scheduler guarantees Sample is never invoked concurrently with itself for
// the same metric kind, so that state needs no locking. It may run
// concurrently with sources of other kinds.
type Source[T any] interface {
	// Sample reads current OS state and returns a new value. Blocking is
	// allowed; a slow source only delays its own metric's next update.
	Sample(ctx context.Context) (T, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc[T any] func(ctx context.Context) (T, error)

func (f SourceFunc[T]) Sample(ctx context.Context) (T, error) {
	return f(ctx)
}
