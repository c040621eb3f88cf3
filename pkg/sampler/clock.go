package sampler

import (
	"context"
	"time"
)

// Clock formats the local wall clock as HH:MM. Stateless.
type Clock struct {
	now func() time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NewClockAt builds a clock with an injected time source, for tests.
func NewClockAt(now func() time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Sample(_ context.Context) (string, error) {
	return c.now().Format("15:04"), nil
}
