// Package scheduler pkg/scheduler/scheduler.go
//
// The scheduler runs N independent periodic samplers on one base tick.
// Each metric kind has its own cadence; due-ness is decided on wall-clock
// deltas so a suspended host triggers one catch-up dispatch per overdue
// metric instead of one per missed tick. Dispatches of different kinds run
// concurrently; dispatches of the same kind never overlap.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sysline/sysline/pkg/broadcast"
	"github.com/sysline/sysline/pkg/models"
)

const DefaultBaseTick = 500 * time.Millisecond

// Job couples a metric kind and its cadence with the dispatch closure that
// samples, publishes, and raises the change signal.
type Job struct {
	Kind    models.MetricKind
	Cadence time.Duration
	run     func(ctx context.Context) error
}

// NewJob binds a typed source to its slot. On success the new value is
// published and the signal raised; on failure nothing is published and the
// slot keeps its previous value.
func NewJob[T any](
	kind models.MetricKind,
	cadence time.Duration,
	source Source[T],
	slot *broadcast.Slot[T],
	signal *broadcast.Signal) Job {
	return Job{
		Kind:    kind,
		Cadence: cadence,
		run: func(ctx context.Context) error {
			value, err := source.Sample(ctx)
			if err != nil {
				return err
			}

			slot.Publish(value)
			signal.Raise()

			return nil
		},
	}
}

// Scheduler owns the last-run table and the per-kind in-flight guards. One
// instance per process, constructed explicitly with injected jobs.
type Scheduler struct {
	baseTick time.Duration
	jobs     []Job

	mu       sync.Mutex
	lastRun  map[models.MetricKind]time.Time
	inFlight map[models.MetricKind]bool

	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

func New(baseTick time.Duration, jobs []Job) (*Scheduler, error) {
	if baseTick <= 0 {
		return nil, errInvalidBaseTick
	}

	if len(jobs) == 0 {
		return nil, errNoJobs
	}

	seen := make(map[models.MetricKind]bool, len(jobs))

	for _, job := range jobs {
		if job.Cadence <= 0 {
			return nil, fmt.Errorf("%w: %s", errNonPositiveCadence, job.Kind)
		}

		if seen[job.Kind] {
			return nil, fmt.Errorf("%w: %s", errDuplicateKind, job.Kind)
		}

		seen[job.Kind] = true

		if baseTick > job.Cadence {
			return nil, fmt.Errorf("%w: base tick %v, %s cadence %v",
				errBaseTickTooCoarse, baseTick, job.Kind, job.Cadence)
		}
	}

	return &Scheduler{
		baseTick: baseTick,
		jobs:     jobs,
		lastRun:  make(map[models.MetricKind]time.Time, len(jobs)),
		inFlight: make(map[models.MetricKind]bool, len(jobs)),
		done:     make(chan struct{}),
	}, nil
}

// Start runs the base-tick loop until the context is canceled or Stop is
// called. The loop itself never blocks on a dispatch.
func (s *Scheduler) Start(ctx context.Context) error {
	log.Printf("Scheduler started with base tick %v and %d metrics", s.baseTick, len(s.jobs))

	// Every metric is due on the first tick; fire before the first ticker
	// interval so consumers get data immediately.
	s.tick(ctx, time.Now())

	ticker := time.NewTicker(s.baseTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-ticker.C:
			s.tick(ctx, time.Now())
		}
	}
}

// tick checks due-ness for every kind independently and dispatches the due
// ones on their own goroutines.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	for i := range s.jobs {
		job := &s.jobs[i]

		s.mu.Lock()

		if s.inFlight[job.Kind] {
			// A dispatch is still outstanding; lastRun is not advanced, so
			// the kind fires on the first tick after it completes.
			s.mu.Unlock()
			continue
		}

		last, ran := s.lastRun[job.Kind]
		if ran && now.Sub(last) < job.Cadence {
			s.mu.Unlock()
			continue
		}

		// Stamp lastRun at dispatch time, before the sample completes.
		// A failed sample therefore waits a full cadence, never retries hot.
		s.lastRun[job.Kind] = now
		s.inFlight[job.Kind] = true

		s.mu.Unlock()

		s.wg.Add(1)

		go s.dispatch(ctx, job)
	}
}

func (s *Scheduler) dispatch(ctx context.Context, job *Job) {
	defer s.wg.Done()

	defer func() {
		s.mu.Lock()
		s.inFlight[job.Kind] = false
		s.mu.Unlock()
	}()

	if err := job.run(ctx); err != nil {
		log.Printf("Sampling %s failed: %v", job.Kind, err)
	}
}

// LastRun returns the dispatch timestamp for a kind, or a zero time if it
// has never been dispatched.
func (s *Scheduler) LastRun(kind models.MetricKind) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastRun[kind]
}

// Stop ends the tick loop and waits for in-flight dispatches, bounded by the
// context deadline.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.done)
	})

	finished := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
