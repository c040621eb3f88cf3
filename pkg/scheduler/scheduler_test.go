package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sysline/sysline/pkg/broadcast"
	"github.com/sysline/sysline/pkg/models"
)

var errSampleFailed = errors.New("sample failed")

// runFor starts the scheduler, lets it run for d, then stops it.
func runFor(t *testing.T, s *Scheduler, d time.Duration) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = s.Start(ctx)
	}()

	time.Sleep(d)
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()

	require.NoError(t, s.Stop(stopCtx))
	<-done
}

func TestNew_Validation(t *testing.T) {
	signal := broadcast.NewSignal()
	slot := broadcast.NewSlot(models.Memory{})
	source := SourceFunc[models.Memory](func(context.Context) (models.Memory, error) {
		return models.Memory{}, nil
	})

	memJob := NewJob(models.KindMemory, 100*time.Millisecond, source, slot, signal)

	tests := []struct {
		name     string
		baseTick time.Duration
		jobs     []Job
		wantErr  error
	}{
		{
			name:     "no jobs",
			baseTick: 10 * time.Millisecond,
			jobs:     nil,
			wantErr:  errNoJobs,
		},
		{
			name:     "zero base tick",
			baseTick: 0,
			jobs:     []Job{memJob},
			wantErr:  errInvalidBaseTick,
		},
		{
			name:     "duplicate kind",
			baseTick: 10 * time.Millisecond,
			jobs:     []Job{memJob, memJob},
			wantErr:  errDuplicateKind,
		},
		{
			name:     "zero cadence",
			baseTick: 10 * time.Millisecond,
			jobs:     []Job{NewJob(models.KindClock, 0, source, slot, signal)},
			wantErr:  errNonPositiveCadence,
		},
		{
			name:     "base tick coarser than cadence",
			baseTick: time.Second,
			jobs:     []Job{memJob},
			wantErr:  errBaseTickTooCoarse,
		},
		{
			name:     "valid",
			baseTick: 10 * time.Millisecond,
			jobs:     []Job{memJob},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.baseTick, tt.jobs)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, s)
			}
		})
	}
}

func TestScheduler_PublishRaisesSignal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	signal := broadcast.NewSignal()
	slot := broadcast.NewSlot(models.Memory{})

	source := NewMockSource[models.Memory](ctrl)
	source.EXPECT().
		Sample(gomock.Any()).
		Return(models.Memory{AvailableMB: 4096}, nil).
		MinTimes(1)

	s, err := New(10*time.Millisecond, []Job{
		NewJob(models.KindMemory, 100*time.Millisecond, source, slot, signal),
	})
	require.NoError(t, err)

	runFor(t, s, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, signal.Wait(ctx), "publish did not raise the signal")
	assert.Equal(t, uint64(4096), slot.Read().AvailableMB)
}

func TestScheduler_FailureKeepsPreviousValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	signal := broadcast.NewSignal()
	slot := broadcast.NewSlot(models.Memory{})

	// Fails on the 3rd invocation only; the slot must show the 2nd value
	// through the failed window, then update again on the 4th.
	source := NewMockSource[models.Memory](ctrl)
	gomock.InOrder(
		source.EXPECT().Sample(gomock.Any()).Return(models.Memory{AvailableMB: 1}, nil),
		source.EXPECT().Sample(gomock.Any()).Return(models.Memory{AvailableMB: 2}, nil),
		source.EXPECT().Sample(gomock.Any()).Return(models.Memory{}, errSampleFailed),
		source.EXPECT().Sample(gomock.Any()).Return(models.Memory{AvailableMB: 4}, nil).AnyTimes(),
	)

	s, err := New(5*time.Millisecond, []Job{
		NewJob(models.KindMemory, 40*time.Millisecond, source, slot, signal),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = s.Start(ctx) }()

	// After the 3rd window the slot still holds the 2nd value.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, uint64(2), slot.Read().AvailableMB)

	// The 4th cadence window publishes again; no permanent stall.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, uint64(4), slot.Read().AvailableMB)

	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, s.Stop(stopCtx))
}

func TestScheduler_CadenceScenario(t *testing.T) {
	// Scaled version of the 21-simulated-seconds scenario: net every 40ms,
	// mem every 200ms, base tick 10ms, run 420ms. Publications must be
	// floor(runtime/cadence) plus or minus startup-alignment jitter.
	signal := broadcast.NewSignal()
	netSlot := broadcast.NewSlot(models.NetRate{})
	memSlot := broadcast.NewSlot(models.Memory{})

	netSource := SourceFunc[models.NetRate](func(context.Context) (models.NetRate, error) {
		return models.NetRate{RxMBps: 1}, nil
	})
	memSource := SourceFunc[models.Memory](func(context.Context) (models.Memory, error) {
		return models.Memory{AvailableMB: 1}, nil
	})

	s, err := New(10*time.Millisecond, []Job{
		NewJob(models.KindNetRate, 40*time.Millisecond, netSource, netSlot, signal),
		NewJob(models.KindMemory, 200*time.Millisecond, memSource, memSlot, signal),
	})
	require.NoError(t, err)

	runFor(t, s, 420*time.Millisecond)

	netCount := netSlot.Version()
	memCount := memSlot.Version()

	// Generous bounds to absorb goroutine scheduling jitter on loaded CI
	// hosts; the property under test is "roughly runtime/cadence, and never
	// faster than the cadence allows".
	assert.GreaterOrEqual(t, netCount, uint64(7), "net published too rarely: %d", netCount)
	assert.LessOrEqual(t, netCount, uint64(12), "net published faster than its cadence: %d", netCount)
	assert.GreaterOrEqual(t, memCount, uint64(2), "mem published too rarely: %d", memCount)
	assert.LessOrEqual(t, memCount, uint64(4), "mem published faster than its cadence: %d", memCount)
}

func TestScheduler_FailingKindDoesNotDegradeOthers(t *testing.T) {
	signal := broadcast.NewSignal()
	batSlot := broadcast.NewSlot(models.Battery{State: models.ChargeNotPresent})
	memSlot := broadcast.NewSlot(models.Memory{})

	batSource := SourceFunc[models.Battery](func(context.Context) (models.Battery, error) {
		return models.Battery{}, errSampleFailed
	})
	memSource := SourceFunc[models.Memory](func(context.Context) (models.Memory, error) {
		return models.Memory{AvailableMB: 512}, nil
	})

	s, err := New(10*time.Millisecond, []Job{
		NewJob(models.KindBattery, 30*time.Millisecond, batSource, batSlot, signal),
		NewJob(models.KindMemory, 30*time.Millisecond, memSource, memSlot, signal),
	})
	require.NoError(t, err)

	runFor(t, s, 150*time.Millisecond)

	// The failing battery slot never moved off its default.
	assert.Equal(t, uint64(0), batSlot.Version())
	assert.Equal(t, models.ChargeNotPresent, batSlot.Read().State)

	// Memory kept its own schedule regardless.
	assert.GreaterOrEqual(t, memSlot.Version(), uint64(3))
}

func TestScheduler_SameKindNeverOverlaps(t *testing.T) {
	signal := broadcast.NewSignal()
	slot := broadcast.NewSlot(models.CPULoad{})

	var (
		inFlight  int32
		reentered int32
		calls     int32
	)

	// The sample takes three cadence windows; a buggy scheduler would
	// launch a second dispatch while the first is still running.
	slowSource := SourceFunc[models.CPULoad](func(context.Context) (models.CPULoad, error) {
		if atomic.AddInt32(&inFlight, 1) > 1 {
			atomic.StoreInt32(&reentered, 1)
		}

		defer atomic.AddInt32(&inFlight, -1)

		atomic.AddInt32(&calls, 1)
		time.Sleep(60 * time.Millisecond)

		return models.CPULoad{Percent: 1}, nil
	})

	s, err := New(5*time.Millisecond, []Job{
		NewJob(models.KindCPULoad, 20*time.Millisecond, slowSource, slot, signal),
	})
	require.NoError(t, err)

	runFor(t, s, 200*time.Millisecond)

	assert.Zero(t, atomic.LoadInt32(&reentered), "two dispatches of one kind were in flight")
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2), "kind stalled after a slow dispatch")
}

func TestScheduler_LastRunStampedAtDispatch(t *testing.T) {
	signal := broadcast.NewSignal()
	slot := broadcast.NewSlot(models.Memory{})

	blocked := make(chan struct{})
	source := SourceFunc[models.Memory](func(ctx context.Context) (models.Memory, error) {
		<-blocked
		return models.Memory{}, nil
	})

	s, err := New(10*time.Millisecond, []Job{
		NewJob(models.KindMemory, 50*time.Millisecond, source, slot, signal),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	before := time.Now()

	go func() { _ = s.Start(ctx) }()

	// The sample has not completed, yet lastRun must already be stamped.
	time.Sleep(30 * time.Millisecond)
	last := s.LastRun(models.KindMemory)
	require.False(t, last.IsZero(), "lastRun not stamped at dispatch time")
	assert.WithinDuration(t, before, last, 25*time.Millisecond)

	close(blocked)
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, s.Stop(stopCtx))
}
