// Package render pkg/render/renderer.go
package render

import (
	"context"
	"fmt"
	"io"

	"github.com/sysline/sysline/pkg/broadcast"
	"github.com/sysline/sysline/pkg/models"
)

// Renderer is the single consumer of the change signal. On each wake it
// reads every slot once, formats one status line, writes it to out, and
// forwards line and snapshot to the registered sinks.
type Renderer struct {
	slots  *broadcast.SlotSet
	signal *broadcast.Signal
	out    io.Writer
	sinks  []Sink
}

func New(slots *broadcast.SlotSet, signal *broadcast.Signal, out io.Writer, sinks ...Sink) *Renderer {
	return &Renderer{
		slots:  slots,
		signal: signal,
		out:    out,
		sinks:  sinks,
	}
}

// Start blocks on the change signal until the context is canceled.
func (r *Renderer) Start(ctx context.Context) error {
	for {
		if err := r.signal.Wait(ctx); err != nil {
			return err
		}

		r.renderOnce(ctx)
	}
}

// Stop satisfies the daemon service contract; the render loop exits with
// its context.
func (r *Renderer) Stop(context.Context) error {
	return nil
}

func (r *Renderer) renderOnce(ctx context.Context) {
	snap := r.slots.Snapshot()
	line := FormatLine(snap)

	fmt.Fprintln(r.out, line)

	for _, sink := range r.sinks {
		sink.Publish(ctx, line, snap)
	}
}

// FormatLine lays out the status line:
// memory, network rates, IP, CPU load, CPU temp, battery, clock.
func FormatLine(snap models.Snapshot) string {
	return fmt.Sprintf("%.1fG  -%.1f +%.1f  %s  %.0f%%  %s  %s  %s",
		snap.Memory.AvailableGB(),
		snap.NetRate.TxMBps,
		snap.NetRate.RxMBps,
		snap.IP,
		snap.CPULoad.Percent,
		snap.CPUTemp.String(),
		snap.Battery.String(),
		snap.Clock,
	)
}
