package broadcast

import (
	"time"

	"github.com/sysline/sysline/pkg/models"
)

// SlotSet owns one slot per metric kind. It is the only state shared between
// the scheduler's dispatches and the consumers (renderer, status API).
type SlotSet struct {
	CPULoad *Slot[models.CPULoad]
	CPUTemp *Slot[models.CPUTemp]
	Memory  *Slot[models.Memory]
	NetRate *Slot[models.NetRate]
	Battery *Slot[models.Battery]
	Clock   *Slot[string]
	IP      *Slot[string]
}

// NewSlotSet creates every slot with its defined default value.
func NewSlotSet() *SlotSet {
	return &SlotSet{
		CPULoad: NewSlot(models.CPULoad{}),
		CPUTemp: NewSlot(models.CPUTemp{}),
		Memory:  NewSlot(models.Memory{}),
		NetRate: NewSlot(models.NetRate{}),
		Battery: NewSlot(models.Battery{State: models.ChargeNotPresent}),
		Clock:   NewSlot("--:--"),
		IP:      NewSlot(models.Unavailable),
	}
}

// Snapshot reads every slot once and returns a consistent-enough copy for
// rendering: each individual value is complete, though values of different
// kinds may straddle a concurrent publish.
func (s *SlotSet) Snapshot() models.Snapshot {
	return models.Snapshot{
		CPULoad: s.CPULoad.Read(),
		CPUTemp: s.CPUTemp.Read(),
		Memory:  s.Memory.Read(),
		NetRate: s.NetRate.Read(),
		Battery: s.Battery.Read(),
		Clock:   s.Clock.Read(),
		IP:      s.IP.Read(),
		Versions: map[models.MetricKind]uint64{
			models.KindCPULoad: s.CPULoad.Version(),
			models.KindCPUTemp: s.CPUTemp.Version(),
			models.KindMemory:  s.Memory.Version(),
			models.KindNetRate: s.NetRate.Version(),
			models.KindBattery: s.Battery.Version(),
			models.KindClock:   s.Clock.Version(),
			models.KindIP:      s.IP.Version(),
		},
		TakenAt: time.Now(),
	}
}
