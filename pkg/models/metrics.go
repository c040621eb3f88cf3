// Package models pkg/models/metrics.go
package models

import (
	"fmt"
	"time"
)

// MetricKind identifies one of the monitored OS properties.
type MetricKind string

const (
	KindCPULoad MetricKind = "cpu_load"
	KindCPUTemp MetricKind = "cpu_temp"
	KindMemory  MetricKind = "memory"
	KindNetRate MetricKind = "net_rate"
	KindBattery MetricKind = "battery"
	KindClock   MetricKind = "clock"
	KindIP      MetricKind = "ip"
)

// AllKinds lists every metric kind in display order.
var AllKinds = []MetricKind{
	KindMemory,
	KindNetRate,
	KindIP,
	KindCPULoad,
	KindCPUTemp,
	KindBattery,
	KindClock,
}

// Valid reports whether k is a known metric kind.
func (k MetricKind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}

	return false
}

// Unavailable is the sentinel shown for string-valued metrics that could not
// be determined (missing default route, no src address, ...).
const Unavailable = "N/A"

// CPULoad is the overall CPU utilization since the previous sample.
type CPULoad struct {
	Percent float64 `json:"percent"` // 0-100
}

// CPUTemp is the hottest CPU-related thermal zone reading. Available is
// false when the host exposes no CPU thermal zone at all.
type CPUTemp struct {
	Celsius   float64 `json:"celsius"`
	Available bool    `json:"available"`
}

func (t CPUTemp) String() string {
	if !t.Available {
		return Unavailable
	}

	return fmt.Sprintf("%.1f°C", t.Celsius)
}

// Memory holds the amount of memory available for new workloads.
type Memory struct {
	AvailableMB uint64 `json:"available_mb"`
}

// AvailableGB returns the available memory in gigabytes.
func (m Memory) AvailableGB() float64 {
	return float64(m.AvailableMB) / 1024.0
}

// NetRate is the aggregate throughput over all non-loopback interfaces.
type NetRate struct {
	RxMBps float64 `json:"rx_mbps"`
	TxMBps float64 `json:"tx_mbps"`
}

// ChargeState describes what the battery is currently doing.
type ChargeState string

const (
	ChargeNotPresent  ChargeState = "not_present"
	ChargeCharging    ChargeState = "charging"
	ChargeDischarging ChargeState = "discharging"
	ChargeFull        ChargeState = "full"
	ChargeUnknown     ChargeState = "unknown"
)

// Battery combines the charge percentage with its charge state.
type Battery struct {
	Percent int         `json:"percent"`
	State   ChargeState `json:"state"`
}

// Present reports whether the host has a battery at all.
func (b Battery) Present() bool {
	return b.State != ChargeNotPresent && b.State != ""
}

func (b Battery) String() string {
	switch b.State {
	case ChargeNotPresent, "":
		return Unavailable
	case ChargeFull:
		return "Full"
	case ChargeCharging:
		return fmt.Sprintf("+%d%%", b.Percent)
	default:
		return fmt.Sprintf("%d%%", b.Percent)
	}
}

// Snapshot is a point-in-time copy of every metric slot, taken by the
// renderer on each wake and served by the status API.
type Snapshot struct {
	CPULoad  CPULoad               `json:"cpu_load"`
	CPUTemp  CPUTemp               `json:"cpu_temp"`
	Memory   Memory                `json:"memory"`
	NetRate  NetRate               `json:"net_rate"`
	Battery  Battery               `json:"battery"`
	Clock    string                `json:"clock"`
	IP       string                `json:"ip"`
	Versions map[MetricKind]uint64 `json:"versions"`
	TakenAt  time.Time             `json:"taken_at"`
}
