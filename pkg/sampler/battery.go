package sampler

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sysline/sysline/pkg/models"
)

const defaultBatteryPath = "/sys/class/power_supply/BAT0"

// Battery samples charge level and state from sysfs. A host without a
// battery is not an error: the sampler reports the not-present sentinel so
// the slot shows N/A instead of stale data.
type Battery struct {
	supplyPath string
}

func NewBattery() *Battery {
	return NewBatteryFromPath(defaultBatteryPath)
}

func NewBatteryFromPath(path string) *Battery {
	return &Battery{supplyPath: path}
}

func (b *Battery) Sample(_ context.Context) (models.Battery, error) {
	if _, err := os.Stat(b.supplyPath); err != nil {
		return models.Battery{State: models.ChargeNotPresent}, nil
	}

	rawCapacity, err := os.ReadFile(filepath.Join(b.supplyPath, "capacity"))
	if err != nil {
		return models.Battery{}, err
	}

	percent, err := strconv.Atoi(strings.TrimSpace(string(rawCapacity)))
	if err != nil {
		return models.Battery{}, err
	}

	rawStatus, err := os.ReadFile(filepath.Join(b.supplyPath, "status"))
	if err != nil {
		return models.Battery{}, err
	}

	return models.Battery{
		Percent: percent,
		State:   chargeState(strings.TrimSpace(string(rawStatus))),
	}, nil
}

func chargeState(status string) models.ChargeState {
	switch status {
	case "Charging":
		return models.ChargeCharging
	case "Discharging":
		return models.ChargeDischarging
	case "Full":
		return models.ChargeFull
	default:
		return models.ChargeUnknown
	}
}
