package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sysline/sysline/pkg/models"
)

var (
	errInvalidDuration    = errors.New("invalid duration")
	errUnknownMetricKind  = errors.New("unknown metric kind in cadence table")
	errNonPositiveCadence = errors.New("cadence must be positive")
	errBaseTickTooCoarse  = errors.New("base tick must not exceed the smallest cadence")
)

type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

// NotifyConfig controls the desktop notification thresholds.
type NotifyConfig struct {
	Enabled         bool     `json:"enabled"`
	BatteryLow      int      `json:"battery_low"`      // percent, warn at or below
	BatteryCritical int      `json:"battery_critical"` // percent, critical at or below
	CPUHigh         float64  `json:"cpu_high"`         // percent, warn above
	Cooldown        Duration `json:"cooldown"`         // minimum gap between repeats of one alert
}

// SyslineConfig is the daemon configuration.
type SyslineConfig struct {
	BaseTick      Duration                       `json:"base_tick"`   // scheduler due-check resolution
	ListenAddr    string                         `json:"listen_addr"` // e.g., :8090
	Cadences      map[models.MetricKind]Duration `json:"cadences"`
	Notifications NotifyConfig                   `json:"notifications"`
}

// DefaultCadences mirrors the sampling periods of the original status bar.
func DefaultCadences() map[models.MetricKind]Duration {
	return map[models.MetricKind]Duration{
		models.KindBattery: Duration(time.Hour),
		models.KindCPULoad: Duration(10 * time.Second),
		models.KindMemory:  Duration(10 * time.Second),
		models.KindCPUTemp: Duration(30 * time.Second),
		models.KindNetRate: Duration(2 * time.Second),
		models.KindClock:   Duration(60 * time.Second),
		models.KindIP:      Duration(60 * time.Second),
	}
}

// Validate applies defaults and checks the invariants of the cadence table.
func (c *SyslineConfig) Validate() error {
	if c.BaseTick <= 0 {
		c.BaseTick = Duration(500 * time.Millisecond)
	}

	if c.ListenAddr == "" {
		c.ListenAddr = ":8090"
	}

	defaults := DefaultCadences()
	if c.Cadences == nil {
		c.Cadences = defaults
	} else {
		for kind, cadence := range c.Cadences {
			if !kind.Valid() {
				return fmt.Errorf("%w: %q", errUnknownMetricKind, kind)
			}

			if cadence <= 0 {
				return fmt.Errorf("%w: %q", errNonPositiveCadence, kind)
			}
		}

		for kind, cadence := range defaults {
			if _, ok := c.Cadences[kind]; !ok {
				c.Cadences[kind] = cadence
			}
		}
	}

	for kind, cadence := range c.Cadences {
		if c.BaseTick > cadence {
			return fmt.Errorf("%w: base tick %v, %s cadence %v",
				errBaseTickTooCoarse, time.Duration(c.BaseTick), kind, time.Duration(cadence))
		}
	}

	if c.Notifications.Enabled {
		if c.Notifications.BatteryLow == 0 {
			c.Notifications.BatteryLow = 15
		}

		if c.Notifications.BatteryCritical == 0 {
			c.Notifications.BatteryCritical = 6
		}

		if c.Notifications.CPUHigh == 0 {
			c.Notifications.CPUHigh = 90.0
		}

		if c.Notifications.Cooldown <= 0 {
			c.Notifications.Cooldown = Duration(5 * time.Minute)
		}
	}

	return nil
}
