// Package notify pkg/notify/notifier.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sysline/sysline/pkg/config"
	"github.com/sysline/sysline/pkg/models"
)

const (
	urgencyLow      = "low"
	urgencyNormal   = "normal"
	urgencyCritical = "critical"
)

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Notifier watches each snapshot for alert conditions (low battery, hot
// CPU) and raises desktop notifications through notify-send. Each alert key
// is rate limited so a condition that stays true does not notify on every
// publication.
type Notifier struct {
	config config.NotifyConfig
	runner CommandRunner

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(cfg config.NotifyConfig, runner CommandRunner) *Notifier {
	if runner == nil {
		runner = execRunner{}
	}

	return &Notifier{
		config:   cfg,
		runner:   runner,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Publish implements the renderer sink contract.
func (n *Notifier) Publish(ctx context.Context, _ string, snap models.Snapshot) {
	if !n.config.Enabled {
		return
	}

	n.checkBattery(ctx, snap.Battery)
	n.checkCPU(ctx, snap.CPULoad)
}

func (n *Notifier) checkBattery(ctx context.Context, battery models.Battery) {
	if battery.State != models.ChargeDischarging {
		return
	}

	switch {
	case battery.Percent <= n.config.BatteryCritical:
		n.alert(ctx, "battery-critical", urgencyCritical,
			"Battery critical", fmt.Sprintf("%d%% remaining", battery.Percent))
	case battery.Percent <= n.config.BatteryLow:
		n.alert(ctx, "battery-low", urgencyLow,
			"Battery low", fmt.Sprintf("%d%% remaining", battery.Percent))
	}
}

func (n *Notifier) checkCPU(ctx context.Context, load models.CPULoad) {
	if load.Percent <= n.config.CPUHigh {
		return
	}

	n.alert(ctx, "cpu-high", urgencyNormal,
		"CPU usage high", fmt.Sprintf("load at %.0f%%", load.Percent))
}

func (n *Notifier) alert(ctx context.Context, key, urgency, summary, body string) {
	if err := n.send(ctx, key, urgency, summary, body); err != nil {
		if errors.Is(err, errAlertCooldown) {
			return
		}

		log.Printf("Failed to send %s notification: %v", key, err)
	}
}

func (n *Notifier) send(ctx context.Context, key, urgency, summary, body string) error {
	if !n.limiter(key).Allow() {
		return errAlertCooldown
	}

	return n.runner.Run(ctx, "notify-send", "-u", urgency, summary, body)
}

func (n *Notifier) limiter(key string) *rate.Limiter {
	n.mu.Lock()
	defer n.mu.Unlock()

	l, ok := n.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Duration(n.config.Cooldown)), 1)
		n.limiters[key] = l
	}

	return l
}
