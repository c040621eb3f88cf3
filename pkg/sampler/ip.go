package sampler

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sysline/sysline/pkg/models"
)

// routeProbeAddr is only used for route selection; no packet is sent.
const routeProbeAddr = "8.8.8.8"

// IP resolves the local source address of the default route by shelling out
// to `ip route get`. The external process is the blocking part the
// scheduler runs off its tick loop.
type IP struct {
	run func(ctx context.Context) ([]byte, error)
}

func NewIP() *IP {
	return &IP{
		run: func(ctx context.Context) ([]byte, error) {
			return exec.CommandContext(ctx, "ip", "route", "get", routeProbeAddr).Output()
		},
	}
}

// NewIPWithRunner builds the sampler with an injected command runner, for
// tests.
func NewIPWithRunner(run func(ctx context.Context) ([]byte, error)) *IP {
	return &IP{run: run}
}

func (p *IP) Sample(ctx context.Context) (string, error) {
	out, err := p.run(ctx)
	if err != nil {
		return "", fmt.Errorf("ip route probe failed: %w", err)
	}

	// The address follows the "src" token; a route without one is simply
	// unavailable, not an error.
	fields := strings.Fields(string(out))
	for i, f := range fields {
		if f == "src" && i+1 < len(fields) {
			return fields[i+1], nil
		}
	}

	return models.Unavailable, nil
}
