package sampler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sysline/sysline/pkg/models"
)

const (
	defaultNetPath = "/sys/class/net"
	bytesPerMB     = 1024 * 1024

	// minElapsed bounds the rate divisor so a dispatch landing right after
	// the previous one cannot produce an absurd spike.
	minElapsed = 100 * time.Millisecond
)

// NetRate samples aggregate receive/transmit throughput by diffing the byte
// counters of every non-loopback interface under /sys/class/net. It carries
// the previous counters and timestamp forward between samples.
type NetRate struct {
	netPath  string
	prevRx   uint64
	prevTx   uint64
	prevTime time.Time
}

// NewNetRate primes the counters with a first read; the first scheduled
// sample then yields a real rate instead of the lifetime total.
func NewNetRate() (*NetRate, error) {
	return NewNetRateFromPath(defaultNetPath)
}

func NewNetRateFromPath(path string) (*NetRate, error) {
	n := &NetRate{netPath: path}

	rx, tx, err := n.readCounters()
	if err != nil {
		return nil, fmt.Errorf("failed to prime network counters: %w", err)
	}

	n.prevRx = rx
	n.prevTx = tx
	n.prevTime = time.Now()

	return n, nil
}

func (n *NetRate) Sample(_ context.Context) (models.NetRate, error) {
	rx, tx, err := n.readCounters()
	if err != nil {
		return models.NetRate{}, err
	}

	elapsed := time.Since(n.prevTime)
	if elapsed < minElapsed {
		elapsed = minElapsed
	}

	rate := models.NetRate{
		RxMBps: counterDelta(rx, n.prevRx) / bytesPerMB / elapsed.Seconds(),
		TxMBps: counterDelta(tx, n.prevTx) / bytesPerMB / elapsed.Seconds(),
	}

	n.prevRx = rx
	n.prevTx = tx
	n.prevTime = time.Now()

	return rate, nil
}

// counterDelta treats a backwards jump (interface removed, counter wrapped)
// as zero traffic for that window.
func counterDelta(current, previous uint64) float64 {
	if current < previous {
		return 0
	}

	return float64(current - previous)
}

func (n *NetRate) readCounters() (rx, tx uint64, err error) {
	entries, err := os.ReadDir(n.netPath)
	if err != nil {
		return 0, 0, err
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "lo") {
			continue
		}

		stats := filepath.Join(n.netPath, entry.Name(), "statistics")

		rx += readCounterFile(filepath.Join(stats, "rx_bytes"))
		tx += readCounterFile(filepath.Join(stats, "tx_bytes"))
	}

	return rx, tx, nil
}

// readCounterFile returns 0 for interfaces without statistics rather than
// failing the whole sample.
func readCounterFile(path string) uint64 {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0
	}

	v, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0
	}

	return v
}
