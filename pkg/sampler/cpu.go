// Package sampler pkg/sampler/cpu.go
package sampler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sysline/sysline/pkg/models"
)

const (
	defaultStatPath    = "/proc/stat"
	defaultThermalPath = "/sys/class/thermal"
)

// CPULoad samples overall CPU utilization from the aggregate cpu line of
// /proc/stat. It carries the previous counters forward; utilization is the
// non-idle share of the delta since the last sample. The scheduler
// serializes dispatches per kind, so the carried state needs no lock.
type CPULoad struct {
	statPath  string
	prevIdle  uint64
	prevTotal uint64
}

// NewCPULoad primes the counters with a first blocking read so the first
// scheduled sample already has a baseline.
func NewCPULoad() (*CPULoad, error) {
	return NewCPULoadFromPath(defaultStatPath)
}

func NewCPULoadFromPath(path string) (*CPULoad, error) {
	idle, total, err := readCPUStat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to prime CPU counters: %w", err)
	}

	return &CPULoad{statPath: path, prevIdle: idle, prevTotal: total}, nil
}

func (c *CPULoad) Sample(_ context.Context) (models.CPULoad, error) {
	idle, total, err := readCPUStat(c.statPath)
	if err != nil {
		return models.CPULoad{}, err
	}

	prevIdle, prevTotal := c.prevIdle, c.prevTotal
	c.prevIdle = idle
	c.prevTotal = total

	if total <= prevTotal || idle < prevIdle {
		// Counter reset or no time elapsed; report idle rather than garbage.
		return models.CPULoad{}, nil
	}

	usage := (1.0 - float64(idle-prevIdle)/float64(total-prevTotal)) * 100.0
	if usage < 0 {
		usage = 0
	}

	return models.CPULoad{Percent: usage}, nil
}

// readCPUStat returns the idle (idle+iowait) and total jiffies from the
// first line of /proc/stat.
func readCPUStat(path string) (idle, total uint64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}

	line, _, _ := strings.Cut(string(data), "\n")

	fields := strings.Fields(line)
	if len(fields) < 6 || fields[0] != "cpu" {
		// Need at least user..iowait to compute the idle share.
		return 0, 0, errMalformedStat
	}

	values := make([]uint64, 0, len(fields)-1)

	for _, f := range fields[1:] {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q", errMalformedStat, f)
		}

		values = append(values, v)
		total += v
	}

	idle = values[3] + values[4] // idle + iowait

	return idle, total, nil
}

// CPUTemp reports the hottest CPU-related thermal zone. Hosts without any
// such zone are not an error; the sampler returns the unavailable sentinel.
type CPUTemp struct {
	thermalPath string
}

func NewCPUTemp() *CPUTemp {
	return NewCPUTempFromPath(defaultThermalPath)
}

func NewCPUTempFromPath(path string) *CPUTemp {
	return &CPUTemp{thermalPath: path}
}

func (t *CPUTemp) Sample(_ context.Context) (models.CPUTemp, error) {
	entries, err := os.ReadDir(t.thermalPath)
	if err != nil {
		return models.CPUTemp{}, nil
	}

	var (
		maxTemp float64
		found   bool
	)

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "thermal_zone") {
			continue
		}

		zone := filepath.Join(t.thermalPath, entry.Name())

		zoneType, err := os.ReadFile(filepath.Join(zone, "type"))
		if err != nil {
			continue
		}

		typ := string(zoneType)
		if !strings.Contains(typ, "cpu") && !strings.Contains(typ, "x86_pkg_temp") {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(zone, "temp"))
		if err != nil {
			continue
		}

		milli, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
		if err != nil {
			continue
		}

		celsius := milli / 1000.0
		if !found || celsius > maxTemp {
			maxTemp = celsius
		}

		found = true
	}

	if !found {
		return models.CPUTemp{}, nil
	}

	return models.CPUTemp{Celsius: maxTemp, Available: true}, nil
}
