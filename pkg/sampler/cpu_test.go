package sampler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCPULoad_Sample(t *testing.T) {
	statPath := filepath.Join(t.TempDir(), "stat")

	// 1000 total jiffies, 600 idle (500 idle + 100 iowait).
	writeFile(t, statPath, "cpu  200 0 200 500 100 0 0 0 0 0\ncpu0 200 0 200 500 100 0 0 0 0 0\n")

	load, err := NewCPULoadFromPath(statPath)
	require.NoError(t, err)

	// +1000 total, +200 idle since the baseline: 80% busy.
	writeFile(t, statPath, "cpu  800 0 400 650 150 0 0 0 0 0\n")

	sample, err := load.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 80.0, sample.Percent, 0.01)
}

func TestCPULoad_NoElapsedTime(t *testing.T) {
	statPath := filepath.Join(t.TempDir(), "stat")
	writeFile(t, statPath, "cpu  100 0 100 100 0 0 0 0 0 0\n")

	load, err := NewCPULoadFromPath(statPath)
	require.NoError(t, err)

	// Identical counters: zero delta must read as 0%, not NaN.
	sample, err := load.Sample(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sample.Percent)
}

func TestCPULoad_MalformedStat(t *testing.T) {
	statPath := filepath.Join(t.TempDir(), "stat")
	writeFile(t, statPath, "intr 12345\n")

	_, err := NewCPULoadFromPath(statPath)
	assert.ErrorIs(t, err, errMalformedStat)
}

func TestCPULoad_StatefulAcrossSamples(t *testing.T) {
	statPath := filepath.Join(t.TempDir(), "stat")
	writeFile(t, statPath, "cpu  0 0 0 1000 0 0 0 0 0 0\n")

	load, err := NewCPULoadFromPath(statPath)
	require.NoError(t, err)

	// Fully idle window.
	writeFile(t, statPath, "cpu  0 0 0 2000 0 0 0 0 0 0\n")
	sample, err := load.Sample(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sample.Percent)

	// Fully busy window relative to the new baseline.
	writeFile(t, statPath, "cpu  1000 0 0 2000 0 0 0 0 0 0\n")
	sample, err = load.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 100.0, sample.Percent, 0.01)
}

func TestCPUTemp_MaxOverCPUZones(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "thermal_zone0", "type"), "x86_pkg_temp\n")
	writeFile(t, filepath.Join(root, "thermal_zone0", "temp"), "45000\n")
	writeFile(t, filepath.Join(root, "thermal_zone1", "type"), "cpu-thermal\n")
	writeFile(t, filepath.Join(root, "thermal_zone1", "temp"), "52000\n")

	// A non-CPU zone must not win even when it is hotter.
	writeFile(t, filepath.Join(root, "thermal_zone2", "type"), "acpitz\n")
	writeFile(t, filepath.Join(root, "thermal_zone2", "temp"), "99000\n")

	sample, err := NewCPUTempFromPath(root).Sample(context.Background())
	require.NoError(t, err)
	assert.True(t, sample.Available)
	assert.InDelta(t, 52.0, sample.Celsius, 0.01)
}

func TestCPUTemp_NoZonesIsUnavailableNotError(t *testing.T) {
	tests := []struct {
		name string
		root string
	}{
		{name: "missing directory", root: filepath.Join(t.TempDir(), "does-not-exist")},
		{name: "empty directory", root: t.TempDir()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample, err := NewCPUTempFromPath(tt.root).Sample(context.Background())
			require.NoError(t, err)
			assert.False(t, sample.Available)
		})
	}
}
