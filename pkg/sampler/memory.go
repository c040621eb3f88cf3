package sampler

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/sysline/sysline/pkg/models"
)

const defaultMeminfoPath = "/proc/meminfo"

// Memory samples the MemAvailable figure from /proc/meminfo. Stateless.
type Memory struct {
	meminfoPath string
}

func NewMemory() *Memory {
	return NewMemoryFromPath(defaultMeminfoPath)
}

func NewMemoryFromPath(path string) *Memory {
	return &Memory{meminfoPath: path}
}

func (m *Memory) Sample(_ context.Context) (models.Memory, error) {
	data, err := os.ReadFile(m.meminfoPath)
	if err != nil {
		return models.Memory{}, err
	}

	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "MemAvailable:") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}

		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return models.Memory{}, err
		}

		return models.Memory{AvailableMB: kb / 1024}, nil
	}

	return models.Memory{}, errNoMemAvailable
}
