// cmd/sysline/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/sysline/sysline/pkg/api"
	"github.com/sysline/sysline/pkg/broadcast"
	"github.com/sysline/sysline/pkg/config"
	"github.com/sysline/sysline/pkg/lifecycle"
	"github.com/sysline/sysline/pkg/models"
	"github.com/sysline/sysline/pkg/notify"
	"github.com/sysline/sysline/pkg/render"
	"github.com/sysline/sysline/pkg/sampler"
	"github.com/sysline/sysline/pkg/scheduler"
)

func main() {
	configPath := flag.String("config", "/etc/sysline/sysline.json", "Path to config file")
	flag.Parse()

	// Optional .env for local development overrides.
	_ = godotenv.Load()

	cfg, err := loadConfig(config.EnvOverride("SYSLINE_CONFIG", *configPath))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ListenAddr = config.EnvOverride("SYSLINE_LISTEN_ADDR", cfg.ListenAddr)

	slots := broadcast.NewSlotSet()
	signal := broadcast.NewSignal()

	jobs, err := buildJobs(cfg, slots, signal)
	if err != nil {
		log.Fatalf("Failed to initialize samplers: %v", err)
	}

	sched, err := scheduler.New(time.Duration(cfg.BaseTick), jobs)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	apiServer := api.NewServer(cfg.ListenAddr, slots)

	sinks := []render.Sink{apiServer}
	if cfg.Notifications.Enabled {
		sinks = append(sinks, notify.New(cfg.Notifications, nil))
	}

	renderer := render.New(slots, signal, os.Stdout, sinks...)

	err = lifecycle.RunDaemon(context.Background(), &lifecycle.DaemonOptions{
		Name:     "sysline",
		Services: []lifecycle.Service{sched, renderer, apiServer},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("sysline failed: %v", err)
	}
}

// loadConfig falls back to built-in defaults when no config file exists, so
// the daemon runs usefully with zero setup.
func loadConfig(path string) (*config.SyslineConfig, error) {
	var cfg config.SyslineConfig

	err := config.LoadAndValidate(path, &cfg)
	if err == nil {
		return &cfg, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	log.Printf("No config file at %s, using defaults", path)

	cfg = config.SyslineConfig{}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func buildJobs(
	cfg *config.SyslineConfig,
	slots *broadcast.SlotSet,
	signal *broadcast.Signal) ([]scheduler.Job, error) {
	// Stateful samplers prime their counters with a first blocking read.
	cpuLoad, err := sampler.NewCPULoad()
	if err != nil {
		return nil, err
	}

	netRate, err := sampler.NewNetRate()
	if err != nil {
		return nil, err
	}

	cadence := func(kind models.MetricKind) time.Duration {
		return time.Duration(cfg.Cadences[kind])
	}

	return []scheduler.Job{
		scheduler.NewJob(models.KindCPULoad, cadence(models.KindCPULoad), cpuLoad, slots.CPULoad, signal),
		scheduler.NewJob(models.KindCPUTemp, cadence(models.KindCPUTemp), sampler.NewCPUTemp(), slots.CPUTemp, signal),
		scheduler.NewJob(models.KindMemory, cadence(models.KindMemory), sampler.NewMemory(), slots.Memory, signal),
		scheduler.NewJob(models.KindNetRate, cadence(models.KindNetRate), netRate, slots.NetRate, signal),
		scheduler.NewJob(models.KindBattery, cadence(models.KindBattery), sampler.NewBattery(), slots.Battery, signal),
		scheduler.NewJob(models.KindClock, cadence(models.KindClock), sampler.NewClock(), slots.Clock, signal),
		scheduler.NewJob(models.KindIP, cadence(models.KindIP), sampler.NewIP(), slots.IP, signal),
	}, nil
}
