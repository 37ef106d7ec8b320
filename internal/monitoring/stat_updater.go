package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is a snapshot of the machine the API runs on.
type HostStats struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	UptimeSeconds uint64    `json:"uptime_seconds"`
	SampledAt     time.Time `json:"sampled_at"`
}

// StatUpdater periodically samples host CPU, memory and uptime so the
// health endpoint never blocks on a measurement.
type StatUpdater struct {
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once

	mu     sync.RWMutex
	latest HostStats
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(interval time.Duration) *StatUpdater {
	return &StatUpdater{
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Run starts the periodic updates.
func (su *StatUpdater) Run() {
	log.Info().Dur("interval", su.interval).Msg("Starting background stat updater...")
	ticker := time.NewTicker(su.interval)
	defer ticker.Stop()

	// Run once immediately on start
	su.update()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-ticker.C:
			su.update()
		}
	}
}

// Stop halts the periodic updates.
func (su *StatUpdater) Stop() {
	su.stopOnce.Do(func() { close(su.done) })
}

// Latest returns the most recent snapshot. SampledAt is zero before the first sample.
func (su *StatUpdater) Latest() HostStats {
	su.mu.RLock()
	defer su.mu.RUnlock()
	return su.latest
}

func (su *StatUpdater) update() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats := HostStats{SampledAt: time.Now().UTC()}

	if percents, err := cpu.PercentWithContext(ctx, time.Second, false); err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Could not read CPU usage")
	} else if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Could not read memory usage")
	} else {
		stats.MemoryPercent = vm.UsedPercent
	}

	if uptime, err := host.UptimeWithContext(ctx); err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Could not read uptime")
	} else {
		stats.UptimeSeconds = uptime
	}

	su.mu.Lock()
	su.latest = stats
	su.mu.Unlock()
}
