package orchestrator

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/a11y-auditor/auditor/internal/config"
)

// resourceMonitor samples process memory via runtime.MemStats on
// SampleInterval. Once MemoryThreshold is breached for a full
// DrainWindow, it pauses its own scheduling checks for a cool-down
// period (also DrainWindow) and issues a GC hint, then resumes
// sampling — it never cancels the run outright, since a transient
// memory spike shouldn't abort an otherwise-healthy crawl. No pack
// repo imports a process-metrics library, so this samples the Go
// runtime's own accounting directly rather than reaching for one.
//
// CPU sampling is intentionally left unimplemented: runtime.MemStats
// carries no CPU figure, and computing one accurately needs OS-level
// sampling (e.g. reading /proc/stat deltas) that is only meaningful on
// Linux. MemoryThreshold alone already covers the runaway-Chromium
// failure mode spec's resource guard exists for.
type resourceMonitor struct {
	cfg config.ResourceConfig
	log *zap.SugaredLogger
}

func newResourceMonitor(cfg config.ResourceConfig, log *zap.SugaredLogger) *resourceMonitor {
	return &resourceMonitor{cfg: cfg, log: log}
}

// Start launches the sampling loop and returns a channel closed once
// ctx is cancelled. cancel is accepted for the caller's convenience
// (so Start's signature matches the context it owns) but the monitor
// itself never calls it: a sustained memory breach triggers a
// cool-down pause and a GC hint, not a run cancellation.
func (m *resourceMonitor) Start(ctx context.Context, cancel context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	interval := m.cfg.SampleInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	go func() {
		defer close(done)
		if m.cfg.MemoryThreshold <= 0 {
			<-ctx.Done()
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var overSince time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pct := m.memoryPercent()
				if pct < m.cfg.MemoryThreshold {
					overSince = time.Time{}
					continue
				}
				if overSince.IsZero() {
					overSince = time.Now()
					m.log.Warnw("orchestrator: memory threshold exceeded, starting drain window",
						"percent", pct, "threshold", m.cfg.MemoryThreshold, "drain_window", m.cfg.DrainWindow)
					continue
				}
				if time.Since(overSince) >= m.cfg.DrainWindow {
					m.log.Warnw("orchestrator: memory threshold sustained past drain window, pausing for cooldown",
						"percent", pct, "threshold", m.cfg.MemoryThreshold, "cooldown", m.cfg.DrainWindow)
					runtime.GC()
					select {
					case <-ctx.Done():
						return
					case <-time.After(m.cfg.DrainWindow):
					}
					overSince = time.Time{}
				}
			}
		}
	}()
	return done
}

// memoryPercent approximates the process's memory pressure as
// heap-in-use against the runtime's total system reservation, the
// figures runtime.MemStats actually exposes without an OS-specific
// read.
func (m *resourceMonitor) memoryPercent() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.Sys == 0 {
		return 0
	}
	return float64(ms.HeapInuse) / float64(ms.Sys) * 100
}
