package engine

import (
	"context"
	"log/slog"
	"time"
)

// driverInterval is how often the clock driver wakes, independent of
// simulation speed. Simulated-time advancement derives from measured
// elapsed wall time, not from the wake count.
const driverInterval = 10 * time.Millisecond

// Run is the clock driver: a periodic loop that measures real elapsed
// time between wakes and advances the simulation accordingly. It is the
// sole writer of simulated-time advancement and blocks until ctx is
// cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(driverInterval)
	defer ticker.Stop()

	slog.Info("simulation clock started", "interval", driverInterval)
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation clock stopped")
			return
		case now := <-ticker.C:
			// Elapsed time while not running is discarded, which is
			// what freezes advancement during pause.
			delta := now.Sub(last)
			last = now
			e.Advance(delta)
		}
	}
}

// Advance applies one driver wake-up's worth of elapsed wall time. In
// day mode it ticks zero or more whole simulated days; in cycle mode it
// moves fractional cycle progress and finalizes any cycles the delta
// covers. A no-op unless the engine is running.
func (e *Engine) Advance(delta time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusRunning {
		return
	}

	if e.mode == ModeDay {
		e.dayAccum += delta
		perDay := e.dayDuration()
		for e.dayAccum >= perDay && e.status == StatusRunning {
			e.dayAccum -= perDay
			e.tickDay()
		}
		return
	}

	e.tickCycle(delta)
}

// dayDuration is the wall-clock length of one simulated day in day
// mode: one second scaled by the speed multiplier.
func (e *Engine) dayDuration() time.Duration {
	speed := e.speed
	if speed < 0.1 {
		speed = 0.1
	}
	return time.Duration(float64(time.Second) / speed)
}
