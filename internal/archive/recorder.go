package archive

import (
	"context"
	"log/slog"
	"time"

	"github.com/talgya/paddysim/internal/engine"
)

// defaultPollInterval paces the recorder's snapshot polling. The
// recorder deliberately polls instead of hooking into the engine so
// no database I/O ever happens under the engine lock.
const defaultPollInterval = time.Second

// Recorder tails the engine's snapshots and archives newly finalized
// cycles and run summaries.
type Recorder struct {
	DB       *DB
	Eng      *engine.Engine
	Interval time.Duration

	runID     string
	savedUpTo int // highest cycle index archived for runID
	runClosed bool
}

// Run polls until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("archive recorder started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			r.flush() // catch anything finalized since the last poll
			slog.Info("archive recorder stopped")
			return
		case <-ticker.C:
			r.flush()
		}
	}
}

// flush archives everything new in the current snapshot.
func (r *Recorder) flush() {
	snap := r.Eng.Snapshot()
	if snap.RunID == "" {
		// Idle with no run yet, or reset cleared the run.
		r.runID = ""
		return
	}

	if snap.RunID != r.runID {
		if err := r.DB.InsertRun(snap); err != nil {
			slog.Error("archive run insert failed", "error", err)
			return
		}
		r.runID = snap.RunID
		r.savedUpTo = 0
		r.runClosed = false
	}

	var fresh []engine.CycleRecord
	for _, rec := range snap.CycleRecords {
		if rec.CycleIndex > r.savedUpTo {
			fresh = append(fresh, rec)
		}
	}
	if len(fresh) > 0 {
		if err := r.DB.AppendCycles(r.runID, fresh); err != nil {
			slog.Error("archive cycle append failed", "error", err)
			return
		}
		r.savedUpTo = fresh[len(fresh)-1].CycleIndex
		slog.Debug("cycles archived", "run_id", r.runID, "through", r.savedUpTo)
	}

	if snap.Status == engine.StatusFinished && !r.runClosed {
		if err := r.DB.FinishRun(r.runID, snap); err != nil {
			slog.Error("archive run finish failed", "error", err)
			return
		}
		r.runClosed = true
		slog.Info("run archived", "run_id", r.runID, "cycles", r.savedUpTo)
	}
}
