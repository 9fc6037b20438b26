// Package engine drives the rice-yield simulation: a lock-guarded
// state machine advanced by a periodic clock, producing one yield
// observation per completed planting cycle and maintaining streaming
// statistics over all of them.
package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/paddysim/internal/entropy"
	"github.com/talgya/paddysim/internal/simulation"
	"github.com/talgya/paddysim/internal/stats"
)

// Status is the run-control state.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

// Mode selects the clock granularity for a run: day mode advances one
// simulated day per tick; cycle mode completes whole cycles at a fixed
// per-cycle duration.
type Mode string

const (
	ModeDay   Mode = "day"
	ModeCycle Mode = "cycle"
)

const (
	// gapDays is the fallow gap between the end of one cycle and the
	// planting date of the next.
	gapDays = 30

	// minSpeed is the floor for the speed multiplier.
	minSpeed = 0.5
)

// CycleRecord is the immutable outcome of one completed cycle, carrying
// the parameter snapshot it was generated under.
type CycleRecord struct {
	CycleIndex         int                   `json:"cycleIndex"` // 1-based
	YieldTons          float64               `json:"yieldTons"`
	YieldSacks         float64               `json:"yieldSacks"` // tons × 20
	Season             simulation.Season     `json:"season"`
	Weather            simulation.Weather    `json:"weather"` // dominant category
	DominantSeverity   simulation.Severity   `json:"dominantTyphoonSeverity"`
	TyphoonDays        int                   `json:"typhoonDays"`
	SevereTyphoonDays  int                   `json:"severeTyphoonDays"`
	ENSOState          simulation.ENSO       `json:"ensoState"`
	IrrigationType     simulation.Irrigation `json:"irrigationType"`
	PlantingMonth      int                   `json:"plantingMonth"`
	TyphoonProbability float64               `json:"typhoonProbability"`
	Region             string                `json:"region,omitempty"`
}

// Engine owns all simulation state. Every public operation and the
// clock driver take the single mutex for their whole critical section;
// nothing under the lock performs I/O.
type Engine struct {
	mu      sync.Mutex
	src     entropy.Source
	profile simulation.Profile

	status Status
	mode   Mode
	speed  float64
	runID  uuid.UUID

	params  Parameters
	pending Patch

	// In-progress cycle.
	cycleIndex       int // completed cycles so far
	day              int // 0..DaysPerCycle within the current cycle
	currentWeather   simulation.Weather
	currentYield     *float64
	weatherTimeline  []simulation.Weather  // realized days of the cycle in progress
	severityTimeline []simulation.Severity // "" for non-typhoon days
	seqWeather       []simulation.Weather  // pre-generated sequence (cycle mode)
	seqSeverity      []simulation.Severity

	// Calendar anchors.
	cycleStart         time.Time
	firstCycleStart    time.Time
	lastCompletedStart *time.Time

	// Per-cycle tallies, reset at each cycle boundary.
	cycleWeather  map[simulation.Weather]int
	cycleSeverity map[simulation.Severity]int

	// Whole-run tallies.
	weatherCounts       map[simulation.Weather]int // dominant weather per completed cycle
	dailyWeatherCounts  map[simulation.Weather]int // every simulated day
	dailySeverityCounts map[simulation.Severity]int

	records []CycleRecord
	acc     *stats.Accumulator
	summary *stats.Summary // cached; frozen once finished

	// Clock accumulators.
	dayAccum     time.Duration
	cycleElapsed time.Duration
}

// New creates an idle engine. A nil src uses the default crypto-seeded
// source; tests pass a fixed one.
func New(src entropy.Source) *Engine {
	if src == nil {
		src = entropy.New()
	}
	e := &Engine{
		src:     src,
		profile: simulation.DefaultProfile(),
		status:  StatusIdle,
		mode:    ModeDay,
		speed:   1.0,
		params:  DefaultParameters(),
	}
	e.resetInternals()
	return e
}

// Start begins a day-granularity run, discarding any previous state.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.mode = ModeDay
	e.resetInternals()
	e.runID = uuid.New()
	e.status = StatusRunning
	slog.Info("run started", "run_id", e.runID, "mode", e.mode,
		"cycles_target", e.params.CyclesTarget, "days_per_cycle", e.params.DaysPerCycle)
}

// StartInstant begins a cycle-granularity run, discarding any previous
// state and pre-generating the first cycle's day sequence.
func (e *Engine) StartInstant() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.mode = ModeCycle
	e.resetInternals()
	e.runID = uuid.New()
	e.status = StatusRunning
	e.prepareCycle()
	slog.Info("run started", "run_id", e.runID, "mode", e.mode,
		"cycles_target", e.params.CyclesTarget, "days_per_cycle", e.params.DaysPerCycle)
}

// Pause freezes wall-clock advancement. A no-op unless running.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == StatusRunning {
		e.status = StatusPaused
		slog.Info("run paused", "run_id", e.runID, "cycle", e.cycleIndex, "day", e.day)
	}
}

// Resume continues a paused run. A no-op unless paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == StatusPaused {
		e.status = StatusRunning
		slog.Info("run resumed", "run_id", e.runID, "cycle", e.cycleIndex, "day", e.day)
	}
}

// Reset returns to idle and clears all runtime and statistics state,
// regardless of the current status.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.status = StatusIdle
	e.runID = uuid.Nil
	e.resetInternals()
	slog.Info("run reset")
}

// SetSpeed updates the speed multiplier, clamped to the documented floor.
func (e *Engine) SetSpeed(multiplier float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if multiplier < minSpeed {
		multiplier = minSpeed
	}
	e.speed = multiplier
	slog.Debug("speed changed", "multiplier", multiplier)
}

// UpdateParameters applies a partial parameter update.
// TyphoonProbability always applies immediately: it only shapes future
// random draws. Every other field applies immediately while idle or
// finished, and is otherwise deferred to the next cycle boundary so a
// cycle in flight never mixes two configurations.
func (e *Engine) UpdateParameters(p Patch) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p.TyphoonProbability != nil {
		e.params.TyphoonProbability = clampPercent(*p.TyphoonProbability)
		p.TyphoonProbability = nil
	}
	if p.IsZero() {
		return
	}

	active := e.status == StatusRunning || e.status == StatusPaused
	if active {
		e.pending = e.pending.merge(p)
		slog.Debug("parameter update deferred to cycle boundary")
		return
	}

	e.params.apply(p)
	e.pending = Patch{}
	if p.PlantingMonth != nil {
		e.anchorCycleStart()
	}
}

// resetInternals clears all runtime state, folds any pending parameter
// overlay into the active set, and re-anchors the calendar. Callers
// hold the lock.
func (e *Engine) resetInternals() {
	e.cycleIndex = 0
	e.day = 0
	e.currentWeather = ""
	e.currentYield = nil
	e.weatherTimeline = nil
	e.severityTimeline = nil
	e.seqWeather = nil
	e.seqSeverity = nil

	e.cycleWeather = zeroWeatherCounts()
	e.cycleSeverity = zeroSeverityCounts()
	e.weatherCounts = zeroWeatherCounts()
	e.dailyWeatherCounts = zeroWeatherCounts()
	e.dailySeverityCounts = zeroSeverityCounts()

	e.records = nil
	e.acc = stats.New()
	e.summary = nil

	e.dayAccum = 0
	e.cycleElapsed = 0

	e.params.apply(e.pending)
	e.pending = Patch{}
	e.anchorCycleStart()
}

// anchorCycleStart points the calendar at the 1st of the planting month
// in the current year.
func (e *Engine) anchorCycleStart() {
	now := time.Now().UTC()
	e.cycleStart = time.Date(now.Year(), time.Month(e.params.PlantingMonth), 1, 0, 0, 0, 0, time.UTC)
	e.firstCycleStart = e.cycleStart
	e.lastCompletedStart = nil
}

// typhoonFraction converts the percent parameter to the 0–1 fraction
// the weather model consumes, scaled by the region's typhoon exposure.
func (e *Engine) typhoonFraction() float64 {
	frac := clampPercent(e.params.TyphoonProbability) / 100
	if e.params.Region != "" {
		frac *= simulation.RegionClimate(e.params.Region).TyphoonFactor
	}
	return frac
}

// monthForDay returns the calendar month of a day offset into the
// current cycle.
func (e *Engine) monthForDay(dayIndex int) time.Month {
	return e.cycleStart.AddDate(0, 0, dayIndex).Month()
}

// dominantWeather is the category with the highest tally this cycle;
// ties break in fixed category order.
func (e *Engine) dominantWeather() simulation.Weather {
	best := simulation.WeatherOrder[0]
	for _, w := range simulation.WeatherOrder {
		if e.cycleWeather[w] > e.cycleWeather[best] {
			best = w
		}
	}
	return best
}

// recordDay folds one realized day into the per-cycle and daily tallies
// and the bounded in-progress timeline.
func (e *Engine) recordDay(w simulation.Weather, sev simulation.Severity) {
	e.currentWeather = w
	e.cycleWeather[w]++
	e.dailyWeatherCounts[w]++
	if sev != "" {
		e.cycleSeverity[sev]++
		e.dailySeverityCounts[sev]++
	}

	e.weatherTimeline = append(e.weatherTimeline, w)
	e.severityTimeline = append(e.severityTimeline, sev)
	if limit := e.params.DaysPerCycle; limit > 0 {
		if len(e.weatherTimeline) > limit {
			e.weatherTimeline = e.weatherTimeline[len(e.weatherTimeline)-limit:]
		}
		if len(e.severityTimeline) > limit {
			e.severityTimeline = e.severityTimeline[len(e.severityTimeline)-limit:]
		}
	}
}

// tickDay advances exactly one simulated day. Callers hold the lock.
func (e *Engine) tickDay() {
	if e.cycleIndex >= e.params.CyclesTarget {
		e.finish()
		return
	}

	month := e.monthForDay(e.day)
	w := e.profile.SampleWeather(e.src, month, e.typhoonFraction())
	var sev simulation.Severity
	if w == simulation.WeatherTyphoon {
		sev = e.profile.SampleSeverity(e.src)
	}
	e.recordDay(w, sev)
	e.day++

	if e.day >= e.params.DaysPerCycle {
		e.finalizeCycle()
	}
}

// prepareCycle eagerly generates the full day sequence for the next
// cycle (cycle mode). All days draw from one parameter snapshot.
func (e *Engine) prepareCycle() {
	days := e.params.DaysPerCycle
	frac := e.typhoonFraction()

	e.seqWeather = make([]simulation.Weather, 0, days)
	e.seqSeverity = make([]simulation.Severity, 0, days)
	e.cycleWeather = zeroWeatherCounts()
	e.cycleSeverity = zeroSeverityCounts()

	for d := 0; d < days; d++ {
		w := e.profile.SampleWeather(e.src, e.monthForDay(d), frac)
		e.seqWeather = append(e.seqWeather, w)
		e.cycleWeather[w]++
		var sev simulation.Severity
		if w == simulation.WeatherTyphoon {
			sev = e.profile.SampleSeverity(e.src)
			e.cycleSeverity[sev]++
		}
		e.seqSeverity = append(e.seqSeverity, sev)
	}

	e.day = 0
	e.currentWeather = ""
	if len(e.seqWeather) > 0 {
		e.currentWeather = e.seqWeather[0]
	}
	e.weatherTimeline = nil
	e.severityTimeline = nil
}

// cycleDuration is the wall-clock time one whole cycle takes in cycle
// mode: 0.3s base scaled by speed, clamped to [0.2s, 0.5s].
func (e *Engine) cycleDuration() time.Duration {
	speed := e.speed
	if speed < 0.1 {
		speed = 0.1
	}
	d := time.Duration(float64(300*time.Millisecond) / speed)
	if d < 200*time.Millisecond {
		d = 200 * time.Millisecond
	}
	if d > 500*time.Millisecond {
		d = 500 * time.Millisecond
	}
	return d
}

// tickCycle advances cycle-mode progress by an elapsed wall-clock
// delta, finalizing as many whole cycles as that delta covers, strictly
// in order. Callers hold the lock.
func (e *Engine) tickCycle(delta time.Duration) {
	if e.cycleIndex >= e.params.CyclesTarget {
		e.finish()
		return
	}

	if len(e.seqWeather) == 0 {
		e.prepareCycle()
	}

	dur := e.cycleDuration()
	e.cycleElapsed += delta

	for e.cycleElapsed >= dur && e.status == StatusRunning {
		e.day = e.params.DaysPerCycle
		e.weatherTimeline = append([]simulation.Weather(nil), e.seqWeather...)
		e.severityTimeline = append([]simulation.Severity(nil), e.seqSeverity...)
		e.finalizeCycle()

		if e.cycleIndex >= e.params.CyclesTarget {
			e.finish()
			return
		}

		e.cycleElapsed -= dur
		e.prepareCycle()
		dur = e.cycleDuration()
	}

	// Fractional progress through the pre-generated sequence.
	progress := float64(e.cycleElapsed) / float64(dur)
	if progress > 1 {
		progress = 1
	}
	dayIndex := int(progress * float64(e.params.DaysPerCycle))
	if dayIndex > e.params.DaysPerCycle {
		dayIndex = e.params.DaysPerCycle
	}
	if dayIndex != e.day {
		e.day = dayIndex
		if idx := dayIndex - 1; idx >= 0 && idx < len(e.seqWeather) {
			e.currentWeather = e.seqWeather[idx]
		}
		e.weatherTimeline = append([]simulation.Weather(nil), e.seqWeather[:dayIndex]...)
		e.severityTimeline = append([]simulation.Severity(nil), e.seqSeverity[:dayIndex]...)
	}
}

// finalizeCycle turns the completed cycle's tallies into a yield
// observation, feeds the statistics, applies any pending parameters,
// and advances the calendar. Callers hold the lock.
func (e *Engine) finalizeCycle() {
	start := e.cycleStart
	e.lastCompletedStart = &start

	dominant := e.dominantWeather()
	season := e.profile.Season(e.cycleStart.Month())

	typhoonDays := e.cycleSeverity[simulation.SeverityModerate] + e.cycleSeverity[simulation.SeveritySevere]
	var dominantSeverity simulation.Severity
	if typhoonDays > 0 {
		if e.cycleSeverity[simulation.SeveritySevere] >= e.cycleSeverity[simulation.SeverityModerate] {
			dominantSeverity = simulation.SeveritySevere
		} else {
			dominantSeverity = simulation.SeverityModerate
		}
	}

	result := simulation.ComputeYield(e.src, dominant, dominantSeverity, simulation.YieldInputs{
		Irrigation: e.params.IrrigationType,
		ENSO:       e.params.ENSOState,
		Region:     e.params.Region,
	})
	yield := result.Final
	e.currentYield = &yield

	e.weatherCounts[dominant]++
	if e.mode == ModeCycle {
		// Day mode counted days as they happened; cycle mode folds the
		// pre-generated sequence in now.
		for w, n := range e.cycleWeather {
			e.dailyWeatherCounts[w] += n
		}
		for sev, n := range e.cycleSeverity {
			e.dailySeverityCounts[sev] += n
		}
	}

	cycleNumber := e.cycleIndex + 1
	e.acc.Observe(cycleNumber, result.Final, result.Deterministic, result.Noise)

	e.records = append(e.records, CycleRecord{
		CycleIndex:         cycleNumber,
		YieldTons:          yield,
		YieldSacks:         yield * 20,
		Season:             season,
		Weather:            dominant,
		DominantSeverity:   dominantSeverity,
		TyphoonDays:        typhoonDays,
		SevereTyphoonDays:  e.cycleSeverity[simulation.SeveritySevere],
		ENSOState:          e.params.ENSOState,
		IrrigationType:     e.params.IrrigationType,
		PlantingMonth:      int(e.cycleStart.Month()),
		TyphoonProbability: e.params.TyphoonProbability,
		Region:             e.params.Region,
	})

	e.summary = e.acc.Summarize()
	if e.summary != nil {
		e.acc.AppendBand(cycleNumber, *e.summary)
	}

	// Pending parameters apply only here, at the cycle boundary.
	prevDays := e.params.DaysPerCycle
	prevMonth := e.params.PlantingMonth
	e.params.apply(e.pending)
	e.pending = Patch{}
	e.advanceCycleStart(prevDays, e.params.PlantingMonth != prevMonth)

	e.cycleIndex++
	e.day = 0
	e.cycleWeather = zeroWeatherCounts()
	e.cycleSeverity = zeroSeverityCounts()
	e.weatherTimeline = nil
	e.severityTimeline = nil
	e.seqWeather = nil
	e.seqSeverity = nil

	if e.cycleIndex >= e.params.CyclesTarget {
		e.finish()
	}
}

// advanceCycleStart moves the planting date past the completed cycle
// plus the fallow gap. If the planting month changed, snap forward to
// the next 1st of that month.
func (e *Engine) advanceCycleStart(prevDaysPerCycle int, monthChanged bool) {
	next := e.cycleStart.AddDate(0, 0, prevDaysPerCycle+gapDays)
	if monthChanged {
		candidate := time.Date(next.Year(), time.Month(e.params.PlantingMonth), 1, 0, 0, 0, 0, time.UTC)
		if candidate.Before(next) {
			candidate = candidate.AddDate(1, 0, 0)
		}
		next = candidate
	}
	e.cycleStart = next
}

// finish freezes the run and its cached summary.
func (e *Engine) finish() {
	if e.status == StatusFinished {
		return
	}
	e.status = StatusFinished
	e.summary = e.acc.Summarize()
	slog.Info("run finished", "run_id", e.runID, "cycles", e.cycleIndex,
		"mean_yield", e.acc.Mean())
}

func zeroWeatherCounts() map[simulation.Weather]int {
	return map[simulation.Weather]int{
		simulation.WeatherDry:     0,
		simulation.WeatherNormal:  0,
		simulation.WeatherWet:     0,
		simulation.WeatherTyphoon: 0,
	}
}

func zeroSeverityCounts() map[simulation.Severity]int {
	return map[simulation.Severity]int{
		simulation.SeverityModerate: 0,
		simulation.SeveritySevere:   0,
	}
}
