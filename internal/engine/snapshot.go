package engine

import (
	"github.com/google/uuid"

	"github.com/talgya/paddysim/internal/simulation"
	"github.com/talgya/paddysim/internal/stats"
)

const dateLayout = "2006-01-02"

// Snapshot is a deep, read-only copy of the live simulation state,
// shaped for the polling client. A caller never observes a structure
// the next tick can mutate.
type Snapshot struct {
	Status          Status     `json:"status"`
	Mode            Mode       `json:"mode"`
	SpeedMultiplier float64    `json:"speedMultiplier"`
	RunID           string     `json:"runId,omitempty"`
	Params          Parameters `json:"params"`
	PendingParams   Patch      `json:"pendingParams"`

	CurrentCycleIndex int                   `json:"currentCycleIndex"`
	CurrentDay        int                   `json:"currentDay"`
	DayProgress       float64               `json:"dayProgress"`
	RunProgress       float64               `json:"runProgress"`
	CurrentWeather    simulation.Weather    `json:"currentWeather"`
	CurrentYield      *float64              `json:"currentYield"`
	WeatherTimeline   []simulation.Weather  `json:"currentCycleWeatherTimeline"`
	SeverityTimeline  []simulation.Severity `json:"currentCycleTyphoonSeverityTimeline"`

	CycleStartDate              string  `json:"cycleStartDate"`
	FirstCycleStartDate         string  `json:"firstCycleStartDate"`
	LastCompletedCycleStartDate *string `json:"lastCompletedCycleStartDate"`

	RunningMean  float64 `json:"runningMean"`
	RunningSD    float64 `json:"runningSd"`
	LowYieldProb float64 `json:"lowYieldProb"`

	YieldHistoryOverTime []float64          `json:"yieldHistoryOverTime"`
	RecentYields         []float64          `json:"recentYields"`
	YieldSeries          []stats.CyclePoint `json:"yieldSeries"`
	YieldBandSeries      []stats.BandPoint  `json:"yieldBandSeries"`
	CycleRecords         []CycleRecord      `json:"cycleRecords"`

	WeatherCounts       map[simulation.Weather]int  `json:"weatherCounts"`
	DailyWeatherCounts  map[simulation.Weather]int  `json:"dailyWeatherCounts"`
	DailySeverityCounts map[simulation.Severity]int `json:"dailyTyphoonSeverityCounts"`
	HistogramBins       []stats.Bucket              `json:"histogramBins"`

	// Summary is nil until the first cycle completes.
	Summary *stats.Summary `json:"summary"`
}

// Snapshot returns an independent copy of all live state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Status:          e.status,
		Mode:            e.mode,
		SpeedMultiplier: e.speed,
		Params:          e.params,
		PendingParams:   e.pending,

		CurrentCycleIndex: e.cycleIndex,
		CurrentDay:        e.day,
		CurrentWeather:    e.currentWeather,
		WeatherTimeline:   append([]simulation.Weather(nil), e.weatherTimeline...),
		SeverityTimeline:  append([]simulation.Severity(nil), e.severityTimeline...),

		CycleStartDate:      e.cycleStart.Format(dateLayout),
		FirstCycleStartDate: e.firstCycleStart.Format(dateLayout),

		RunningMean:  e.acc.Mean(),
		RunningSD:    e.acc.SD(),
		LowYieldProb: e.acc.LowYieldProb(),

		YieldHistoryOverTime: append([]float64(nil), e.acc.MeanHistory...),
		RecentYields:         append([]float64(nil), e.acc.Recent...),
		YieldSeries:          append([]stats.CyclePoint(nil), e.acc.Series...),
		YieldBandSeries:      append([]stats.BandPoint(nil), e.acc.BandSeries...),
		CycleRecords:         append([]CycleRecord(nil), e.records...),

		WeatherCounts:       copyCounts(e.weatherCounts),
		DailyWeatherCounts:  copyCounts(e.dailyWeatherCounts),
		DailySeverityCounts: copyCounts(e.dailySeverityCounts),
		HistogramBins:       append([]stats.Bucket(nil), e.acc.Histogram...),
	}

	if e.runID != uuid.Nil {
		snap.RunID = e.runID.String()
	}
	if e.currentYield != nil {
		y := *e.currentYield
		snap.CurrentYield = &y
	}
	if e.lastCompletedStart != nil {
		d := e.lastCompletedStart.Format(dateLayout)
		snap.LastCompletedCycleStartDate = &d
	}
	if e.params.DaysPerCycle > 0 {
		snap.DayProgress = float64(e.day) / float64(e.params.DaysPerCycle)
	}
	if e.params.CyclesTarget > 0 {
		snap.RunProgress = float64(e.cycleIndex) / float64(e.params.CyclesTarget)
	}
	if e.summary != nil {
		s := *e.summary
		snap.Summary = &s
	}

	return snap
}

func copyCounts[K comparable](m map[K]int) map[K]int {
	out := make(map[K]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
