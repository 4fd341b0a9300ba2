// Package monitor provides advisory soft real-time monitors for the
// evolution loop: a timing monitor that watches per-step jitter and margin,
// and a state synchronizer that audits internal consistency. Neither ever
// halts the loop; violations are logged and surfaced as booleans.
package monitor

import (
	"log/slog"
	"math"
	"sync"

	"github.com/nvandessel/phasebridge/internal/constants"
)

// TimingStats summarizes the retained step duration samples.
type TimingStats struct {
	MeanStepNS float64 `json:"mean_step_time_ns"`
	Jitter     float64 `json:"jitter"`
	Margin     float64 `json:"timing_margin"`
	Samples    int     `json:"samples"`
}

// TimingMonitor keeps a sliding window of step durations and judges them
// against the step budget. Healthy means jitter (stddev over mean) at or
// below 1% and at least 20% of the budget left unused.
type TimingMonitor struct {
	mu      sync.Mutex
	samples []int64
	logger  *slog.Logger

	budgetNS     float64
	jitterLimit  float64
	marginFloor  float64
	window       int
	minJudgeSize int
}

// NewTimingMonitor creates a monitor with the default window and thresholds.
func NewTimingMonitor(logger *slog.Logger) *TimingMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimingMonitor{
		logger:       logger,
		budgetNS:     constants.TargetStepBudgetNS,
		jitterLimit:  constants.JitterThreshold,
		marginFloor:  constants.TimingMarginMin,
		window:       constants.TimingWindow,
		minJudgeSize: 10,
	}
}

// Measure records one step duration and reports whether timing constraints
// hold. With fewer than 10 samples it always reports healthy.
func (m *TimingMonitor) Measure(actualNS int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.samples = append(m.samples, actualNS)
	if len(m.samples) > m.window {
		m.samples = m.samples[1:]
	}
	if len(m.samples) < m.minJudgeSize {
		return true
	}

	stats := m.statsLocked()
	if stats.Jitter > m.jitterLimit {
		m.logger.Warn("high step timing jitter",
			"jitter", stats.Jitter,
			"threshold", m.jitterLimit)
		return false
	}
	if stats.Margin < m.marginFloor {
		m.logger.Warn("low step timing margin",
			"margin", stats.Margin,
			"minimum", m.marginFloor)
		return false
	}
	return true
}

// Stats returns the current timing statistics.
func (m *TimingMonitor) Stats() TimingStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statsLocked()
}

func (m *TimingMonitor) statsLocked() TimingStats {
	n := len(m.samples)
	if n == 0 {
		return TimingStats{}
	}

	var sum float64
	for _, s := range m.samples {
		sum += float64(s)
	}
	mean := sum / float64(n)

	jitter := 0.0
	if n > 1 && mean > 0 {
		var sq float64
		for _, s := range m.samples {
			d := float64(s) - mean
			sq += d * d
		}
		// Sample standard deviation.
		jitter = math.Sqrt(sq/float64(n-1)) / mean
	}

	return TimingStats{
		MeanStepNS: mean,
		Jitter:     jitter,
		Margin:     (m.budgetNS - mean) / m.budgetNS,
		Samples:    n,
	}
}
