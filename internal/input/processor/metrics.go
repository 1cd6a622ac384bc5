package processor

import (
	"sync/atomic"
	"time"
)

// Metrics counts processor outcomes. A nil *Metrics records nothing.
type Metrics struct {
	outcomes [Described + 1]atomic.Uint64

	// Peak processing time of a single event, in nanoseconds.
	peakLatency atomic.Int64

	startTime time.Time
	enabled   atomic.Bool
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{startTime: time.Now()}
	m.enabled.Store(true)
	return m
}

// SetEnabled enables or disables metrics collection.
func (m *Metrics) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

// Record counts one processed event.
func (m *Metrics) Record(o Outcome, latency time.Duration) {
	if m == nil || !m.enabled.Load() {
		return
	}
	if o >= 0 && int(o) < len(m.outcomes) {
		m.outcomes[o].Add(1)
	}

	ns := latency.Nanoseconds()
	for {
		current := m.peakLatency.Load()
		if ns <= current {
			break
		}
		if m.peakLatency.CompareAndSwap(current, ns) {
			break
		}
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Events      uint64
	Outcomes    map[Outcome]uint64
	PeakLatency time.Duration
	Uptime      time.Duration
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{Outcomes: make(map[Outcome]uint64)}
	if m == nil {
		return s
	}
	for i := range m.outcomes {
		n := m.outcomes[i].Load()
		if n > 0 {
			s.Outcomes[Outcome(i)] = n
		}
		s.Events += n
	}
	s.PeakLatency = time.Duration(m.peakLatency.Load())
	s.Uptime = time.Since(m.startTime)
	return s
}

// Reset zeroes the counters.
func (m *Metrics) Reset() {
	for i := range m.outcomes {
		m.outcomes[i].Store(0)
	}
	m.peakLatency.Store(0)
	m.startTime = time.Now()
}
