package stream

import "time"

// Metrics is a snapshot of throughput for the command currently in
// flight.
type Metrics struct {
	Elapsed         time.Duration
	TotalBytes      int64
	TokenEstimate   int64
	TokensPerSecond float64
}

// throughputSample is one chunk arrival recorded for the sliding
// window average.
type throughputSample struct {
	at    time.Time
	bytes int64
}

const throughputWindow = 2 * time.Second

// metricsTracker accumulates byte counts for the command currently
// running and derives a token-count estimate (bytes/4, the
// conventional rough approximation) and a trailing windowed
// tokens/sec rate.
type metricsTracker struct {
	startedAt  time.Time
	totalBytes int64
	samples    []throughputSample
	now        func() time.Time
}

func newMetricsTracker() *metricsTracker {
	return &metricsTracker{now: time.Now}
}

// reset arms the tracker for a new command cycle.
func (m *metricsTracker) reset() {
	m.startedAt = m.now()
	m.totalBytes = 0
	m.samples = nil
}

// record registers n new bytes of output.
func (m *metricsTracker) record(n int) {
	if n <= 0 {
		return
	}
	now := m.now()
	m.totalBytes += int64(n)
	m.samples = append(m.samples, throughputSample{at: now, bytes: int64(n)})

	cutoff := now.Add(-throughputWindow)
	i := 0
	for i < len(m.samples) && m.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		m.samples = m.samples[i:]
	}
}

// Snapshot returns the current metrics for the in-flight command.
func (m *metricsTracker) Snapshot() Metrics {
	now := m.now()
	var elapsed time.Duration
	if !m.startedAt.IsZero() {
		elapsed = now.Sub(m.startedAt)
	}

	var windowBytes int64
	var windowStart time.Time
	for _, s := range m.samples {
		windowBytes += s.bytes
		if windowStart.IsZero() || s.at.Before(windowStart) {
			windowStart = s.at
		}
	}

	var tps float64
	if len(m.samples) > 0 {
		span := now.Sub(windowStart)
		if span <= 0 {
			span = time.Millisecond
		}
		tps = (float64(windowBytes) / 4) / span.Seconds()
	}

	return Metrics{
		Elapsed:         elapsed,
		TotalBytes:      m.totalBytes,
		TokenEstimate:   m.totalBytes / 4,
		TokensPerSecond: tps,
	}
}
