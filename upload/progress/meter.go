package progress

import (
	"sync"
	"time"
)

const (
	// minSamples is the number of progress samples required before speed and
	// ETA are reported. Early estimates based on one or two samples swing
	// wildly and are withheld instead.
	minSamples = 3

	// windowSize bounds the sliding window of samples the speed is computed
	// over, so long transfers react to recent throughput changes.
	windowSize = 20
)

type sample struct {
	at   time.Time
	sent int64
}

// Meter derives transfer speed and ETA from a sliding window of byte-progress
// samples. Safe for concurrent use.
type Meter struct {
	total   int64
	samples []sample
	mu      sync.Mutex
	now     func() time.Time
}

// NewMeter creates a Meter for a transfer of the given total size in bytes.
func NewMeter(totalBytes int64) *Meter {
	return &Meter{total: totalBytes, now: time.Now}
}

// Sample records the total number of bytes sent so far.
func (m *Meter) Sample(bytesSent int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.samples = append(m.samples, sample{at: m.now(), sent: bytesSent})
	if len(m.samples) > windowSize {
		m.samples = m.samples[len(m.samples)-windowSize:]
	}
}

// Speed returns the transfer speed in bytes per second computed over the
// sample window. The second return value is false until enough samples have
// accumulated for a stable estimate.
func (m *Meter) Speed() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speed()
}

func (m *Meter) speed() (float64, bool) {
	if len(m.samples) < minSamples {
		return 0, false
	}

	first := m.samples[0]
	last := m.samples[len(m.samples)-1]
	elapsed := last.at.Sub(first.at).Seconds()
	if elapsed <= 0 {
		return 0, false
	}

	return float64(last.sent-first.sent) / elapsed, true
}

// ETA returns the estimated remaining transfer time based on the current
// speed. The second return value is false while the speed is unknown.
func (m *Meter) ETA() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	speed, ok := m.speed()
	if !ok || speed <= 0 {
		return 0, false
	}

	remaining := m.total - m.samples[len(m.samples)-1].sent
	if remaining < 0 {
		remaining = 0
	}

	return time.Duration(float64(remaining) / speed * float64(time.Second)), true
}
