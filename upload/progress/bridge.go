package progress

import (
	"sync"
	"time"
)

// Bridge sits between a transfer strategy and the host UI callbacks. It clamps
// the raw percent stream into a monotonically non-decreasing one, feeds the
// speed/ETA meter and forwards every update unchanged otherwise. Because it
// only consumes the uniform strategy contract, it works the same for
// single-shot and chunked transfers.
type Bridge struct {
	meter      *Meter
	total      int64
	last       int
	onProgress func(percent int)
	onStatus   func(message string, phase Phase)
	mu         sync.Mutex
}

// NewBridge creates a Bridge for a transfer of totalBytes. Either callback may
// be nil.
func NewBridge(totalBytes int64, onProgress func(percent int), onStatus func(message string, phase Phase)) *Bridge {
	return &Bridge{
		meter:      NewMeter(totalBytes),
		total:      totalBytes,
		onProgress: onProgress,
		onStatus:   onStatus,
	}
}

// Progress reports a raw percent value from a transfer strategy. Values lower
// than an already reported one are dropped, so a rewound retry can never move
// the progress bar backwards. Values above 100 are capped.
func (b *Bridge) Progress(percent int) {
	b.mu.Lock()
	if percent < b.last {
		b.mu.Unlock()
		return
	}
	if percent > 100 {
		percent = 100
	}
	b.last = percent
	b.meter.Sample(b.total * int64(percent) / 100)
	cb := b.onProgress
	b.mu.Unlock()

	if cb != nil {
		cb(percent)
	}
}

// Status forwards a status message and phase to the host callback.
func (b *Bridge) Status(message string, phase Phase) {
	if b.onStatus != nil {
		b.onStatus(message, phase)
	}
}

// Percent returns the last reported progress value.
func (b *Bridge) Percent() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Speed returns the current transfer speed in bytes per second.
func (b *Bridge) Speed() (float64, bool) {
	return b.meter.Speed()
}

// ETA returns the estimated remaining transfer time.
func (b *Bridge) ETA() (time.Duration, bool) {
	return b.meter.ETA()
}
