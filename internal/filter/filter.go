// Package filter provides median filtering for the two analog sensor
// channels (reference voltage and temperature signal). A median over a small
// window rejects single-sample spikes without the lag of a mean filter, at
// the cost of a warm-up delay of one full window before the first valid
// reading.
// This package has no hardware dependencies; raw samples are pushed in by
// the caller once per scan.
package filter

import "sort"

const (
	// MinWindow is the smallest usable median window.
	MinWindow = 3
	// MaxWindow bounds the pre-allocated history buffers.
	MaxWindow = 10
)

// Reading is the filter output for one scan.
type Reading struct {
	VrefMV   uint16 // filtered reference voltage (mV)
	SignalMV uint16 // filtered signal voltage (mV)
	Valid    bool   // true once the history window is full
}

// SensorFilter keeps a fixed-capacity circular sample history per channel.
// Not safe for concurrent use — it is owned by the scan loop.
type SensorFilter struct {
	windowSize int

	vrefHistory   [MaxWindow]uint16
	signalHistory [MaxWindow]uint16
	historyCount  int
	historyIndex  int // circular write position

	scratch [MaxWindow]uint16 // sort buffer, reused across scans
}

// New creates a SensorFilter with the requested window size, clamped to
// [MinWindow, MaxWindow].
func New(windowSize int) *SensorFilter {
	if windowSize > MaxWindow {
		windowSize = MaxWindow
	}
	if windowSize < MinWindow {
		windowSize = MinWindow
	}
	return &SensorFilter{windowSize: windowSize}
}

// WindowSize returns the clamped window size.
func (f *SensorFilter) WindowSize() int {
	return f.windowSize
}

// Reset clears the sample history without changing the window size.
func (f *SensorFilter) Reset() {
	f.historyCount = 0
	f.historyIndex = 0
	f.vrefHistory = [MaxWindow]uint16{}
	f.signalHistory = [MaxWindow]uint16{}
}

// Update appends one raw sample pair and returns the filtered reading.
// Until the window has filled, the raw inputs are passed through with
// Valid=false; sampling still accumulates history during warm-up.
func (f *SensorFilter) Update(rawVrefMV, rawSignalMV uint16) Reading {
	f.vrefHistory[f.historyIndex] = rawVrefMV
	f.signalHistory[f.historyIndex] = rawSignalMV
	f.historyIndex = (f.historyIndex + 1) % f.windowSize
	if f.historyCount < f.windowSize {
		f.historyCount++
	}

	if f.historyCount < f.windowSize {
		return Reading{VrefMV: rawVrefMV, SignalMV: rawSignalMV, Valid: false}
	}

	return Reading{
		VrefMV:   f.median(f.vrefHistory[:f.windowSize]),
		SignalMV: f.median(f.signalHistory[:f.windowSize]),
		Valid:    true,
	}
}

// median returns the statistical median of buf: the central order statistic
// for odd lengths, the mean of the two central order statistics for even.
func (f *SensorFilter) median(buf []uint16) uint16 {
	n := len(buf)
	sorted := f.scratch[:n]
	copy(sorted, buf)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if n%2 == 0 {
		// Sum in a wider type so 2×65535 cannot overflow.
		return uint16((uint32(sorted[n/2-1]) + uint32(sorted[n/2])) / 2)
	}
	return sorted[n/2]
}
