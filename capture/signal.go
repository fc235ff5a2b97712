package capture

import (
	"sync"
	"time"
)

// DefaultLevelInterval approximates a UI refresh cadence; the monitor
// samples analysis bins, not raw audio.
const DefaultLevelInterval = 33 * time.Millisecond

const binCount = 128

// SignalMonitor turns an Analyzer into a steady sequence of normalized
// loudness values in [0,1]. It is owned by a Recorder and stopped with
// it.
type SignalMonitor struct {
	interval time.Duration

	stopOnce sync.Once
	done     chan struct{}
}

func NewSignalMonitor(interval time.Duration) *SignalMonitor {
	if interval <= 0 {
		interval = DefaultLevelInterval
	}

	return &SignalMonitor{
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start samples the analyzer on the monitor's cadence and hands each
// level to onLevel until Stop. A stream with no analyzable data emits
// 0 rather than failing.
func (m *SignalMonitor) Start(analyzer Analyzer, onLevel func(float64)) {
	if analyzer == nil || onLevel == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		bins := make([]byte, binCount)
		for {
			select {
			case <-m.done:
				return
			case <-ticker.C:
				onLevel(level(analyzer, bins))
			}
		}
	}()
}

// Stop halts sampling and releases the analysis loop. Idempotent.
func (m *SignalMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
	})
}

// level is the arithmetic mean of the bin magnitudes, normalized by
// the maximum representable magnitude.
func level(analyzer Analyzer, bins []byte) float64 {
	n := analyzer.FrequencyBins(bins)
	if n <= 0 {
		return 0
	}
	if n > len(bins) {
		n = len(bins)
	}

	var sum int
	for _, b := range bins[:n] {
		sum += int(b)
	}

	return float64(sum) / float64(n) / 255
}
