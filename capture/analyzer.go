package capture

import (
	"math"
	"sync"
)

// analysisWindow is the number of PCM samples behind one bin snapshot;
// half of them become usable frequency bins.
const analysisWindow = 2 * binCount

// pcmAnalyzer keeps a sliding window of the latest mono samples and
// computes frequency-bin magnitudes on demand with a direct DFT. The
// window is small enough that the transform stays cheap at UI cadence.
type pcmAnalyzer struct {
	mu     sync.Mutex
	window [analysisWindow]float64
	filled bool
}

// push appends samples, keeping only the newest analysisWindow of them.
func (a *pcmAnalyzer) push(samples []int16) {
	if len(samples) == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(samples) >= analysisWindow {
		samples = samples[len(samples)-analysisWindow:]
		for i, s := range samples {
			a.window[i] = float64(s) / math.MaxInt16
		}
	} else {
		keep := analysisWindow - len(samples)
		copy(a.window[:keep], a.window[len(samples):])
		for i, s := range samples {
			a.window[keep+i] = float64(s) / math.MaxInt16
		}
	}
	a.filled = true
}

func (a *pcmAnalyzer) FrequencyBins(dst []byte) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.filled {
		return 0
	}

	n := len(dst)
	if n > binCount {
		n = binCount
	}

	for k := 0; k < n; k++ {
		var re, im float64
		for t := 0; t < analysisWindow; t++ {
			angle := 2 * math.Pi * float64(k) * float64(t) / analysisWindow
			re += a.window[t] * math.Cos(angle)
			im -= a.window[t] * math.Sin(angle)
		}

		// Magnitude normalized to the window size, clamped into a byte.
		mag := 2 * math.Sqrt(re*re+im*im) / analysisWindow
		v := mag * 255
		if v > 255 {
			v = 255
		}
		dst[k] = byte(v)
	}

	return n
}
