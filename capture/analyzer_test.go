package capture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzerEmptyWindow(t *testing.T) {
	a := &pcmAnalyzer{}

	dst := make([]byte, binCount)
	assert.Zero(t, a.FrequencyBins(dst))
}

func TestAnalyzerSilence(t *testing.T) {
	a := &pcmAnalyzer{}
	a.push(make([]int16, analysisWindow))

	dst := make([]byte, binCount)
	n := a.FrequencyBins(dst)
	assert.Equal(t, binCount, n)
	for _, b := range dst {
		assert.Zero(t, b)
	}
}

func TestAnalyzerToneConcentratesInOneBin(t *testing.T) {
	// A full-scale tone at exactly bin 8 of the analysis window.
	samples := make([]int16, analysisWindow)
	for i := range samples {
		samples[i] = int16(float64(math.MaxInt16) * 0.9 * math.Sin(2*math.Pi*8*float64(i)/analysisWindow))
	}

	a := &pcmAnalyzer{}
	a.push(samples)

	dst := make([]byte, binCount)
	n := a.FrequencyBins(dst)
	assert.Equal(t, binCount, n)

	peak := 0
	for k, b := range dst {
		if b > dst[peak] {
			peak = k
		}
		_ = b
	}
	assert.Equal(t, 8, peak)
	assert.Greater(t, int(dst[8]), 200, "tone magnitude should be near full scale")
}

func TestAnalyzerSlidingWindowKeepsNewestSamples(t *testing.T) {
	a := &pcmAnalyzer{}
	a.push(make([]int16, analysisWindow)) // silence first

	loud := make([]int16, analysisWindow)
	for i := range loud {
		loud[i] = int16(float64(math.MaxInt16) * 0.5 * math.Sin(2*math.Pi*4*float64(i)/analysisWindow))
	}
	a.push(loud)

	dst := make([]byte, binCount)
	a.FrequencyBins(dst)
	assert.Greater(t, int(dst[4]), 0, "newest samples should dominate the window")
}
