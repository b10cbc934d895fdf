package smoothing

import (
	"fmt"
	"math"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
)

// Baseline estimates a slowly varying baseline: a rolling minimum over
// window points followed by a moving average of the same width. A window
// below 1 yields an all-zero baseline.
func Baseline(ch core.Chromatogram, window int) core.Chromatogram {
	n := len(ch)
	if window < 1 || n == 0 {
		return ch.WithIntensities(make([]float64, n))
	}
	half := window / 2

	minima := make([]float64, n)
	for i := range ch {
		lo, hi := max(0, i-half), min(n, i+half+1)
		m := math.Inf(1)
		for j := lo; j < hi; j++ {
			m = math.Min(m, ch[j].Intensity)
		}
		minima[i] = m
	}

	return movingAverage(ch.WithIntensities(minima), half)
}

// Subtract returns ch minus baseline, clamped at zero.
func Subtract(ch, baseline core.Chromatogram) (core.Chromatogram, error) {
	if len(ch) != len(baseline) {
		return nil, fmt.Errorf("failed to subtract baseline: %d points vs %d baseline points", len(ch), len(baseline))
	}
	corrected := make([]float64, len(ch))
	for i := range ch {
		corrected[i] = math.Max(0, ch[i].Intensity-baseline[i].Intensity)
	}
	return ch.WithIntensities(corrected), nil
}
