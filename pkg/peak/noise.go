package peak

import (
	"math"
	"sort"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
)

const (
	// noiseFloor is returned for an empty candidate pool so thresholds never
	// collapse to zero.
	noiseFloor = 0.0001
	// noiseCandidateRatio bounds the candidate pools to values below 5% of
	// the trace-wide maximum.
	noiseCandidateRatio = 0.05
)

// NoiseEstimate holds the median-based noise floors used as detection thresholds.
type NoiseEstimate struct {
	Amplitude float64 // point-to-point intensity noise
	Slope     float64 // first differential noise
	PeakTop   float64 // concave-down curvature noise
}

// EstimateNoise collects the small nonzero fluctuations of the trace and takes
// the median of each pool.
func EstimateNoise(ch core.Chromatogram, dc DifferentialCoefficients) NoiseEstimate {
	amplitudeThresh := dc.MaxAmplitudeDiff * noiseCandidateRatio
	slopeThresh := dc.MaxFirstDiff * noiseCandidateRatio
	peakTopThresh := dc.MaxSecondDiff * noiseCandidateRatio

	var amplitudes, slopes, peakTops []float64
	for i := halfWindow; i < len(ch)-halfWindow; i++ {
		if d := math.Abs(ch[i+1].Intensity - ch[i].Intensity); d > 0 && d < amplitudeThresh {
			amplitudes = append(amplitudes, d)
		}
		if d := math.Abs(dc.FirstDiff[i]); d > 0 && d < slopeThresh {
			slopes = append(slopes, d)
		}
		if s := dc.SecondDiff[i]; s < 0 && -s < peakTopThresh {
			peakTops = append(peakTops, -s)
		}
	}

	return NoiseEstimate{
		Amplitude: medianOrFloor(amplitudes),
		Slope:     medianOrFloor(slopes),
		PeakTop:   medianOrFloor(peakTops),
	}
}

// GlobalNoise is the median nonzero point-to-point change of the
// baseline-corrected trace scaled by noiseFactor.
func GlobalNoise(baselineCorrected core.Chromatogram, noiseFactor float64) float64 {
	var deltas []float64
	for i := 1; i < len(baselineCorrected); i++ {
		if d := math.Abs(baselineCorrected[i].Intensity - baselineCorrected[i-1].Intensity); d > 0 {
			deltas = append(deltas, d)
		}
	}
	return medianOrFloor(deltas) * noiseFactor
}

func medianOrFloor(values []float64) float64 {
	if len(values) == 0 {
		return noiseFloor
	}
	m := median(values)
	if m <= 0 {
		return noiseFloor
	}
	return m
}

// median sorts a copy of values; even-length input averages the middle pair.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
