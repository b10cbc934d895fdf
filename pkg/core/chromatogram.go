package core

import (
	"fmt"
	"math"
)

// ValuePoint is one sample of a chromatogram.
type ValuePoint struct {
	ID        int // scan number
	Time      float64
	MZ        float64 // 0 for total ion chromatograms
	Intensity float64
}

// Chromatogram is an ordered sequence of samples, monotonically increasing in time.
type Chromatogram []ValuePoint

// NewChromatogram builds a chromatogram from parallel time and intensity slices.
// Scan IDs are the sample indices.
func NewChromatogram(times, intensities []float64) Chromatogram {
	n := min(len(times), len(intensities))
	ch := make(Chromatogram, n)
	for i := 0; i < n; i++ {
		ch[i] = ValuePoint{ID: i, Time: times[i], Intensity: intensities[i]}
	}
	return ch
}

// Times returns the time axis.
func (c Chromatogram) Times() []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p.Time
	}
	return out
}

// Intensities returns the intensity axis.
func (c Chromatogram) Intensities() []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p.Intensity
	}
	return out
}

// WithIntensities returns a copy of c carrying the given intensities.
func (c Chromatogram) WithIntensities(intensities []float64) Chromatogram {
	out := make(Chromatogram, len(c))
	copy(out, c)
	for i := range out {
		if i < len(intensities) {
			out[i].Intensity = intensities[i]
		}
	}
	return out
}

// Validate checks the time axis is finite and non-decreasing.
func (c Chromatogram) Validate() error {
	for i, p := range c {
		if math.IsNaN(p.Time) || math.IsInf(p.Time, 0) {
			return &ValidationError{Field: "Chromatogram", Message: fmt.Sprintf("sample %d has invalid time", i)}
		}
		if math.IsNaN(p.Intensity) || math.IsInf(p.Intensity, 0) {
			return &ValidationError{Field: "Chromatogram", Message: fmt.Sprintf("sample %d has invalid intensity", i)}
		}
		if i > 0 && p.Time < c[i-1].Time {
			return &ValidationError{Field: "Chromatogram", Message: fmt.Sprintf("time decreases at sample %d", i)}
		}
	}
	return nil
}
