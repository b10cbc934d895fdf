// Package filter provides peak filtering and transformation functions for
// library and query spectra.
package filter

import (
	"sort"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
)

// Config holds filtering configuration
type Config struct {
	TopN            int     // Keep only top N most intense peaks (0 = no limit)
	IntensityCutoff float64 // Keep only peaks above this % of base peak (0 = no cutoff)
	MassRangeBegin  float64 // Lower m/z bound, inclusive (0 = open)
	MassRangeEnd    float64 // Upper m/z bound, inclusive (0 = open)
	NormalizeTo     float64 // Rescale so the base peak has this intensity (0 = keep)
}

// Apply applies all configured filters to a spectrum
func (c *Config) Apply(spec *core.Spectrum) {
	RemoveZeroIntensityPeaks(spec)

	if c.MassRangeBegin > 0 || c.MassRangeEnd > 0 {
		spec.Peaks = MassRange(spec.Peaks, c.MassRangeBegin, c.MassRangeEnd)
	}

	// Apply intensity filters
	if c.IntensityCutoff > 0 {
		c.filterByIntensity(spec)
	}

	// Apply top-N filter
	if c.TopN > 0 {
		c.filterTopN(spec)
	}

	if c.NormalizeTo > 0 {
		Normalize(spec, c.NormalizeTo)
	}

	// Ensure peaks are sorted after all filtering
	spec.SortPeaks()
}

// MassRange returns the peaks with begin <= m/z <= end as a new slice. An
// end of 0 or less leaves the upper side open.
func MassRange(peaks []core.Peak, begin, end float64) []core.Peak {
	filtered := make([]core.Peak, 0, len(peaks))
	for _, peak := range peaks {
		if peak.MZ < begin {
			continue
		}
		if end > 0 && peak.MZ > end {
			continue
		}
		filtered = append(filtered, peak)
	}
	return filtered
}

// filterByIntensity removes peaks below the intensity cutoff percentage
func (c *Config) filterByIntensity(spec *core.Spectrum) {
	if len(spec.Peaks) == 0 {
		return
	}

	threshold := (c.IntensityCutoff / 100.0) * spec.BasePeak().Intensity

	var filtered []core.Peak
	for _, peak := range spec.Peaks {
		if peak.Intensity >= threshold {
			filtered = append(filtered, peak)
		}
	}

	spec.Peaks = filtered
}

// filterTopN keeps only the N most intense peaks
func (c *Config) filterTopN(spec *core.Spectrum) {
	if len(spec.Peaks) <= c.TopN {
		return
	}

	// Create a copy and sort by intensity descending
	peaks := make([]core.Peak, len(spec.Peaks))
	copy(peaks, spec.Peaks)

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].Intensity > peaks[j].Intensity
	})

	spec.Peaks = peaks[:c.TopN]
}

// Normalize rescales intensities so the base peak equals max.
func Normalize(spec *core.Spectrum, max float64) {
	base := spec.BasePeak().Intensity
	if base <= 0 {
		return
	}
	scale := max / base
	for i := range spec.Peaks {
		spec.Peaks[i].Intensity *= scale
	}
}

// RemoveZeroIntensityPeaks removes peaks with zero or negative intensity
func RemoveZeroIntensityPeaks(spec *core.Spectrum) {
	filtered := make([]core.Peak, 0, len(spec.Peaks))
	for _, peak := range spec.Peaks {
		if peak.Intensity > 0 {
			filtered = append(filtered, peak)
		}
	}
	spec.Peaks = filtered
}
