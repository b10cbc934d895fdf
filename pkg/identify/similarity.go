package identify

import (
	"math"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
	"github.com/ChrisMcGann/ChromaID/pkg/filter"
)

// SpectralScores holds the three spectrum comparison metrics.
type SpectralScores struct {
	DotProduct         float64
	ReverseDotProduct  float64
	PresencePercentage float64
}

// bin is one m/z cluster of the aligned query and library spectra.
type bin struct {
	mz      float64
	query   float64
	library float64
}

// alignPeaks clusters the merged peak lists greedily: a bin opens at the
// lowest unassigned m/z and takes every peak within tolerance of it.
// Both inputs must be sorted by m/z.
func alignPeaks(query, library []core.Peak, tolerance float64) []bin {
	bins := make([]bin, 0, len(query)+len(library))
	qi, li := 0, 0
	for qi < len(query) || li < len(library) {
		var anchor float64
		if li >= len(library) || (qi < len(query) && query[qi].MZ <= library[li].MZ) {
			anchor = query[qi].MZ
		} else {
			anchor = library[li].MZ
		}

		b := bin{mz: anchor}
		for qi < len(query) && query[qi].MZ-anchor <= tolerance {
			b.query += query[qi].Intensity
			qi++
		}
		for li < len(library) && library[li].MZ-anchor <= tolerance {
			b.library += library[li].Intensity
			li++
		}
		bins = append(bins, b)
	}
	return bins
}

// CompareSpectra scores a query spectrum against a library spectrum after
// restricting both to [massBegin, massEnd] and binning by tolerance. Peaks
// must be sorted by m/z. Empty inputs score zero.
func CompareSpectra(query, library []core.Peak, tolerance, massBegin, massEnd float64) SpectralScores {
	query = filter.MassRange(query, massBegin, massEnd)
	library = filter.MassRange(library, massBegin, massEnd)
	return compareBinned(alignPeaks(query, library, tolerance))
}

func compareBinned(bins []bin) SpectralScores {
	var (
		cross       float64 // sum of mz*sqrt(q*l)
		querySum    float64
		librarySum  float64
		matchedLib  float64 // library weight in bins the query also hits
		libraryBins int
		matchedBins int
	)
	for _, b := range bins {
		cross += b.mz * math.Sqrt(b.query*b.library)
		querySum += b.mz * b.query
		librarySum += b.mz * b.library
		if b.library > 0 {
			libraryBins++
			if b.query > 0 {
				matchedBins++
				matchedLib += b.mz * b.library
			}
		}
	}

	var s SpectralScores
	if querySum > 0 && librarySum > 0 {
		s.DotProduct = clamp01(cross * cross / (querySum * librarySum))
	}
	if querySum > 0 && matchedLib > 0 {
		s.ReverseDotProduct = clamp01(cross * cross / (querySum * matchedLib))
	}
	if libraryBins > 0 {
		s.PresencePercentage = float64(matchedBins) / float64(libraryBins)
	}
	return s
}

// EISimilarity combines the spectral scores with the configured weights.
func (p Params) EISimilarity(s SpectralScores) float64 {
	total := p.DotProductWeight + p.ReverseDotProductWeight + p.PresenceWeight
	if total <= 0 {
		return 0
	}
	return (p.DotProductWeight*s.DotProduct +
		p.ReverseDotProductWeight*s.ReverseDotProduct +
		p.PresenceWeight*s.PresencePercentage) / total
}

// RetentionSimilarity is a Gaussian kernel on the retention difference, or
// -1 when either side lacks the axis or the tolerance is not positive.
func RetentionSimilarity(query, reference, tolerance float64) float64 {
	if query < 0 || reference < 0 || tolerance <= 0 {
		return -1
	}
	d := (query - reference) / tolerance
	return math.Exp(-0.5 * d * d)
}

// TotalScore blends retention and spectral similarity. Retention is ignored
// when scoring with it is off or it is unavailable (-1).
func (p Params) TotalScore(retention, ei float64) float64 {
	if !p.UseRetentionForScoring || retention < 0 {
		return ei
	}
	return (1-p.RetentionWeight)*ei + p.RetentionWeight*retention
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
