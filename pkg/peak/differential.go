// Package peak detects chromatographic peaks in a smoothed intensity trace and
// scores their shape.
package peak

import (
	"math"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
)

// Five-point Savitzky-Golay style kernels for the first derivative and the
// curvature.
var (
	firstDiffKernel  = [5]float64{-0.2, -0.1, 0, 0.1, 0.2}
	secondDiffKernel = [5]float64{0.14285714, -0.07142857, -0.14285714, -0.07142857, 0.14285714}
)

const halfWindow = 2

// DifferentialCoefficients holds the first and second differential of a
// chromatogram together with the maxima used to seed the noise thresholds.
type DifferentialCoefficients struct {
	FirstDiff  []float64
	SecondDiff []float64

	MaxAmplitudeDiff float64 // largest |I[i] - I[i-1]|
	MaxFirstDiff     float64 // largest |FirstDiff|
	MaxSecondDiff    float64 // largest -SecondDiff (concave-down curvature only)
}

// Differentiate convolves the chromatogram with the derivative kernels. The
// first and last halfWindow samples stay zero.
func Differentiate(ch core.Chromatogram) DifferentialCoefficients {
	n := len(ch)
	dc := DifferentialCoefficients{
		FirstDiff:  make([]float64, n),
		SecondDiff: make([]float64, n),
	}

	for i := halfWindow; i < n-halfWindow; i++ {
		var first, second float64
		for j := 0; j < len(firstDiffKernel); j++ {
			v := ch[i+j-halfWindow].Intensity
			first += firstDiffKernel[j] * v
			second += secondDiffKernel[j] * v
		}
		dc.FirstDiff[i] = first
		dc.SecondDiff[i] = second

		if math.Abs(first) > dc.MaxFirstDiff {
			dc.MaxFirstDiff = math.Abs(first)
		}
		if second < 0 && -second > dc.MaxSecondDiff {
			dc.MaxSecondDiff = -second
		}
		if jump := math.Abs(ch[i].Intensity - ch[i-1].Intensity); jump > dc.MaxAmplitudeDiff {
			dc.MaxAmplitudeDiff = jump
		}
	}

	return dc
}
