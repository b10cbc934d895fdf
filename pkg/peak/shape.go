package peak

import (
	"math"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
)

// Areas are reported per second while the time axis is in minutes.
const areaTimeScale = 60.0

var (
	hwhmToSigma = 1 / math.Sqrt(2*math.Ln2)
	halfSqrt2Pi = math.Sqrt(2*math.Pi) / 2
)

// scorePeak builds the result for the curated window [left, right] with its
// apex at top. Shape metrics use ch; areas use raw unless it is nil.
func scorePeak(ch, raw core.Chromatogram, left, top, right int) PeakDetectionResult {
	times := ch.Times()
	intensities := ch.Intensities()

	r := PeakDetectionResult{
		ScanNumAtLeftPeakEdge:    left,
		ScanNumAtPeakTop:         top,
		ScanNumAtRightPeakEdge:   right,
		ScanIDAtPeakTop:          ch[top].ID,
		RTAtLeftPeakEdge:         times[left],
		RTAtPeakTop:              times[top],
		RTAtRightPeakEdge:        times[right],
		IntensityAtLeftPeakEdge:  intensities[left],
		IntensityAtPeakTop:       intensities[top],
		IntensityAtRightPeakEdge: intensities[right],
	}

	leftHeight := intensities[top] - intensities[left]
	rightHeight := intensities[top] - intensities[right]

	halfLeft := heightCrossing(intensities, left, top, left, 0.5*leftHeight)
	halfRight := heightCrossing(intensities, top, right, right, 0.5*rightHeight)
	fiveLeft := heightCrossing(intensities, left, top, left, 0.05*leftHeight)
	fiveRight := heightCrossing(intensities, top, right, right, 0.05*rightHeight)

	r.SymmetryValue = ratio(math.Abs(times[top]-times[fiveLeft]), math.Abs(times[top]-times[fiveRight]))
	r.BasePeakValue = ratio(math.Abs(leftHeight), math.Abs(rightHeight))

	gaussLeft := gaussianHalfArea(leftHeight, times[top]-times[halfLeft])
	gaussRight := gaussianHalfArea(rightHeight, times[halfRight]-times[top])
	realLeft := trapezoid(times, intensities, left, top) - intensities[left]*(times[top]-times[left])
	realRight := trapezoid(times, intensities, top, right) - intensities[right]*(times[right]-times[top])
	r.GaussianSimilarity = (ratio(realLeft, gaussLeft) + ratio(realRight, gaussRight)) / 2

	r.IdealSlopeValue = idealSlope(intensities, left, top, right)
	r.SharpnessValue = sharpness(intensities, left, top, right)

	r.PeakPureValue = clamp01((r.GaussianSimilarity + 1.2*r.BasePeakValue + 0.8*r.SymmetryValue + r.IdealSlopeValue) / 4)

	areaIntensities := intensities
	if raw != nil {
		areaIntensities = raw.Intensities()
	}
	r.AreaAboveZero = trapezoid(times, areaIntensities, left, right) * areaTimeScale
	chord := (areaIntensities[left] + areaIntensities[right]) / 2 * (times[right] - times[left]) * areaTimeScale
	r.AreaAboveBaseline = r.AreaAboveZero - chord

	return r
}

// heightCrossing returns the index in [from, to] whose height above the edge
// sample is closest to target.
func heightCrossing(intensities []float64, from, to, edge int, target float64) int {
	best := from
	bestDiff := math.Inf(1)
	for j := from; j <= to; j++ {
		d := math.Abs(target - (intensities[j] - intensities[edge]))
		if d < bestDiff {
			bestDiff = d
			best = j
		}
	}
	return best
}

func gaussianHalfArea(height, hwhm float64) float64 {
	if height <= 0 || hwhm <= 0 {
		return 0
	}
	sigma := hwhm * hwhmToSigma
	return height * sigma * halfSqrt2Pi
}

// trapezoid integrates intensity over time between two sample indices.
func trapezoid(times, intensities []float64, from, to int) float64 {
	if to <= from {
		return 0
	}
	var area float64
	for j := from; j < to; j++ {
		area += (times[j+1] - times[j]) * (intensities[j] + intensities[j+1]) / 2
	}
	return area
}

// idealSlope rewards windows whose intensity rises monotonically to the apex
// and falls monotonically after it.
func idealSlope(intensities []float64, left, top, right int) float64 {
	var monotone, broken float64
	for j := left; j < top; j++ {
		step := intensities[j+1] - intensities[j]
		if step >= 0 {
			monotone += step
		} else {
			broken -= step
		}
	}
	for j := top; j < right; j++ {
		step := intensities[j+1] - intensities[j]
		if step <= 0 {
			monotone -= step
		} else {
			broken += step
		}
	}
	if monotone <= 0 {
		return 0
	}
	return math.Max(0, (monotone-broken)/monotone)
}

func sharpness(intensities []float64, left, top, right int) float64 {
	apex := intensities[top]
	if apex <= 0 {
		return 0
	}
	root := math.Sqrt(apex)
	var leftMax, rightMax float64
	for j := left; j < top; j++ {
		leftMax = math.Max(leftMax, (apex-intensities[j])/(float64(top-j)*root))
	}
	for j := top + 1; j <= right; j++ {
		rightMax = math.Max(rightMax, (apex-intensities[j])/(float64(j-top)*root))
	}
	return (leftMax + rightMax) / 2
}

// ratio returns min/max of two magnitudes, 0 when either is non-positive.
func ratio(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return math.Min(a, b) / math.Max(a, b)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
