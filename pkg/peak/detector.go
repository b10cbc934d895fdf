package peak

import (
	"errors"
	"fmt"
	"math"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
)

// ErrLengthMismatch is returned when the input chromatograms differ in length.
var ErrLengthMismatch = errors.New("input chromatograms differ in length")

const (
	minimumMargin    = 5
	edgeSearchPoints = 5
	// loopGuardTail is how close to the end of the trace a repeated right
	// edge must be before the scan is abandoned.
	loopGuardTail = 10
)

// Input groups the parallel chromatograms of one trace.
type Input struct {
	Smoothed          core.Chromatogram
	Baseline          core.Chromatogram
	BaselineCorrected core.Chromatogram
	// Raw is the unsmoothed trace. Peak areas are integrated over it when
	// set and over Smoothed otherwise.
	Raw core.Chromatogram
}

func (in Input) validate() error {
	n := len(in.Smoothed)
	if len(in.Baseline) != n || len(in.BaselineCorrected) != n {
		return fmt.Errorf("%w: %d/%d/%d", ErrLengthMismatch, n, len(in.Baseline), len(in.BaselineCorrected))
	}
	if in.Raw != nil && len(in.Raw) != n {
		return fmt.Errorf("%w: raw %d, smoothed %d", ErrLengthMismatch, len(in.Raw), n)
	}
	return nil
}

// PeakDetectionResult describes one detected peak. Scan numbers are indices
// into the input chromatogram.
type PeakDetectionResult struct {
	PeakID int

	ScanNumAtLeftPeakEdge  int
	ScanNumAtPeakTop       int
	ScanNumAtRightPeakEdge int
	ScanIDAtPeakTop        int // ValuePoint.ID at the apex

	RTAtLeftPeakEdge  float64
	RTAtPeakTop       float64
	RTAtRightPeakEdge float64

	IntensityAtLeftPeakEdge  float64
	IntensityAtPeakTop       float64
	IntensityAtRightPeakEdge float64

	AreaAboveZero     float64
	AreaAboveBaseline float64

	GaussianSimilarity float64
	IdealSlopeValue    float64
	BasePeakValue      float64
	SymmetryValue      float64
	SharpnessValue     float64
	PeakPureValue      float64

	EstimatedNoise float64
	SignalToNoise  float64

	AmplitudeOrder int
	AmplitudeScore float64
}

// Detection is the outcome of one detection pass.
type Detection struct {
	Peaks       []PeakDetectionResult
	Noise       NoiseEstimate
	GlobalNoise float64
	// Aborted is set when the right-edge loop guard stopped the scan early;
	// Peaks then holds the peaks found before that point.
	Aborted bool
}

// Detect runs a single sequential pass over the smoothed chromatogram.
func Detect(in Input, p Params) (*Detection, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	det := &Detection{Peaks: []PeakDetectionResult{}}
	sm := in.Smoothed
	n := len(sm)
	if n == 0 {
		return det, nil
	}

	intensities := sm.Intensities()
	dc := Differentiate(sm)
	noise := EstimateNoise(sm, dc)
	det.Noise = noise
	globalNoise := GlobalNoise(in.BaselineCorrected, p.NoiseFactor)
	det.GlobalNoise = globalNoise
	baselineMedian := median(in.Baseline.Intensities())

	margin := max(int(math.Ceil(p.MinimumDatapoints)), minimumMargin)
	slopeThresh := noise.Slope * p.SlopeNoiseFold
	peakTopThresh := noise.PeakTop * p.PeakTopNoiseFold
	minPointsFromTop := math.Max(1, p.MinimumDatapoints*0.5)

	prevEnd := 0
	lastRightEdge := -1

	for i := margin; i < n-margin; i++ {
		if !(dc.FirstDiff[i] > slopeThresh && dc.FirstDiff[i+1] > slopeThresh) {
			continue
		}

		trigger := i
		start := max(refineLeftEdge(intensities, i), prevEnd)

		topSeen := false
		topPoint := i
		for i < n-3 {
			i++
			if !topSeen && isPeakTop(intensities, dc, i, peakTopThresh) {
				topSeen = true
				topPoint = i
			}
			if !topSeen || float64(topPoint)+minPointsFromTop > float64(i-1) {
				continue
			}
			if dc.FirstDiff[i] > -slopeThresh {
				break
			}
			if math.Abs(intensities[i-2]-intensities[i-1]) < noise.Amplitude &&
				math.Abs(intensities[i-1]-intensities[i]) < noise.Amplitude {
				break
			}
			if intensities[i-2] >= intensities[i-1] && intensities[i-1] < intensities[i] && intensities[i] < intensities[i+1] {
				break
			}
			if p.MinimumDatapoints < 1.5 && intensities[i-2] >= intensities[i-1] && intensities[i-1] <= intensities[i] {
				break
			}
		}

		end := refineRightEdge(intensities, i)
		if end == lastRightEdge && end > n-loopGuardTail {
			det.Aborted = true
			break
		}
		lastRightEdge = end
		if end > i {
			i = end
		}

		if float64(end-start+1) < p.MinimumDatapoints {
			continue
		}

		left, top, right := curate(intensities, start, end, p.AveragePeakWidth)
		left = max(left, prevEnd)
		// The right-edge walk can run into the rising side of the next peak;
		// resume from the curated edge so that peak gets its own start test.
		i = max(right-1, trigger)
		if right-left <= 3 || float64(right-left+1) < p.MinimumDatapoints {
			continue
		}

		leftHeight := intensities[top] - intensities[left]
		rightHeight := intensities[top] - intensities[right]
		if leftHeight <= 0 && rightHeight <= 0 {
			continue
		}
		height := math.Min(leftHeight, rightHeight)
		if height < globalNoise || height < p.MinimumAmplitude || height < noise.Amplitude*p.AmplitudeNoiseFold {
			continue
		}
		if p.HighBaseline &&
			intensities[top]-in.Baseline[left].Intensity < baselineMedian &&
			intensities[top]-in.Baseline[right].Intensity < baselineMedian {
			continue
		}

		prevEnd = right
		result := scorePeak(sm, in.Raw, left, top, right)
		result.PeakID = len(det.Peaks)
		result.EstimatedNoise = math.Max(1, globalNoise/p.NoiseFactor)
		result.SignalToNoise = math.Max(leftHeight, rightHeight) / result.EstimatedNoise
		det.Peaks = append(det.Peaks, result)
	}

	RankByAmplitude(det.Peaks)
	return det, nil
}

// refineLeftEdge walks back from i while the intensity keeps falling, to undo
// the lag the smoothing introduces at the toe of the peak.
func refineLeftEdge(intensities []float64, i int) int {
	start := i
	for j := 0; j < edgeSearchPoints; j++ {
		if start-1 < 0 || intensities[start-1] >= intensities[start] {
			break
		}
		start--
	}
	return start
}

func refineRightEdge(intensities []float64, i int) int {
	end := i
	for j := 0; j < edgeSearchPoints; j++ {
		if end+1 > len(intensities)-1 || intensities[end+1] >= intensities[end] {
			break
		}
		end++
	}
	return end
}

// isPeakTop reports a slope sign change with sufficient concave-down curvature,
// or a five-point local maximum. Requires 2 <= i <= len-3.
func isPeakTop(intensities []float64, dc DifferentialCoefficients, i int, peakTopThresh float64) bool {
	if dc.FirstDiff[i-1] > 0 && (dc.FirstDiff[i] < 0 || dc.FirstDiff[i+1] < 0) && dc.SecondDiff[i] < -peakTopThresh {
		return true
	}
	return intensities[i-2] <= intensities[i-1] &&
		intensities[i-1] <= intensities[i] &&
		intensities[i] >= intensities[i+1] &&
		intensities[i+1] >= intensities[i+2]
}

// curate relocates the apex to the most intense sample of [start, end] and
// moves each edge to where the intensity stops falling away from the apex,
// searching at most width samples.
func curate(intensities []float64, start, end, width int) (left, top, right int) {
	top = start
	for j := start + 1; j <= end; j++ {
		if intensities[j] > intensities[top] {
			top = j
		}
	}

	left = top
	for steps := 0; steps < width && left > 0; steps++ {
		if intensities[left-1] >= intensities[left] {
			break
		}
		left--
	}

	right = top
	for steps := 0; steps < width && right < len(intensities)-1; steps++ {
		if intensities[right+1] >= intensities[right] {
			break
		}
		right++
	}
	return left, top, right
}
