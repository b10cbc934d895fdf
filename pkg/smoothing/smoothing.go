// Package smoothing provides the chromatogram smoothing strategies applied
// before peak detection, plus a simple baseline estimate.
package smoothing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
)

// ErrUnknownMethod is returned by ParseMethod and Select for unsupported names.
var ErrUnknownMethod = errors.New("unknown smoothing method")

// Method names a smoothing strategy.
type Method string

const (
	MovingAverage               Method = "moving_average"
	LinearWeightedMovingAverage Method = "linear_weighted_moving_average"
	SavitzkyGolay               Method = "savitzky_golay"
	Binomial                    Method = "binomial"
	Lowess                      Method = "lowess"
	Loess                       Method = "loess"
	None                        Method = "none"
)

// Func smooths a chromatogram. The result has the same length and time axis.
type Func func(ch core.Chromatogram, level int) core.Chromatogram

// Methods lists the supported strategies.
func Methods() []Method {
	return []Method{MovingAverage, LinearWeightedMovingAverage, SavitzkyGolay, Binomial, Lowess, Loess, None}
}

// ParseMethod accepts the method name with '-' or '_' separators, case-insensitive.
func ParseMethod(s string) (Method, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch name {
	case "sma", "moving_average":
		return MovingAverage, nil
	case "lwma", "linear_weighted_moving_average":
		return LinearWeightedMovingAverage, nil
	case "sg", "savitzky_golay":
		return SavitzkyGolay, nil
	case "binomial":
		return Binomial, nil
	case "lowess":
		return Lowess, nil
	case "loess":
		return Loess, nil
	case "none", "":
		return None, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Select returns the strategy for m. The choice is made once per run and the
// returned function is handed to the pipeline.
func Select(m Method) (Func, error) {
	switch m {
	case MovingAverage:
		return movingAverage, nil
	case LinearWeightedMovingAverage:
		return linearWeightedMovingAverage, nil
	case SavitzkyGolay:
		return savitzkyGolay, nil
	case Binomial:
		return binomial, nil
	case Lowess:
		return lowess, nil
	case Loess:
		return loess, nil
	case None:
		return identity, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, string(m))
}

func identity(ch core.Chromatogram, _ int) core.Chromatogram {
	out := make(core.Chromatogram, len(ch))
	copy(out, ch)
	return out
}

// convolve applies a symmetric kernel, renormalizing by the weights that fall
// inside the trace at the edges.
func convolve(ch core.Chromatogram, kernel []float64) core.Chromatogram {
	half := len(kernel) / 2
	smoothed := make([]float64, len(ch))
	for i := range ch {
		var sum, weight float64
		for k, w := range kernel {
			j := i + k - half
			if j < 0 || j >= len(ch) {
				continue
			}
			sum += w * ch[j].Intensity
			weight += w
		}
		if weight > 0 {
			smoothed[i] = sum / weight
		} else {
			smoothed[i] = ch[i].Intensity
		}
	}
	return ch.WithIntensities(smoothed)
}

func movingAverage(ch core.Chromatogram, level int) core.Chromatogram {
	if level < 1 {
		return identity(ch, level)
	}
	kernel := make([]float64, 2*level+1)
	for i := range kernel {
		kernel[i] = 1
	}
	return convolve(ch, kernel)
}

func linearWeightedMovingAverage(ch core.Chromatogram, level int) core.Chromatogram {
	if level < 1 {
		return identity(ch, level)
	}
	kernel := make([]float64, 2*level+1)
	for i := range kernel {
		d := i - level
		if d < 0 {
			d = -d
		}
		kernel[i] = float64(level + 1 - d)
	}
	return convolve(ch, kernel)
}

// binomial uses the row 2*level of Pascal's triangle as the kernel.
func binomial(ch core.Chromatogram, level int) core.Chromatogram {
	if level < 1 {
		return identity(ch, level)
	}
	n := 2 * level
	kernel := make([]float64, n+1)
	kernel[0] = 1
	for k := 1; k <= n; k++ {
		kernel[k] = kernel[k-1] * float64(n-k+1) / float64(k)
	}
	return convolve(ch, kernel)
}
