package smoothing

import (
	"math"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const savitzkyGolayOrder = 2

// savitzkyGolay fits a quadratic over 2*level+1 points. Interior points use
// the precomputed convolution row; points near the edges fall back to a
// least-squares fit over the clipped window.
func savitzkyGolay(ch core.Chromatogram, level int) core.Chromatogram {
	if level < 1 || len(ch) == 0 {
		return identity(ch, level)
	}
	coeffs := savitzkyGolayCoefficients(level, savitzkyGolayOrder)
	if coeffs == nil {
		return identity(ch, level)
	}

	n := len(ch)
	smoothed := make([]float64, n)
	for i := range ch {
		if i < level || i >= n-level {
			lo, hi := clippedWindow(i, n, 2*level+1)
			x := make([]float64, 0, hi-lo)
			y := make([]float64, 0, hi-lo)
			w := make([]float64, 0, hi-lo)
			for j := lo; j < hi; j++ {
				x = append(x, float64(j-i))
				y = append(y, ch[j].Intensity)
				w = append(w, 1)
			}
			if v, ok := polyFitAtZero(x, y, w, savitzkyGolayOrder); ok {
				smoothed[i] = v
			} else {
				smoothed[i] = ch[i].Intensity
			}
			continue
		}
		var sum float64
		for k, c := range coeffs {
			sum += c * ch[i+k-level].Intensity
		}
		smoothed[i] = sum
	}
	return ch.WithIntensities(smoothed)
}

// savitzkyGolayCoefficients returns the smoothing row of the pseudo-inverse
// of the Vandermonde matrix for offsets -half..half.
func savitzkyGolayCoefficients(half, order int) []float64 {
	size := 2*half + 1
	if size <= order {
		return nil
	}
	a := mat.NewDense(size, order+1, nil)
	for r := 0; r < size; r++ {
		x := float64(r - half)
		for c := 0; c <= order; c++ {
			a.Set(r, c, math.Pow(x, float64(c)))
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)
	var proj mat.Dense
	if err := proj.Solve(&ata, a.T()); err != nil {
		return nil
	}
	return mat.Row(nil, 0, &proj)
}

// lowess is a locally weighted linear regression with tricube weights over
// a window of 2*level+1 points on the time axis.
func lowess(ch core.Chromatogram, level int) core.Chromatogram {
	if level < 1 || len(ch) < 3 {
		return identity(ch, level)
	}
	n := len(ch)
	smoothed := make([]float64, n)
	for i := range ch {
		x, y, w := localWindow(ch, i, 2*level+1)
		// x is centered on sample i, so the fit at i is the intercept
		v, _ := stat.LinearRegression(x, y, w, false)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = ch[i].Intensity
		}
		smoothed[i] = v
	}
	return ch.WithIntensities(smoothed)
}

// loess is the quadratic counterpart of lowess.
func loess(ch core.Chromatogram, level int) core.Chromatogram {
	if level < 1 || len(ch) < 4 {
		return identity(ch, level)
	}
	n := len(ch)
	smoothed := make([]float64, n)
	for i := range ch {
		x, y, w := localWindow(ch, i, 2*level+1)
		if v, ok := polyFitAtZero(x, y, w, 2); ok {
			smoothed[i] = v
		} else {
			smoothed[i] = ch[i].Intensity
		}
	}
	return ch.WithIntensities(smoothed)
}

// localWindow returns times centered and scaled to [-1,1] around sample i,
// the intensities, and tricube weights.
func localWindow(ch core.Chromatogram, i, size int) (x, y, w []float64) {
	lo, hi := clippedWindow(i, len(ch), size)
	center := ch[i].Time

	maxDist := 0.0
	for j := lo; j < hi; j++ {
		maxDist = math.Max(maxDist, math.Abs(ch[j].Time-center))
	}
	// widen slightly so the farthest point keeps a nonzero weight
	scale := maxDist * 1.0001
	if scale == 0 {
		scale = 1
	}

	x = make([]float64, 0, hi-lo)
	y = make([]float64, 0, hi-lo)
	w = make([]float64, 0, hi-lo)
	for j := lo; j < hi; j++ {
		d := (ch[j].Time - center) / scale
		t := 1 - math.Pow(math.Abs(d), 3)
		x = append(x, d)
		y = append(y, ch[j].Intensity)
		w = append(w, t*t*t)
	}
	return x, y, w
}

// clippedWindow returns [lo,hi) of the given size containing i, shifted
// inward at the edges of a trace of length n.
func clippedWindow(i, n, size int) (int, int) {
	if size >= n {
		return 0, n
	}
	lo := i - size/2
	if lo < 0 {
		lo = 0
	}
	hi := lo + size
	if hi > n {
		hi = n
		lo = n - size
	}
	return lo, hi
}

// polyFitAtZero solves the weighted least-squares polynomial fit of the
// given degree and returns its value at x = 0.
func polyFitAtZero(x, y, w []float64, degree int) (float64, bool) {
	rows := len(x)
	if rows <= degree {
		return 0, false
	}
	a := mat.NewDense(rows, degree+1, nil)
	b := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		sw := math.Sqrt(w[r])
		p := 1.0
		for c := 0; c <= degree; c++ {
			a.Set(r, c, sw*p)
			p *= x[r]
		}
		b.SetVec(r, sw*y[r])
	}

	var coef mat.VecDense
	if err := coef.SolveVec(a, b); err != nil {
		return 0, false
	}
	v := coef.AtVec(0)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
