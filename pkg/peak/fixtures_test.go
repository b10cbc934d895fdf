package peak

import (
	"math"
	"math/rand"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
)

type gaussian struct {
	center, sigma, height float64
}

const sampleInterval = 0.01 // minutes

// syntheticTrace sums Gaussian peaks on a zero baseline and adds uniform noise
// of +/- noise drawn from a seeded source.
func syntheticTrace(n int, peaks []gaussian, noise float64, seed int64) core.Chromatogram {
	rng := rand.New(rand.NewSource(seed))
	ch := make(core.Chromatogram, n)
	for i := 0; i < n; i++ {
		v := 0.0
		for _, g := range peaks {
			d := (float64(i) - g.center) / g.sigma
			v += g.height * math.Exp(-0.5*d*d)
		}
		if noise > 0 {
			v += (rng.Float64()*2 - 1) * noise
		}
		ch[i] = core.ValuePoint{ID: i, Time: float64(i) * sampleInterval, Intensity: v}
	}
	return ch
}

// flatInput treats the trace as already smoothed and sitting on a zero baseline.
func flatInput(ch core.Chromatogram) Input {
	return Input{
		Smoothed:          ch,
		Baseline:          ch.WithIntensities(make([]float64, len(ch))),
		BaselineCorrected: ch,
	}
}
