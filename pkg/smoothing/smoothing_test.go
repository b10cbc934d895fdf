package smoothing

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func trace(n int, f func(i int) float64) core.Chromatogram {
	times := make([]float64, n)
	intensities := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = float64(i) * 0.01
		intensities[i] = f(i)
	}
	return core.NewChromatogram(times, intensities)
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		input   string
		want    Method
		wantErr bool
	}{
		{"moving_average", MovingAverage, false},
		{"Moving-Average", MovingAverage, false},
		{"lwma", LinearWeightedMovingAverage, false},
		{"savitzky-golay", SavitzkyGolay, false},
		{"SG", SavitzkyGolay, false},
		{"binomial", Binomial, false},
		{"lowess", Lowess, false},
		{"LOESS", Loess, false},
		{"", None, false},
		{"wavelet", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMethod(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMethod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectUnknown(t *testing.T) {
	_, err := Select(Method("kalman"))
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestMethodsPreserveShapeAndConstants(t *testing.T) {
	flat := trace(40, func(int) float64 { return 250 })

	for _, m := range Methods() {
		t.Run(string(m), func(t *testing.T) {
			fn, err := Select(m)
			require.NoError(t, err)

			got := fn(flat, 3)
			require.Len(t, got, len(flat))
			for i := range got {
				assert.Equal(t, flat[i].Time, got[i].Time)
				assert.Equal(t, flat[i].ID, got[i].ID)
				assert.InDelta(t, 250, got[i].Intensity, 1e-6, "index %d", i)
			}

			assert.Empty(t, fn(core.Chromatogram{}, 3))
		})
	}
}

func TestMethodsDoNotModifyInput(t *testing.T) {
	ch := trace(20, func(i int) float64 { return float64(i % 3) })
	before := ch.Intensities()

	for _, m := range Methods() {
		fn, err := Select(m)
		require.NoError(t, err)
		fn(ch, 2)
		assert.Equal(t, before, ch.Intensities(), string(m))
	}
}

func TestPolynomialMethodsReproduceQuadratics(t *testing.T) {
	quad := trace(50, func(i int) float64 {
		x := float64(i)
		return 3 + 2*x + 0.5*x*x
	})

	for _, m := range []Method{SavitzkyGolay, Loess} {
		t.Run(string(m), func(t *testing.T) {
			fn, err := Select(m)
			require.NoError(t, err)
			got := fn(quad, 3)
			for i := range quad {
				assert.InDelta(t, quad[i].Intensity, got[i].Intensity, 1e-6, "index %d", i)
			}
		})
	}
}

func TestLowessReproducesLines(t *testing.T) {
	line := trace(30, func(i int) float64 { return 10 + 4*float64(i) })
	got := lowess(line, 4)
	for i := range line {
		assert.InDelta(t, line[i].Intensity, got[i].Intensity, 1e-6, "index %d", i)
	}
}

func TestSavitzkyGolayCoefficients(t *testing.T) {
	got := savitzkyGolayCoefficients(2, 2)
	want := []float64{-3, 12, 17, 12, -3}
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i]/35, got[i], 1e-12)
	}
	assert.Nil(t, savitzkyGolayCoefficients(0, 2))
}

func TestBinomialKernel(t *testing.T) {
	ch := trace(5, func(i int) float64 {
		if i == 2 {
			return 4
		}
		return 0
	})
	got := binomial(ch, 1).Intensities()
	assert.Equal(t, []float64{0, 1, 2, 1, 0}, got)
}

func TestSmoothingReducesNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	noisy := trace(300, func(int) float64 { return 1000 + rng.NormFloat64()*20 })
	rawSD := stat.StdDev(noisy.Intensities(), nil)

	for _, m := range Methods() {
		if m == None {
			continue
		}
		t.Run(string(m), func(t *testing.T) {
			fn, err := Select(m)
			require.NoError(t, err)
			sd := stat.StdDev(fn(noisy, 3).Intensities(), nil)
			assert.Less(t, sd, rawSD)
		})
	}
}

func TestBaselineAndSubtract(t *testing.T) {
	ch := trace(200, func(i int) float64 {
		d := float64(i-100) / 3
		return 100 + 5000*math.Exp(-0.5*d*d)
	})

	base := Baseline(ch, 41)
	require.Len(t, base, len(ch))
	assert.InDelta(t, 100, base[10].Intensity, 1e-9)
	assert.InDelta(t, 100, base[190].Intensity, 1e-9)
	assert.Less(t, base[100].Intensity, 1000.0)

	corrected, err := Subtract(ch, base)
	require.NoError(t, err)
	for i, p := range corrected {
		assert.GreaterOrEqual(t, p.Intensity, 0.0, "index %d", i)
		assert.Equal(t, ch[i].Time, p.Time)
	}
	assert.Greater(t, corrected[100].Intensity, 4000.0)

	_, err = Subtract(ch, base[:10])
	assert.Error(t, err)

	zero := Baseline(ch, 0)
	for _, p := range zero {
		assert.Zero(t, p.Intensity)
	}
}
