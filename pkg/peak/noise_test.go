package peak

import (
	"testing"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestEstimateNoiseFlatTraceUsesFloor(t *testing.T) {
	ch := rampTrace(50, func(float64) float64 { return 100 })
	noise := EstimateNoise(ch, Differentiate(ch))

	assert.Equal(t, NoiseEstimate{Amplitude: noiseFloor, Slope: noiseFloor, PeakTop: noiseFloor}, noise)
}

func TestEstimateNoiseIgnoresLargeSignal(t *testing.T) {
	quiet := syntheticTrace(300, nil, 10, 3)
	loud := syntheticTrace(300, []gaussian{{center: 150, sigma: 3, height: 50000}}, 10, 3)

	qn := EstimateNoise(quiet, Differentiate(quiet))
	ln := EstimateNoise(loud, Differentiate(loud))

	assert.Greater(t, ln.Amplitude, 0.0)
	assert.Less(t, ln.Amplitude, 20.0, "noise must stay at the noise scale, not the peak scale")
	assert.Less(t, ln.Slope, 20.0)
	assert.Greater(t, qn.Amplitude, 0.0)
}

func TestGlobalNoise(t *testing.T) {
	ch := core.NewChromatogram([]float64{0, 1, 2, 3, 4}, []float64{0, 2, 2, 6, 5})
	// nonzero deltas: 2, 4, 1 -> median 2
	assert.InDelta(t, 6.0, GlobalNoise(ch, 3), 1e-12)
	assert.InDelta(t, noiseFloor*3, GlobalNoise(core.Chromatogram{}, 3), 1e-12)
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"odd", []float64{5, 1, 3}, 3},
		{"even", []float64{4, 1, 3, 2}, 2.5},
		{"single", []float64{7}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, median(tt.values))
		})
	}
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	median(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}
