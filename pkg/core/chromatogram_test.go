package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChromatogram(t *testing.T) {
	ch := NewChromatogram([]float64{0.1, 0.2, 0.3}, []float64{5, 7})
	require.Len(t, ch, 2)
	assert.Equal(t, ValuePoint{ID: 1, Time: 0.2, Intensity: 7}, ch[1])
	assert.Equal(t, []float64{0.1, 0.2}, ch.Times())
	assert.Equal(t, []float64{5, 7}, ch.Intensities())
}

func TestWithIntensitiesCopies(t *testing.T) {
	ch := NewChromatogram([]float64{1, 2}, []float64{10, 20})
	out := ch.WithIntensities([]float64{1, 2})
	assert.Equal(t, []float64{10, 20}, ch.Intensities())
	assert.Equal(t, []float64{1, 2}, out.Intensities())
	assert.Equal(t, ch.Times(), out.Times())
}

func TestChromatogramValidate(t *testing.T) {
	tests := []struct {
		name    string
		ch      Chromatogram
		wantErr bool
	}{
		{"empty", Chromatogram{}, false},
		{"ascending", NewChromatogram([]float64{1, 2, 2, 3}, []float64{0, 1, 2, 3}), false},
		{"descending time", NewChromatogram([]float64{1, 3, 2}, []float64{0, 1, 2}), true},
		{"nan intensity", NewChromatogram([]float64{1, 2}, []float64{0, math.NaN()}), true},
		{"inf time", NewChromatogram([]float64{1, math.Inf(1)}, []float64{0, 1}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ch.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
