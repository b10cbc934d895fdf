package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpectrumValidation(t *testing.T) {
	tests := []struct {
		name    string
		spec    *Spectrum
		wantErr bool
	}{
		{
			name: "valid spectrum",
			spec: &Spectrum{
				Name: "Alanine 2TMS",
				Peaks: []Peak{
					{MZ: 73.0, Intensity: 999.0},
					{MZ: 116.0, Intensity: 450.0},
				},
			},
			wantErr: false,
		},
		{
			name: "missing name",
			spec: &Spectrum{
				Peaks: []Peak{{MZ: 73.0, Intensity: 999.0}},
			},
			wantErr: true,
		},
		{
			name:    "no peaks",
			spec:    &Spectrum{Name: "Empty", Peaks: []Peak{}},
			wantErr: true,
		},
		{
			name: "unsorted peaks",
			spec: &Spectrum{
				Name: "Unsorted",
				Peaks: []Peak{
					{MZ: 200.0, Intensity: 2000.0},
					{MZ: 100.0, Intensity: 1000.0},
				},
			},
			wantErr: true,
		},
		{
			name: "NaN m/z",
			spec: &Spectrum{
				Name:  "NaN",
				Peaks: []Peak{{MZ: math.NaN(), Intensity: 1000.0}},
			},
			wantErr: true,
		},
		{
			name: "negative intensity",
			spec: &Spectrum{
				Name:  "Negative",
				Peaks: []Peak{{MZ: 50, Intensity: -1}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "Spectrum", verr.Field)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSortPeaks(t *testing.T) {
	spec := &Spectrum{
		Peaks: []Peak{
			{MZ: 300.0, Intensity: 100.0},
			{MZ: 100.0, Intensity: 200.0},
			{MZ: 200.0, Intensity: 150.0},
		},
	}

	spec.SortPeaks()

	require.Len(t, spec.Peaks, 3)
	expected := []float64{100.0, 200.0, 300.0}
	for i, peak := range spec.Peaks {
		assert.Equal(t, expected[i], peak.MZ, "peak %d", i)
	}
	assert.True(t, spec.ArePeaksSorted())
}

func TestBasePeak(t *testing.T) {
	spec := &Spectrum{Peaks: []Peak{{MZ: 73, Intensity: 10}, {MZ: 147, Intensity: 90}, {MZ: 148, Intensity: 12}}}
	assert.Equal(t, Peak{MZ: 147, Intensity: 90}, spec.BasePeak())
	assert.Equal(t, Peak{}, NewSpectrum().BasePeak())
}

func TestRetentionAccessors(t *testing.T) {
	spec := NewSpectrum()
	assert.False(t, spec.HasRetention(RetentionTime))
	assert.False(t, spec.HasRetention(RetentionIndex))

	spec.RetentionTime = 5.2
	assert.True(t, spec.HasRetention(RetentionTime))
	assert.Equal(t, 5.2, spec.Retention(RetentionTime))
	assert.Equal(t, -1.0, spec.Retention(RetentionIndex))
}

func TestParseRetentionType(t *testing.T) {
	tests := []struct {
		in      string
		want    RetentionType
		wantErr bool
	}{
		{"rt", RetentionTime, false},
		{"RI", RetentionIndex, false},
		{"", RetentionTime, false},
		{"mz", RetentionTime, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRetentionType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.String(), got.String())
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Glycine", (&Spectrum{Name: "Glycine", CompoundID: "7"}).DisplayName())
	assert.Equal(t, "7", (&Spectrum{CompoundID: "7"}).DisplayName())
	assert.Equal(t, "unnamed", (&Spectrum{}).DisplayName())
}

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		name      string
		val       float64
		precision int
		want      float64
	}{
		{"round to 2 decimals", 3.14159, 2, 3.14},
		{"round to 4 decimals", 3.14159, 4, 3.1416},
		{"round to 0 decimals", 3.6, 0, 4.0},
		{"round negative", -3.14159, 2, -3.14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoundFloat(tt.val, tt.precision))
		})
	}
}
