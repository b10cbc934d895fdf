package identify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlkaneLadderRetentionIndex(t *testing.T) {
	ladder, err := NewAlkaneLadder([]Alkane{
		{Carbon: 12, RetentionTime: 8.0},
		{Carbon: 10, RetentionTime: 5.0},
		{Carbon: 11, RetentionTime: 6.0},
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		rt   float64
		want float64
	}{
		{"on an alkane", 6.0, 1100},
		{"first segment", 5.5, 1050},
		{"wider segment", 7.0, 1150},
		{"before the ladder", 4.0, 900},
		{"after the ladder", 10.0, 1300},
		{"unknown time", -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ladder.RetentionIndex(tt.rt), 1e-9)
		})
	}
}

func TestAlkaneLadderSkippedCarbons(t *testing.T) {
	ladder, err := NewAlkaneLadder([]Alkane{{Carbon: 10, RetentionTime: 4}, {Carbon: 14, RetentionTime: 12}})
	require.NoError(t, err)
	assert.InDelta(t, 1200, ladder.RetentionIndex(8), 1e-9)
}

func TestNewAlkaneLadderErrors(t *testing.T) {
	tests := []struct {
		name    string
		alkanes []Alkane
	}{
		{"too few", []Alkane{{Carbon: 10, RetentionTime: 5}}},
		{"duplicate carbon", []Alkane{{Carbon: 10, RetentionTime: 5}, {Carbon: 10, RetentionTime: 6}}},
		{"out of order", []Alkane{{Carbon: 10, RetentionTime: 7}, {Carbon: 11, RetentionTime: 6}}},
		{"negative time", []Alkane{{Carbon: 10, RetentionTime: -1}, {Carbon: 11, RetentionTime: 6}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAlkaneLadder(tt.alkanes)
			assert.Error(t, err)
		})
	}
}

func TestReadAlkanes(t *testing.T) {
	input := `# n-alkane standard
carbon,rt
C10,5.02
11	6.10

12 8.00
`
	got, err := ReadAlkanes(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Alkane{
		{Carbon: 10, RetentionTime: 5.02},
		{Carbon: 11, RetentionTime: 6.10},
		{Carbon: 12, RetentionTime: 8.00},
	}, got)

	_, err = ReadAlkanes(strings.NewReader("10 5\nC1x 6\n"))
	assert.Error(t, err)

	_, err = ReadAlkanes(strings.NewReader("10\n"))
	assert.Error(t, err)
}
