package peak

import (
	"fmt"
	"strings"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
)

// Params holds the detection thresholds.
type Params struct {
	NoiseFactor        float64 // divides the global noise floor into the reported noise
	AveragePeakWidth   int     // samples searched outward from the apex during curation
	AmplitudeNoiseFold float64
	SlopeNoiseFold     float64
	PeakTopNoiseFold   float64
	MinimumDatapoints  float64 // minimum peak width in samples
	MinimumAmplitude   float64 // absolute minimum peak height
	HighBaseline       bool    // reject candidates that do not clear the median baseline
}

// DefaultParams returns the thresholds used for unit-resolution GC-MS data.
func DefaultParams() Params {
	return Params{
		NoiseFactor:        3,
		AveragePeakWidth:   30,
		AmplitudeNoiseFold: 4,
		SlopeNoiseFold:     2,
		PeakTopNoiseFold:   2,
		MinimumDatapoints:  5,
		MinimumAmplitude:   1000,
	}
}

// Validate checks that every threshold is usable.
func (p Params) Validate() error {
	var errs []string
	if p.NoiseFactor <= 0 {
		errs = append(errs, "noise factor must be positive")
	}
	if p.AveragePeakWidth < 1 {
		errs = append(errs, "average peak width must be at least 1")
	}
	if p.AmplitudeNoiseFold < 0 || p.SlopeNoiseFold < 0 || p.PeakTopNoiseFold < 0 {
		errs = append(errs, "noise fold criteria must be non-negative")
	}
	if p.MinimumDatapoints < 1 {
		errs = append(errs, "minimum datapoints must be at least 1")
	}
	if p.MinimumAmplitude < 0 {
		errs = append(errs, "minimum amplitude must be non-negative")
	}
	if len(errs) > 0 {
		return &core.ValidationError{Field: "peak.Params", Message: strings.Join(errs, "; ")}
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("noise_factor=%g width=%d amp_fold=%g slope_fold=%g top_fold=%g min_points=%g min_amp=%g",
		p.NoiseFactor, p.AveragePeakWidth, p.AmplitudeNoiseFold, p.SlopeNoiseFold,
		p.PeakTopNoiseFold, p.MinimumDatapoints, p.MinimumAmplitude)
}
