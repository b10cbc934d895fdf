package config

import (
	"github.com/ChrisMcGann/ChromaID/pkg/identify"
	"github.com/ChrisMcGann/ChromaID/pkg/peak"
)

const (
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultSmoothing      = "linear_weighted_moving_average"
	defaultSmoothingLevel = 3
	defaultBaselineWindow = 101
	defaultRetentionType  = "rt"
	defaultWorkers        = 4
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	pp := peak.DefaultParams()
	ip := identify.DefaultParams()

	return Config{
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Smoothing: Smoothing{
			Method:         defaultSmoothing,
			Level:          defaultSmoothingLevel,
			BaselineWindow: defaultBaselineWindow,
		},
		Peak: Peak{
			NoiseFactor:        pp.NoiseFactor,
			AveragePeakWidth:   pp.AveragePeakWidth,
			AmplitudeNoiseFold: pp.AmplitudeNoiseFold,
			SlopeNoiseFold:     pp.SlopeNoiseFold,
			PeakTopNoiseFold:   pp.PeakTopNoiseFold,
			MinimumDatapoints:  pp.MinimumDatapoints,
			MinimumAmplitude:   pp.MinimumAmplitude,
			HighBaseline:       pp.HighBaseline,
		},
		Identification: Identification{
			RetentionType:             defaultRetentionType,
			MZTolerance:               ip.MZTolerance,
			MassRangeBegin:            ip.MassRangeBegin,
			MassRangeEnd:              ip.MassRangeEnd,
			RetentionTimeTolerance:    ip.RetentionTimeTolerance,
			RetentionIndexTolerance:   ip.RetentionIndexTolerance,
			EISimilarityCutoff:        ip.EISimilarityCutoff,
			IdentificationScoreCutoff: ip.IdentificationScoreCutoff,
			UseRetentionForFiltering:  ip.UseRetentionForFiltering,
			UseRetentionForScoring:    ip.UseRetentionForScoring,
			OnlyTopHit:                ip.OnlyTopHit,
			RetentionWeight:           ip.RetentionWeight,
			DotProductWeight:          ip.DotProductWeight,
			ReverseDotProductWeight:   ip.ReverseDotProductWeight,
			PresenceWeight:            ip.PresenceWeight,
			Workers:                   defaultWorkers,
		},
		Workers: defaultWorkers,
	}
}
