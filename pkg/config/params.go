package config

import (
	"github.com/ChrisMcGann/ChromaID/pkg/core"
	"github.com/ChrisMcGann/ChromaID/pkg/filter"
	"github.com/ChrisMcGann/ChromaID/pkg/identify"
	"github.com/ChrisMcGann/ChromaID/pkg/peak"
	"github.com/ChrisMcGann/ChromaID/pkg/smoothing"
)

// SmoothingFunc resolves the configured smoothing strategy.
func (c *Config) SmoothingFunc() (smoothing.Func, error) {
	m, err := smoothing.ParseMethod(c.Smoothing.Method)
	if err != nil {
		return nil, err
	}
	return smoothing.Select(m)
}

// PeakParams returns validated detector thresholds.
func (c *Config) PeakParams() (peak.Params, error) {
	p := peak.Params{
		NoiseFactor:        c.Peak.NoiseFactor,
		AveragePeakWidth:   c.Peak.AveragePeakWidth,
		AmplitudeNoiseFold: c.Peak.AmplitudeNoiseFold,
		SlopeNoiseFold:     c.Peak.SlopeNoiseFold,
		PeakTopNoiseFold:   c.Peak.PeakTopNoiseFold,
		MinimumDatapoints:  c.Peak.MinimumDatapoints,
		MinimumAmplitude:   c.Peak.MinimumAmplitude,
		HighBaseline:       c.Peak.HighBaseline,
	}
	return p, p.Validate()
}

// IdentifyParams returns validated matching parameters.
func (c *Config) IdentifyParams() (identify.Params, error) {
	id := c.Identification
	rt, err := core.ParseRetentionType(id.RetentionType)
	if err != nil {
		return identify.Params{}, err
	}
	p := identify.Params{
		RetentionType:             rt,
		MZTolerance:               id.MZTolerance,
		MassRangeBegin:            id.MassRangeBegin,
		MassRangeEnd:              id.MassRangeEnd,
		RetentionTimeTolerance:    id.RetentionTimeTolerance,
		RetentionIndexTolerance:   id.RetentionIndexTolerance,
		EISimilarityCutoff:        id.EISimilarityCutoff,
		IdentificationScoreCutoff: id.IdentificationScoreCutoff,
		UseRetentionForFiltering:  id.UseRetentionForFiltering,
		UseRetentionForScoring:    id.UseRetentionForScoring,
		OnlyTopHit:                id.OnlyTopHit,
		RetentionWeight:           id.RetentionWeight,
		DotProductWeight:          id.DotProductWeight,
		ReverseDotProductWeight:   id.ReverseDotProductWeight,
		PresenceWeight:            id.PresenceWeight,
		Workers:                   id.Workers,
	}
	return p, p.Validate()
}

// LibraryFilter returns the preprocessing applied to imported library spectra.
func (c *Config) LibraryFilter() filter.Config {
	return filter.Config{
		TopN:            c.Library.TopN,
		IntensityCutoff: c.Library.IntensityCutoff,
		MassRangeBegin:  c.Library.MassRangeBegin,
		MassRangeEnd:    c.Library.MassRangeEnd,
		NormalizeTo:     c.Library.NormalizeTo,
	}
}
