// Package analysis runs the full GC-MS workflow for one acquisition:
// smoothing, baseline correction, peak detection on the total ion
// chromatogram, apex spectrum extraction and library identification.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
	"github.com/ChrisMcGann/ChromaID/pkg/identify"
	"github.com/ChrisMcGann/ChromaID/pkg/logging"
	"github.com/ChrisMcGann/ChromaID/pkg/peak"
	"github.com/ChrisMcGann/ChromaID/pkg/reader/scantable"
	"github.com/ChrisMcGann/ChromaID/pkg/smoothing"
)

// Pipeline holds everything needed to analyze runs. A Pipeline is read-only
// once built and may be shared by concurrent Analyze calls.
type Pipeline struct {
	Smooth         smoothing.Func
	SmoothingLevel int
	BaselineWindow int // 0 disables baseline correction
	PeakParams     peak.Params

	// Identifier is optional; without it only detection runs.
	Identifier *identify.Identifier
	// Ladder converts apex retention times to retention indices when set.
	Ladder     identify.AlkaneLadder

	Logger *slog.Logger
}

// Result is the outcome of analyzing one run.
type Result struct {
	RunID           string
	Source          string
	Scans           int
	Detection       *peak.Detection
	Spectra         []*core.Spectrum // apex spectrum per detected peak
	Identifications []identify.IdentificationResult
	Elapsed         time.Duration
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return logging.Discard()
	}
	return p.Logger
}

// PrepareTrace smooths ch and derives the baseline and baseline-corrected
// traces handed to the detector. ch itself is kept for area integration.
func (p *Pipeline) PrepareTrace(ch core.Chromatogram) (peak.Input, error) {
	smooth := p.Smooth
	if smooth == nil {
		var err error
		if smooth, err = smoothing.Select(smoothing.None); err != nil {
			return peak.Input{}, err
		}
	}
	smoothed := smooth(ch, p.SmoothingLevel)
	baseline := smoothing.Baseline(smoothed, p.BaselineWindow)
	corrected, err := smoothing.Subtract(smoothed, baseline)
	if err != nil {
		return peak.Input{}, err
	}
	return peak.Input{Smoothed: smoothed, Baseline: baseline, BaselineCorrected: corrected, Raw: ch}, nil
}

// ApexSpectrum returns the spectrum of the scan at the peak apex, with a
// retention index when a ladder is available.
func (p *Pipeline) ApexSpectrum(run *scantable.Run, pk peak.PeakDetectionResult) *core.Spectrum {
	spec := run.Spectrum(pk.ScanNumAtPeakTop)
	spec.Name = fmt.Sprintf("peak %d", pk.PeakID)
	if len(p.Ladder) > 0 && spec.RetentionTime >= 0 {
		spec.RetentionIndex = p.Ladder.RetentionIndex(spec.RetentionTime)
	}
	return spec
}

// Analyze processes one run. Cancellation is checked between stages.
func (p *Pipeline) Analyze(ctx context.Context, run *scantable.Run) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:  uuid.NewString(),
		Source: run.Source,
		Scans:  len(run.Scans),
	}
	log := p.logger().With(slog.String("run_id", res.RunID), slog.String("source", run.Source))

	tic := run.TIC()
	if err := tic.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", run.Source, err)
	}

	in, err := p.PrepareTrace(tic)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", run.Source, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	det, err := peak.Detect(in, p.PeakParams)
	if err != nil {
		return nil, fmt.Errorf("%s: detect peaks: %w", run.Source, err)
	}
	res.Detection = det
	if det.Aborted {
		log.Warn("peak scan stopped early at a repeated right edge", slog.Int("peaks_kept", len(det.Peaks)))
	}
	log.Debug("peaks detected",
		slog.Int("scans", res.Scans),
		slog.Int("peaks", len(det.Peaks)),
		slog.Float64("global_noise", det.GlobalNoise))

	res.Spectra = make([]*core.Spectrum, len(det.Peaks))
	queries := make([]identify.Query, len(det.Peaks))
	for i, pk := range det.Peaks {
		res.Spectra[i] = p.ApexSpectrum(run, pk)
		queries[i] = identify.Query{PeakID: pk.PeakID, Spectrum: res.Spectra[i]}
	}

	if p.Identifier != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Identifications, err = p.Identifier.Identify(ctx, queries)
		if err != nil {
			return nil, fmt.Errorf("%s: identify: %w", run.Source, err)
		}
		matched := 0
		for _, r := range res.Identifications {
			if r.Matched() {
				matched++
			}
		}
		log.Debug("peaks identified", slog.Int("matched", matched), slog.Int("library", p.Identifier.Len()))
	}

	res.Elapsed = time.Since(start)
	log.Info("run analyzed",
		slog.Int("peaks", len(det.Peaks)),
		slog.Duration("elapsed", res.Elapsed))
	return res, nil
}
