package analysis

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
	"github.com/ChrisMcGann/ChromaID/pkg/identify"
	"github.com/ChrisMcGann/ChromaID/pkg/peak"
	"github.com/ChrisMcGann/ChromaID/pkg/reader/scantable"
	"github.com/ChrisMcGann/ChromaID/pkg/smoothing"
)

type compound struct {
	name   string
	apex   float64 // scan index
	sigma  float64
	height float64
	peaks  []core.Peak
}

var (
	compoundA = compound{
		name: "hexanal", apex: 100, sigma: 3, height: 100,
		peaks: []core.Peak{{MZ: 41, Intensity: 200}, {MZ: 43, Intensity: 999}, {MZ: 57, Intensity: 500}, {MZ: 71, Intensity: 300}},
	}
	compoundB = compound{
		name: "toluene", apex: 200, sigma: 3, height: 60,
		peaks: []core.Peak{{MZ: 51, Intensity: 150}, {MZ: 77, Intensity: 999}, {MZ: 91, Intensity: 600}, {MZ: 105, Intensity: 300}},
	}
)

func scanTime(i int) float64 { return 0.5 + float64(i)*0.01 }

// syntheticRun elutes the compounds as Gaussians over n scans and adds a
// low random ion at m/z 500 to every scan.
func syntheticRun(n int, seed int64, compounds ...compound) *scantable.Run {
	rng := rand.New(rand.NewSource(seed))
	run := &scantable.Run{Source: "synthetic"}
	for i := 0; i < n; i++ {
		scan := scantable.Scan{Number: i + 1, Time: scanTime(i)}
		for _, c := range compounds {
			d := (float64(i) - c.apex) / c.sigma
			scale := c.height * math.Exp(-0.5*d*d)
			if scale < 1e-3 {
				continue
			}
			for _, p := range c.peaks {
				scan.Peaks = append(scan.Peaks, core.Peak{MZ: p.MZ, Intensity: p.Intensity * scale})
			}
		}
		scan.Peaks = append(scan.Peaks, core.Peak{MZ: 500, Intensity: 1 + rng.Float64()*99})
		run.Scans = append(run.Scans, scan)
	}
	return run
}

func writeRun(t *testing.T, dir, name string, run *scantable.Run) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("scan\ttime\tmz\tintensity\n")
	for _, s := range run.Scans {
		for _, p := range s.Peaks {
			fmt.Fprintf(&b, "%d\t%.4f\t%.4f\t%.4f\n", s.Number, s.Time, p.MZ, p.Intensity)
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func libraryRecord(c compound, rt float64) *core.Spectrum {
	s := core.NewSpectrum()
	s.Name = c.name
	s.CompoundID = strings.ToUpper(c.name)
	s.RetentionTime = rt
	s.Peaks = append(s.Peaks, c.peaks...)
	return s
}

func testLibrary(seed int64) []*core.Spectrum {
	rng := rand.New(rand.NewSource(seed))
	lib := []*core.Spectrum{
		libraryRecord(compoundA, scanTime(int(compoundA.apex))),
		libraryRecord(compoundB, scanTime(int(compoundB.apex))),
	}
	for i := 0; i < 40; i++ {
		s := core.NewSpectrum()
		s.Name = fmt.Sprintf("decoy-%d", i)
		s.RetentionTime = 0.5 + float64(i)*0.07
		for j := 0; j < 8; j++ {
			s.Peaks = append(s.Peaks, core.Peak{MZ: float64(110 + j*35 + rng.Intn(30)), Intensity: float64(1 + rng.Intn(999))})
		}
		s.SortPeaks()
		lib = append(lib, s)
	}
	return lib
}

func testPipeline(t *testing.T, withLibrary bool) *Pipeline {
	t.Helper()
	smooth, err := smoothing.Select(smoothing.LinearWeightedMovingAverage)
	require.NoError(t, err)

	p := &Pipeline{
		Smooth:         smooth,
		SmoothingLevel: 2,
		BaselineWindow: 101,
		PeakParams:     peak.DefaultParams(),
	}
	if withLibrary {
		params := identify.DefaultParams()
		params.Workers = 2
		id, err := identify.NewIdentifier(identify.PrepareLibrary(testLibrary(5), params), params)
		require.NoError(t, err)
		p.Identifier = id
	}
	return p
}

func TestAnalyzeDetectsAndIdentifies(t *testing.T) {
	run := syntheticRun(300, 1, compoundA, compoundB)
	p := testPipeline(t, true)

	res, err := p.Analyze(context.Background(), run)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 300, res.Scans)
	require.NotNil(t, res.Detection)
	require.Len(t, res.Detection.Peaks, 2)
	require.Len(t, res.Spectra, 2)
	require.Len(t, res.Identifications, 2)

	first, second := res.Detection.Peaks[0], res.Detection.Peaks[1]
	assert.InDelta(t, compoundA.apex, first.ScanNumAtPeakTop, 1)
	assert.InDelta(t, compoundB.apex, second.ScanNumAtPeakTop, 1)
	assert.Equal(t, 1, first.AmplitudeOrder)

	for i, want := range []string{compoundA.name, compoundB.name} {
		got := res.Identifications[i]
		assert.Equal(t, res.Detection.Peaks[i].PeakID, got.PeakID)
		require.True(t, got.Matched(), "peak %d", i)
		assert.Equal(t, want, got.Name)
		assert.Greater(t, got.DotProduct, 0.99)
		assert.Greater(t, got.TotalScore, 0.95)
	}

	apex := res.Spectra[0]
	assert.InDelta(t, scanTime(int(compoundA.apex)), apex.RetentionTime, 0.011)
	assert.Equal(t, -1.0, apex.RetentionIndex, "no ladder configured")
}

func TestAnalyzeWithoutLibrary(t *testing.T) {
	res, err := testPipeline(t, false).Analyze(context.Background(), syntheticRun(300, 2, compoundA))
	require.NoError(t, err)
	require.Len(t, res.Detection.Peaks, 1)
	assert.Nil(t, res.Identifications)
}

func TestAnalyzeNoiseOnlyRun(t *testing.T) {
	res, err := testPipeline(t, true).Analyze(context.Background(), syntheticRun(300, 3))
	require.NoError(t, err)
	assert.Empty(t, res.Detection.Peaks)
	assert.Empty(t, res.Identifications)
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testPipeline(t, true).Analyze(ctx, syntheticRun(300, 4, compoundA))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrepareTrace(t *testing.T) {
	ch := core.NewChromatogram(
		[]float64{0, 1, 2, 3, 4, 5, 6},
		[]float64{10, 10, 10, 50, 10, 10, 10},
	)

	p := &Pipeline{BaselineWindow: 3}
	in, err := p.PrepareTrace(ch)
	require.NoError(t, err)
	assert.Equal(t, ch.Intensities(), in.Smoothed.Intensities(), "nil smoother leaves the trace alone")
	assert.Equal(t, ch, in.Raw)
	require.Len(t, in.Baseline, len(ch))
	require.Len(t, in.BaselineCorrected, len(ch))
	for i := range ch {
		assert.GreaterOrEqual(t, in.BaselineCorrected[i].Intensity, 0.0)
		assert.InDelta(t, math.Max(0, in.Smoothed[i].Intensity-in.Baseline[i].Intensity), in.BaselineCorrected[i].Intensity, 1e-9)
	}
	assert.Greater(t, in.BaselineCorrected[3].Intensity, 30.0)

	p.BaselineWindow = 0
	in, err = p.PrepareTrace(ch)
	require.NoError(t, err)
	assert.Equal(t, ch.Intensities(), in.BaselineCorrected.Intensities())
}

func TestApexSpectrumUsesLadder(t *testing.T) {
	ladder, err := identify.NewAlkaneLadder([]identify.Alkane{{Carbon: 10, RetentionTime: 1.0}, {Carbon: 12, RetentionTime: 2.0}})
	require.NoError(t, err)

	run := syntheticRun(300, 6, compoundA)
	p := &Pipeline{Ladder: ladder}
	spec := p.ApexSpectrum(run, peak.PeakDetectionResult{PeakID: 7, ScanNumAtPeakTop: 100})

	assert.Equal(t, "peak 7", spec.Name)
	assert.InDelta(t, 1.5, spec.RetentionTime, 1e-9)
	assert.InDelta(t, 1100, spec.RetentionIndex, 1e-6)
	assert.True(t, spec.ArePeaksSorted())
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeRun(t, dir, "a.tsv", syntheticRun(300, 10, compoundA)),
		writeRun(t, dir, "ab.tsv", syntheticRun(300, 11, compoundA, compoundB)),
		writeRun(t, dir, "blank.tsv", syntheticRun(300, 12)),
	}

	results, err := testPipeline(t, true).RunBatch(context.Background(), paths, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, want := range []int{1, 2, 0} {
		require.NotNil(t, results[i], paths[i])
		assert.Equal(t, paths[i], results[i].Source)
		assert.Len(t, results[i].Detection.Peaks, want, paths[i])
	}
	assert.NotEqual(t, results[0].RunID, results[1].RunID)
}

func TestRunBatchMissingFile(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeRun(t, dir, "a.tsv", syntheticRun(300, 13, compoundA)),
		filepath.Join(dir, "missing.tsv"),
	}
	_, err := testPipeline(t, false).RunBatch(context.Background(), paths, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open scan table")
}

func TestRunBatchCancelled(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeRun(t, dir, "a.tsv", syntheticRun(300, 14, compoundA))}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := testPipeline(t, false).RunBatch(ctx, paths, 2)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results[0])
}
