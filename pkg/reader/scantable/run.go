package scantable

import (
	"fmt"
	"io"
	"math"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
)

// Run is a whole acquisition held in memory.
type Run struct {
	Source string
	Scans  []Scan
}

// ReadRun reads every scan from r.
func ReadRun(r io.Reader, source string) (*Run, error) {
	reader := NewReader(r)
	run := &Run{Source: source}
	for reader.Next() {
		run.Scans = append(run.Scans, *reader.Scan())
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scans from %s: %w", source, err)
	}
	return run, nil
}

// TIC returns the total ion chromatogram. ValuePoint IDs are scan numbers.
func (r *Run) TIC() core.Chromatogram {
	ch := make(core.Chromatogram, len(r.Scans))
	for i, s := range r.Scans {
		var total float64
		for _, p := range s.Peaks {
			total += p.Intensity
		}
		ch[i] = core.ValuePoint{ID: s.Number, Time: s.Time, Intensity: total}
	}
	return ch
}

// EIC returns the extracted ion chromatogram for mz within tolerance.
func (r *Run) EIC(mz, tolerance float64) core.Chromatogram {
	ch := make(core.Chromatogram, len(r.Scans))
	for i, s := range r.Scans {
		var total float64
		for _, p := range s.Peaks {
			if math.Abs(p.MZ-mz) <= tolerance {
				total += p.Intensity
			}
		}
		ch[i] = core.ValuePoint{ID: s.Number, Time: s.Time, MZ: mz, Intensity: total}
	}
	return ch
}

// Spectrum returns scan i as a query spectrum with its retention time set.
func (r *Run) Spectrum(i int) *core.Spectrum {
	s := core.NewSpectrum()
	if i < 0 || i >= len(r.Scans) {
		return s
	}
	scan := r.Scans[i]
	s.Name = fmt.Sprintf("scan %d", scan.Number)
	s.CompoundID = fmt.Sprintf("%d", scan.Number)
	s.RetentionTime = scan.Time
	s.SourceFile = r.Source
	s.SourceFormat = "scans"
	s.Peaks = append(s.Peaks, scan.Peaks...)
	s.SortPeaks()
	return s
}
