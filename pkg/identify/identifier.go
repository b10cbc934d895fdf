// Package identify matches the apex spectra of detected peaks against a
// reference library sorted by retention time or retention index.
package identify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
	"github.com/ChrisMcGann/ChromaID/pkg/filter"
)

// ErrUnsortedLibrary is returned when retention filtering is requested on a
// library that is not in ascending key order.
var ErrUnsortedLibrary = errors.New("library is not sorted by retention key")

// Query is the spectrum of one detected peak.
type Query struct {
	PeakID   int
	Spectrum *core.Spectrum
}

// IdentificationResult is the best library match for one peak. ReferenceIndex
// and the scores are -1 when nothing matched.
type IdentificationResult struct {
	PeakID         int
	ReferenceIndex int
	Name           string
	CompoundID     string

	QueryRetention     float64
	ReferenceRetention float64

	DotProduct          float64
	ReverseDotProduct   float64
	PresencePercentage  float64
	EISimilarity        float64
	RetentionSimilarity float64
	TotalScore          float64
}

// Matched reports whether a library record was assigned.
func (r IdentificationResult) Matched() bool {
	return r.ReferenceIndex >= 0
}

// NoMatch returns the sentinel result for peakID.
func NoMatch(peakID int) IdentificationResult {
	return IdentificationResult{
		PeakID:              peakID,
		ReferenceIndex:      -1,
		QueryRetention:      -1,
		ReferenceRetention:  -1,
		DotProduct:          -1,
		ReverseDotProduct:   -1,
		PresencePercentage:  -1,
		EISimilarity:        -1,
		RetentionSimilarity: -1,
		TotalScore:          -1,
	}
}

// Identifier holds a read-only library and can be shared between goroutines.
type Identifier struct {
	params  Params
	library []*core.Spectrum
	keys    []float64
	peaks   [][]core.Peak // per record, sorted and restricted to the mass range
}

// NewIdentifier prepares the library for matching. The library must already
// be sorted by the active retention key when retention filtering is on; see
// PrepareLibrary.
func NewIdentifier(library []*core.Spectrum, p Params) (*Identifier, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.UseRetentionForFiltering && !IsSorted(library, p.RetentionType) {
		return nil, fmt.Errorf("%w (%s)", ErrUnsortedLibrary, p.RetentionType)
	}

	id := &Identifier{
		params:  p,
		library: library,
		keys:    make([]float64, len(library)),
		peaks:   make([][]core.Peak, len(library)),
	}
	for i, rec := range library {
		id.keys[i] = rec.Retention(p.RetentionType)
		id.peaks[i] = preparePeaks(rec.Peaks, p)
	}
	return id, nil
}

// Len returns the number of library records.
func (id *Identifier) Len() int {
	return len(id.library)
}

// Record returns the library record at index i.
func (id *Identifier) Record(i int) *core.Spectrum {
	return id.library[i]
}

func preparePeaks(peaks []core.Peak, p Params) []core.Peak {
	sorted := make([]core.Peak, len(peaks))
	copy(sorted, peaks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MZ < sorted[j].MZ })
	return filter.MassRange(sorted, p.MassRangeBegin, p.MassRangeEnd)
}

// Match finds the best library record for one query. Degenerate queries
// yield NoMatch.
func (id *Identifier) Match(q Query) IdentificationResult {
	best := NoMatch(q.PeakID)
	if q.Spectrum == nil || len(q.Spectrum.Peaks) == 0 || len(id.library) == 0 {
		return best
	}
	p := id.params
	tol := p.Tolerance()
	queryKey := q.Spectrum.Retention(p.RetentionType)
	best.QueryRetention = queryKey

	queryPeaks := preparePeaks(q.Spectrum.Peaks, p)
	if len(queryPeaks) == 0 {
		return best
	}

	start, end := 0, len(id.library)
	filtering := p.UseRetentionForFiltering && queryKey >= 0
	if filtering {
		start, end = NarrowWindow(id.keys, queryKey, tol)
	}

	for i := max(start, 0); i < min(end, len(id.library)); i++ {
		refKey := id.keys[i]
		if filtering && (refKey < 0 || math.Abs(refKey-queryKey) > tol) {
			continue
		}

		scores := compareBinned(alignPeaks(queryPeaks, id.peaks[i], p.MZTolerance))
		ei := p.EISimilarity(scores)
		if ei < p.EISimilarityCutoff {
			continue
		}

		retention := RetentionSimilarity(queryKey, refKey, tol)
		total := p.TotalScore(retention, ei)
		if total <= p.IdentificationScoreCutoff || total <= best.TotalScore {
			continue
		}

		rec := id.library[i]
		best = IdentificationResult{
			PeakID:              q.PeakID,
			ReferenceIndex:      i,
			Name:                rec.Name,
			CompoundID:          rec.CompoundID,
			QueryRetention:      queryKey,
			ReferenceRetention:  refKey,
			DotProduct:          scores.DotProduct,
			ReverseDotProduct:   scores.ReverseDotProduct,
			PresencePercentage:  scores.PresencePercentage,
			EISimilarity:        ei,
			RetentionSimilarity: retention,
			TotalScore:          total,
		}
	}
	return best
}

// Identify matches every query and returns one result per query, in query
// order. Queries are spread over Params.Workers goroutines; cancellation is
// checked between queries. With OnlyTopHit set, a record matched by several
// peaks stays assigned only to the highest scoring one.
func (id *Identifier) Identify(ctx context.Context, queries []Query) ([]IdentificationResult, error) {
	results := make([]IdentificationResult, len(queries))

	workers := id.params.Workers
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan int, workers*2)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = NoMatch(queries[idx].PeakID)
					continue
				}
				results[idx] = id.Match(queries[idx])
			}
		}()
	}

	sent := 0
feed:
	for idx := range queries {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- idx:
			sent++
		}
	}
	close(jobs)
	wg.Wait()

	for idx := sent; idx < len(queries); idx++ {
		results[idx] = NoMatch(queries[idx].PeakID)
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}

	if id.params.OnlyTopHit {
		KeepTopHits(results)
	}
	return results, nil
}

// KeepTopHits clears every result whose library record is also the best
// match of a higher scoring result. Ties keep the earlier result.
func KeepTopHits(results []IdentificationResult) {
	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return results[order[a]].ReferenceIndex > results[order[b]].ReferenceIndex
	})

	for runStart := 0; runStart < len(order); {
		ref := results[order[runStart]].ReferenceIndex
		runEnd := runStart + 1
		for runEnd < len(order) && results[order[runEnd]].ReferenceIndex == ref {
			runEnd++
		}
		if ref >= 0 && runEnd-runStart > 1 {
			keep := order[runStart]
			for _, idx := range order[runStart+1 : runEnd] {
				if results[idx].TotalScore > results[keep].TotalScore {
					keep = idx
				}
			}
			for _, idx := range order[runStart:runEnd] {
				if idx != keep {
					results[idx] = NoMatch(results[idx].PeakID)
				}
			}
		}
		runStart = runEnd
	}
}
