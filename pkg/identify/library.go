package identify

import (
	"sort"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
)

// PrepareLibrary returns the records ordered by the active retention key.
// With retention filtering on, records lacking that key are dropped since
// they can never pass the window check. The input slice is not modified.
func PrepareLibrary(records []*core.Spectrum, p Params) []*core.Spectrum {
	prepared := make([]*core.Spectrum, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		if p.UseRetentionForFiltering && !r.HasRetention(p.RetentionType) {
			continue
		}
		prepared = append(prepared, r)
	}

	sort.SliceStable(prepared, func(i, j int) bool {
		return prepared[i].Retention(p.RetentionType) < prepared[j].Retention(p.RetentionType)
	})
	return prepared
}

// IsSorted reports whether records are in ascending order of the key.
func IsSorted(records []*core.Spectrum, t core.RetentionType) bool {
	for i := 1; i < len(records); i++ {
		if records[i].Retention(t) < records[i-1].Retention(t) {
			return false
		}
	}
	return true
}
