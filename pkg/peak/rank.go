package peak

import "sort"

// RankByAmplitude assigns AmplitudeOrder (1 = most intense apex) and
// AmplitudeScore (apex / largest apex) without reordering peaks.
func RankByAmplitude(peaks []PeakDetectionResult) {
	if len(peaks) == 0 {
		return
	}

	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return peaks[order[a]].IntensityAtPeakTop > peaks[order[b]].IntensityAtPeakTop
	})

	maxIntensity := peaks[order[0]].IntensityAtPeakTop
	for rank, idx := range order {
		peaks[idx].AmplitudeOrder = rank + 1
		if maxIntensity > 0 {
			peaks[idx].AmplitudeScore = peaks[idx].IntensityAtPeakTop / maxIntensity
		}
	}
}
