package identify

const (
	narrowLowerIterations = 5
	narrowUpperIterations = 10

	// narrowSlack widens the bisection targets beyond the exact tolerance.
	narrowSlack = 1.5
)

// NarrowWindow returns an advisory [start, end) window of keys (ascending)
// that contains every index whose key lies within tolerance of center. The
// bisection runs a fixed number of iterations, so the window is usually wider
// than necessary; callers must re-check the tolerance for each index.
func NarrowWindow(keys []float64, center, tolerance float64) (start, end int) {
	if len(keys) == 0 {
		return 0, 0
	}
	start = lowerIndex(keys, center-narrowSlack*tolerance)
	end = upperIndex(keys, center+narrowSlack*tolerance) + 1
	if end > len(keys) {
		end = len(keys)
	}
	if start > end {
		start = end
	}
	return start, end
}

// lowerIndex returns an index whose key is <= target, or 0 when target lies
// below the first key. No key before it exceeds target.
func lowerIndex(keys []float64, target float64) int {
	last := len(keys) - 1
	if target > keys[last] {
		return last
	}
	start, end := 0, last
	for iter := 0; iter < narrowLowerIterations; iter++ {
		mid := (start + end) / 2
		if keys[start] <= target && target < keys[mid] {
			end = mid
		} else if keys[mid] <= target && target < keys[end] {
			start = mid
		}
	}
	return start
}

// upperIndex returns an index whose key exceeds target, or the last index.
// No key after it is <= target.
func upperIndex(keys []float64, target float64) int {
	last := len(keys) - 1
	if target >= keys[last] {
		return last
	}
	start, end := 0, last
	for iter := 0; iter < narrowUpperIterations; iter++ {
		mid := (start + end) / 2
		if keys[start] <= target && target < keys[mid] {
			end = mid
		} else if keys[mid] <= target && target < keys[end] {
			start = mid
		}
	}
	return end
}
