package oscfilter

// findPeaks returns the indices of strict local maxima of v whose prominence
// is at least minProminence, in ascending index order.
func findPeaks(v []float64, minProminence float64) []int {
	var peaks []int
	for i := 1; i < len(v)-1; i++ {
		if v[i] > v[i-1] && v[i] > v[i+1] && prominence(v, i) >= minProminence {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// prominence measures how far a peak rises above its surroundings: the peak
// height minus the higher of the two valley floors separating it from the
// nearest larger sample (or the signal edge) on each side.
func prominence(v []float64, peak int) float64 {
	h := v[peak]

	leftBase := h
	for i := peak - 1; i >= 0; i-- {
		if v[i] > h {
			break
		}
		if v[i] < leftBase {
			leftBase = v[i]
		}
	}

	rightBase := h
	for i := peak + 1; i < len(v); i++ {
		if v[i] > h {
			break
		}
		if v[i] < rightBase {
			rightBase = v[i]
		}
	}

	base := leftBase
	if rightBase > base {
		base = rightBase
	}
	return h - base
}

// halfWidth measures the full width at half maximum of the peak at index k,
// interpolating the half-height crossings linearly between samples. df is
// the frequency spacing. When a crossing runs off the array the distance to
// the edge is used.
func halfWidth(v []float64, k int, df float64) float64 {
	half := v[k] / 2

	left := 0.0
	for i := k - 1; i >= 0; i-- {
		if v[i] <= half {
			frac := (v[i+1] - half) / (v[i+1] - v[i])
			left = float64(k-i-1) + frac
			break
		}
		if i == 0 {
			left = float64(k)
		}
	}

	right := 0.0
	n := len(v)
	for i := k + 1; i < n; i++ {
		if v[i] <= half {
			frac := (v[i-1] - half) / (v[i-1] - v[i])
			right = float64(i-1-k) + frac
			break
		}
		if i == n-1 {
			right = float64(n - 1 - k)
		}
	}

	return (left + right) * df
}
