package indicator

import "math"

// VolumeRatio divides the latest volume by the rolling mean of the last window
// volumes, today included. ok is false when the mean is unavailable or zero.
func VolumeRatio(volumes []float64, window int) (ratio, mean float64, ok bool) {
	mean = RollingMean(volumes, window)
	if math.IsNaN(mean) || mean <= 0 {
		return 0, mean, false
	}
	return last(volumes) / mean, mean, true
}

// VolumeRising reports whether volume strictly increased on each of the last
// k sessions.
func VolumeRising(volumes []float64, k int) bool {
	if k < 1 || len(volumes) < k+1 {
		return false
	}
	n := len(volumes)
	for i := n - k; i < n; i++ {
		if volumes[i] <= volumes[i-1] {
			return false
		}
	}
	return true
}
