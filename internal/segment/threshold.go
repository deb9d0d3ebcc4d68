package segment

import "fmt"

// OtsuThreshold selects the intensity cut that maximizes the between-class
// variance of the histogram of samples.
//
// The result is the last level of the dark class: a level v splits the
// samples into values <= v and values > v. When several levels reach the same
// maximum, the first and last are averaged (rounding down), which places the
// result in the middle of an empty gap between two modes. A constant input
// has no valid split and returns its only value.
//
// bitDepth sets the histogram size (2^bitDepth bins); samples above the
// largest representable value are clamped into the last bin.
func OtsuThreshold(samples []uint16, bitDepth int) (int, error) {
	if len(samples) == 0 {
		return 0, fmt.Errorf("%w: no samples for threshold estimation", ErrInvalidConfiguration)
	}
	if bitDepth <= 0 {
		bitDepth = DefaultBitDepth
	}
	if bitDepth > 16 {
		return 0, fmt.Errorf("%w: bit depth %d exceeds 16", ErrInvalidConfiguration, bitDepth)
	}

	levels := 1 << uint(bitDepth)
	hist := make([]int, levels)
	for _, v := range samples {
		i := int(v)
		if i >= levels {
			i = levels - 1
		}
		hist[i]++
	}

	lo, hi := -1, -1
	var total, totalSum float64
	for level, n := range hist {
		if n == 0 {
			continue
		}
		if lo < 0 {
			lo = level
		}
		hi = level
		total += float64(n)
		totalSum += float64(level) * float64(n)
	}
	if lo == hi {
		return lo, nil
	}

	var (
		bestVariance = -1.0
		firstBest    int
		lastBest     int

		darkCount float64
		darkSum   float64
	)
	for v := lo; v < hi; v++ {
		darkCount += float64(hist[v])
		darkSum += float64(v) * float64(hist[v])

		brightCount := total - darkCount
		darkMean := darkSum / darkCount
		brightMean := (totalSum - darkSum) / brightCount

		diff := darkMean - brightMean
		variance := darkCount * brightCount * diff * diff
		switch {
		case variance > bestVariance:
			bestVariance = variance
			firstBest, lastBest = v, v
		case variance == bestVariance:
			lastBest = v
		}
	}

	return (firstBest + lastBest) / 2, nil
}

// EstimateThreshold returns otsu(r) + offset.
func EstimateThreshold(r *Raster, offset float64) (float64, error) {
	t, err := OtsuThreshold(r.Pix, r.Depth())
	if err != nil {
		return 0, err
	}
	return float64(t) + offset, nil
}
