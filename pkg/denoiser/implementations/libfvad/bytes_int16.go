//go:build !no_libfvad

package libfvad

import (
	"math"
)

// toInt16 converts samples that are already in the signed 16-bit amplitude
// domain, clamping the overshoots a denoiser may produce.
func toInt16(dst []int16, src []float32) {
	for i, v := range src {
		switch {
		case v >= math.MaxInt16:
			dst[i] = math.MaxInt16
		case v <= math.MinInt16:
			dst[i] = math.MinInt16
		default:
			dst[i] = int16(v)
		}
	}
}
