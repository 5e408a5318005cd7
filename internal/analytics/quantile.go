// Package analytics computes derived business metrics from the fact table:
// per-customer aggregates with RFM quartile scores and monthly revenue
// rollups. It reads fact rows positionally via compiled column indices, so an
// absent column degrades per the documented fallbacks instead of failing.
package analytics

import (
	"math"
	"sort"
)

// Quantile returns the linearly interpolated quantile of xs at p in [0,1].
//
// The interpolation follows the common "R-7" definition (the numpy/pandas
// default): h = (n-1)p, result = xs[floor(h)] + frac(h) * (xs[floor(h)+1] -
// xs[floor(h)]). This keeps the quartile cutoffs deterministic and
// reproducible across implementations.
//
// xs must be sorted ascending. Empty input returns 0.
func Quantile(xs []float64, p float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return xs[0]
	}
	if p <= 0 {
		return xs[0]
	}
	if p >= 1 {
		return xs[n-1]
	}

	h := float64(n-1) * p
	lo := int(math.Floor(h))
	frac := h - float64(lo)
	if lo+1 >= n {
		return xs[n-1]
	}
	return xs[lo] + frac*(xs[lo+1]-xs[lo])
}

// quartileCutoffs computes the 25th/50th/75th percentile cutoffs of values.
func quartileCutoffs(values []float64) (p25, p50, p75 float64) {
	xs := append([]float64(nil), values...)
	sort.Float64s(xs)
	return Quantile(xs, 0.25), Quantile(xs, 0.50), Quantile(xs, 0.75)
}

// quartileScore maps a value to its 1-4 quartile rank against the cutoffs.
func quartileScore(v, p25, p50, p75 float64) int {
	switch {
	case v <= p25:
		return 1
	case v <= p50:
		return 2
	case v <= p75:
		return 3
	default:
		return 4
	}
}
