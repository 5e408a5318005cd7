package analytics

import (
	"math"
	"testing"
)

func TestQuantile_LinearInterpolation(t *testing.T) {
	t.Parallel()

	xs := []float64{1, 2, 3, 4}
	cases := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.25, 1.75},
		{0.5, 2.5},
		{0.75, 3.25},
		{1, 4},
	}
	for _, c := range cases {
		if got := Quantile(xs, c.p); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("Quantile(p=%v)=%v, want %v", c.p, got, c.want)
		}
	}
}

func TestQuantile_Degenerate(t *testing.T) {
	t.Parallel()

	if got := Quantile(nil, 0.5); got != 0 {
		t.Errorf("empty: %v, want 0", got)
	}
	if got := Quantile([]float64{7}, 0.9); got != 7 {
		t.Errorf("single: %v, want 7", got)
	}
}

func TestQuartileScore(t *testing.T) {
	t.Parallel()

	p25, p50, p75 := 10.0, 20.0, 30.0
	cases := []struct {
		v    float64
		want int
	}{
		{5, 1}, {10, 1}, {15, 2}, {20, 2}, {25, 3}, {30, 3}, {31, 4},
	}
	for _, c := range cases {
		if got := quartileScore(c.v, p25, p50, p75); got != c.want {
			t.Errorf("quartileScore(%v)=%d, want %d", c.v, got, c.want)
		}
	}
}
