// Package score holds small numeric helpers used to compare rankings and
// grade repositories.
package score

import "math"

// Jaccard returns |a∩b| / |a∪b|. Two empty sets are identical, so the
// result is 1 in that case.
func Jaccard[K comparable](a, b []K) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}

	inter := 0
	for k := range setA {
		if _, ok := setB[k]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

// SafeRate divides numer by denom elementwise. Positions where the
// denominator is missing, NaN or not positive yield 0. NaN numerators count
// as 0. The result has len(numer) elements.
func SafeRate(numer, denom []float64) []float64 {
	out := make([]float64, len(numer))
	for i, n := range numer {
		if i >= len(denom) {
			break
		}
		d := denom[i]
		if math.IsNaN(n) {
			n = 0
		}
		if math.IsNaN(d) || d <= 0 {
			continue
		}
		out[i] = n / d
	}
	return out
}

// Normalize maps xs linearly onto [0, 1]. A constant series maps to all
// zeros. NaN values are treated as 0.
func Normalize(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}

	clean := func(x float64) float64 {
		if math.IsNaN(x) {
			return 0
		}
		return x
	}

	lo, hi := clean(xs[0]), clean(xs[0])
	for _, x := range xs[1:] {
		x = clean(x)
		lo = min(lo, x)
		hi = max(hi, x)
	}
	if hi == lo {
		return out
	}
	for i, x := range xs {
		out[i] = (clean(x) - lo) / (hi - lo)
	}
	return out
}

func toSet[K comparable](xs []K) map[K]struct{} {
	set := make(map[K]struct{}, len(xs))
	for _, x := range xs {
		set[x] = struct{}{}
	}
	return set
}
