// Package num holds the small numeric kit shared by the scoring pipeline
// and the retroactive estimator.
package num

import (
	"math"
	"sort"
)

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sigmoid is the logistic function 1/(1+e^-x).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// Bell is a Gaussian centered at 0 with the given sigma, peaking at 1.
func Bell(x, sigma float64) float64 {
	if sigma == 0 {
		return 0
	}
	return math.Exp(-(x * x) / (2 * sigma * sigma))
}

// Median returns the median of vs, or 0 for an empty slice.
func Median(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	s := append([]float64(nil), vs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// Mean returns the arithmetic mean of vs, or 0 for an empty slice.
func Mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// Stdev returns the population standard deviation of vs.
func Stdev(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	m := Mean(vs)
	acc := 0.0
	for _, v := range vs {
		d := v - m
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(vs)))
}
