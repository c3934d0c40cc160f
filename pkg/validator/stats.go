package validator

import (
	"math"
	"sort"
)

// columnStats summarises the non-NULL values of a numeric column.
type columnStats struct {
	Count  int64
	Mean   float64
	StdDev float64
	// HasStdDev is false when the sample standard deviation is undefined.
	HasStdDev bool
	Min       float64
	Max       float64
}

// describe computes count, mean, sample standard deviation, min and max.
func describe(values []float64) columnStats {
	s := columnStats{Count: int64(len(values))}
	if len(values) == 0 {
		return s
	}
	s.Min, s.Max = values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = sum / float64(len(values))
	if len(values) < 2 {
		return s
	}
	var sq float64
	for _, v := range values {
		d := v - s.Mean
		sq += d * d
	}
	s.StdDev = math.Sqrt(sq / float64(len(values)-1))
	s.HasStdDev = true
	return s
}

// quantile returns the p-quantile of sorted values by linear interpolation
// between closest ranks, matching PERCENTILE_CONT.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// quartiles returns q1, median and q3 of values. values is sorted in place.
func quartiles(values []float64) (q1, median, q3 float64) {
	sort.Float64s(values)
	return quantile(values, 0.25), quantile(values, 0.5), quantile(values, 0.75)
}
