package analytics

import (
	"math"
	"sort"

	"analytics-service/internal/core/domain"
)

// Percentile uses linear interpolation between closest ranks:
// index = p/100*(n-1), weighted between floor and ceil elements.
// sorted must be ascending. p is clamped to [0, 100].
func Percentile(sorted []float64, p float64) (float64, error) {
	n := len(sorted)
	if n == 0 {
		return 0, domain.ErrInsufficientData
	}
	if n == 1 {
		return sorted[0], nil
	}
	p = math.Max(0, math.Min(100, p))

	idx := p / 100 * float64(n-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo], nil
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac, nil
}

// PercentileRank returns the share of values <= value, scaled to 0-100.
func PercentileRank(sorted []float64, value float64) (float64, error) {
	if len(sorted) == 0 {
		return 0, domain.ErrInsufficientData
	}
	// first index strictly greater than value
	count := sort.Search(len(sorted), func(i int) bool { return sorted[i] > value })
	return float64(count) / float64(len(sorted)) * 100, nil
}

// Median sorts a copy of values and returns the middle element,
// or the mean of the two middle elements for even lengths.
func Median(values []float64) (float64, error) {
	n := len(values)
	if n == 0 {
		return 0, domain.ErrInsufficientData
	}
	sorted := SortedCopy(values)
	if n%2 == 1 {
		return sorted[n/2], nil
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, nil
}

// SortedCopy returns an ascending copy, the input is left untouched.
func SortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}

// Summarize computes count, mean, median, quartiles and range.
func Summarize(values []float64) (domain.StatSummary, error) {
	if len(values) == 0 {
		return domain.StatSummary{}, domain.ErrInsufficientData
	}
	sorted := SortedCopy(values)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	// errors are impossible past the empty check
	p25, _ := Percentile(sorted, 25)
	p50, _ := Percentile(sorted, 50)
	p75, _ := Percentile(sorted, 75)

	return domain.StatSummary{
		Count:  len(sorted),
		Mean:   sum / float64(len(sorted)),
		Median: p50,
		P25:    p25,
		P75:    p75,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}, nil
}

// SummarizeMinimum is Summarize with a minimum sample size.
func SummarizeMinimum(values []float64, minSample int) (*domain.StatSummary, error) {
	if len(values) < minSample || len(values) == 0 {
		return nil, domain.ErrInsufficientData
	}
	s, err := Summarize(values)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
