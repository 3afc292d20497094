package analytics

import (
	"testing"

	"analytics-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	p, err := Percentile(sorted, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)

	p, err = Percentile(sorted, 100)
	require.NoError(t, err)
	assert.Equal(t, 4.0, p)

	// index = 0.25 * 3 = 0.75 -> 1 + 0.75
	p, err = Percentile(sorted, 25)
	require.NoError(t, err)
	assert.InDelta(t, 1.75, p, 1e-9)
}

func TestPercentile_SingleValue(t *testing.T) {
	for _, pct := range []float64{0, 25, 50, 99, 100} {
		p, err := Percentile([]float64{7.5}, pct)
		require.NoError(t, err)
		assert.Equal(t, 7.5, p)
	}
}

func TestPercentile_Empty(t *testing.T) {
	_, err := Percentile(nil, 50)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	_, err = Median([]float64{})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	_, err = PercentileRank(nil, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	_, err = Summarize(nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestPercentile50EqualsMedian(t *testing.T) {
	inputs := [][]float64{
		{0.5},
		{0.5, 0.6},
		{0.5, 0.6, 0.7, 0.8, 0.9},
		{0.1, 0.2, 0.3, 0.7},
		{3.3, 1.1, 2.2, 9.9, 4.4, 0.7},
		{-2, 5, 5, 5, 11, 13, 13},
	}
	for _, values := range inputs {
		median, err := Median(values)
		require.NoError(t, err)

		p50, err := Percentile(SortedCopy(values), 50)
		require.NoError(t, err)

		assert.Equal(t, median, p50, "values %v", values)
	}
}

func TestMedian(t *testing.T) {
	m, err := Median([]float64{0.9, 0.5, 0.7, 0.6, 0.8})
	require.NoError(t, err)
	assert.Equal(t, 0.7, m)

	m, err = Median([]float64{4, 1, 3, 2})
	require.NoError(t, err)
	assert.Equal(t, 2.5, m)
}

func TestMedian_DoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_, err := Median(values)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestPercentileRank(t *testing.T) {
	sorted := []float64{1, 2, 2, 3, 4}

	r, err := PercentileRank(sorted, 2)
	require.NoError(t, err)
	assert.Equal(t, 60.0, r)

	r, err = PercentileRank(sorted, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r)

	r, err = PercentileRank(sorted, 10)
	require.NoError(t, err)
	assert.Equal(t, 100.0, r)
}

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{0.9, 0.5, 0.7, 0.6, 0.8})
	require.NoError(t, err)

	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 0.7, s.Mean, 1e-9)
	assert.Equal(t, 0.7, s.Median)
	assert.InDelta(t, 0.6, s.P25, 1e-9)
	assert.InDelta(t, 0.8, s.P75, 1e-9)
	assert.Equal(t, 0.5, s.Min)
	assert.Equal(t, 0.9, s.Max)
}

func TestSummarizeMinimum(t *testing.T) {
	_, err := SummarizeMinimum([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	s, err := SummarizeMinimum([]float64{1, 2, 3}, 3)
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.Median)
}
