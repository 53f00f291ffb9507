package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseThreshold(t *testing.T) {
	th, err := ParseThreshold("p(95)<300")
	require.NoError(t, err)
	assert.Equal(t, 95.0, th.Percentile)
	assert.Equal(t, ComparatorLessThan, th.Comparator)
	assert.Equal(t, 300*time.Millisecond, th.Bound)

	th, err = ParseThreshold(" p(99.9) <= 1500 ")
	require.NoError(t, err)
	assert.Equal(t, 99.9, th.Percentile)
	assert.Equal(t, ComparatorLessOrEqual, th.Comparator)
	assert.Equal(t, 1500*time.Millisecond, th.Bound)

	for _, bad := range []string{"", "avg<300", "p(0)<300", "p(101)<300", "p(95)>300", "p(95)<abc"} {
		_, err := ParseThreshold(bad)
		assert.Error(t, err, bad)
	}
}

func TestPercentile(t *testing.T) {
	samples := make([]time.Duration, 0, 100)
	for i := 1; i <= 100; i++ {
		samples = append(samples, time.Duration(i)*time.Millisecond)
	}

	assert.Equal(t, time.Millisecond, Percentile(samples, 0))
	assert.Equal(t, 100*time.Millisecond, Percentile(samples, 100))
	assert.InDelta(t, float64(95*time.Millisecond), float64(Percentile(samples, 95)), float64(time.Millisecond))
	assert.Equal(t, time.Duration(0), Percentile(nil, 95))

	// input untouched
	assert.Equal(t, time.Millisecond, samples[0])
}

func TestThresholdFailsOnDelayedTail(t *testing.T) {
	th, err := ParseThreshold("p(95)<300")
	require.NoError(t, err)

	samples := make([]time.Duration, 0, 100)
	for i := 0; i < 90; i++ {
		samples = append(samples, 50*time.Millisecond)
	}
	for i := 0; i < 10; i++ {
		samples = append(samples, 400*time.Millisecond)
	}

	result := th.Evaluate(samples)
	assert.False(t, result.Passed)
	assert.Equal(t, 100, result.Samples)
	assert.Greater(t, result.Actual, 300*time.Millisecond)
}

func TestThresholdPassesUnderBound(t *testing.T) {
	th, err := ParseThreshold("p(95)<300")
	require.NoError(t, err)

	samples := make([]time.Duration, 0, 100)
	for i := 0; i < 99; i++ {
		samples = append(samples, 20*time.Millisecond)
	}
	samples = append(samples, 2*time.Second)

	result := th.Evaluate(samples)
	assert.True(t, result.Passed)
	assert.True(t, th.Evaluate(nil).Passed)
}
