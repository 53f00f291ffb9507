package metrics

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Comparator defines how a measured value is compared against its bound.
type Comparator string

const (
	ComparatorLessThan    Comparator = "<"
	ComparatorLessOrEqual Comparator = "<="
)

// Threshold is a latency objective such as p(95)<300, with the bound in milliseconds.
type Threshold struct {
	Expr       string
	Percentile float64
	Comparator Comparator
	Bound      time.Duration
}

// ThresholdResult is the outcome of evaluating a Threshold at run end.
type ThresholdResult struct {
	Threshold Threshold
	Actual    time.Duration
	Samples   int
	Passed    bool
}

var thresholdExpr = regexp.MustCompile(`^\s*p\(\s*(\d+(?:\.\d+)?)\s*\)\s*(<=|<)\s*(\d+(?:\.\d+)?)\s*$`)

// ParseThreshold parses the p(N)<ms form used by load profiles.
func ParseThreshold(expr string) (Threshold, error) {
	m := thresholdExpr.FindStringSubmatch(expr)
	if m == nil {
		return Threshold{}, errors.Errorf("invalid threshold expression %q", expr)
	}

	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil || pct <= 0 || pct > 100 {
		return Threshold{}, errors.Errorf("invalid percentile in %q", expr)
	}

	ms, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return Threshold{}, errors.Wrapf(err, "invalid bound in %q", expr)
	}

	return Threshold{
		Expr:       expr,
		Percentile: pct,
		Comparator: Comparator(m[2]),
		Bound:      time.Duration(ms * float64(time.Millisecond)),
	}, nil
}

func (t Threshold) String() string {
	if t.Expr != "" {
		return t.Expr
	}
	return fmt.Sprintf("p(%g)%s%d", t.Percentile, t.Comparator, t.Bound.Milliseconds())
}

// Evaluate checks the threshold against the latency samples. No samples passes trivially.
func (t Threshold) Evaluate(samples []time.Duration) ThresholdResult {
	result := ThresholdResult{Threshold: t, Samples: len(samples), Passed: true}
	if len(samples) == 0 {
		return result
	}

	result.Actual = Percentile(samples, t.Percentile)
	switch t.Comparator {
	case ComparatorLessOrEqual:
		result.Passed = result.Actual <= t.Bound
	default:
		result.Passed = result.Actual < t.Bound
	}
	return result
}

// Percentile returns the p-th percentile of samples using linear interpolation
// between closest ranks. samples is not modified.
func Percentile(samples []time.Duration, p float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(rank)
	frac := rank - float64(lower)
	if lower+1 >= len(sorted) {
		return sorted[lower]
	}
	return sorted[lower] + time.Duration(frac*float64(sorted[lower+1]-sorted[lower]))
}
