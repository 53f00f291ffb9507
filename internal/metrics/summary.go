package metrics

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"
)

// Summary is the run-end report.
type Summary struct {
	StartTime      time.Time
	EndTime        time.Time
	Checks         []CheckCount
	ChecksPassed   int64
	ChecksFailed   int64
	Requests       int64
	AvgLatency     time.Duration
	P50Latency     time.Duration
	P95Latency     time.Duration
	P99Latency     time.Duration
	MaxLatency     time.Duration
	ActorsComplete int64
	ActorsAborted  int64
	Thresholds     []ThresholdResult
	Errors         map[string]int64
}

// Passed reports whether every threshold held. Failed checks alone do not fail a run.
func (s *Summary) Passed() bool {
	for _, t := range s.Thresholds {
		if !t.Passed {
			return false
		}
	}
	return true
}

func (s *Summary) Write(w io.Writer) {
	fmt.Fprintf(w, "duration: %s\n", s.EndTime.Sub(s.StartTime).Round(time.Millisecond))
	fmt.Fprintf(w, "actors: %d completed, %d aborted\n", s.ActorsComplete, s.ActorsAborted)
	fmt.Fprintf(w, "checks: %d passed, %d failed\n", s.ChecksPassed, s.ChecksFailed)
	for _, c := range s.Checks {
		mark := "✓"
		if c.Fails > 0 {
			mark = "✗"
		}
		fmt.Fprintf(w, "  %s %s (%d/%d)\n", mark, c.Name, c.Passes, c.Passes+c.Fails)
	}
	fmt.Fprintf(w, "http_reqs: %d\n", s.Requests)
	fmt.Fprintf(w, "http_req_duration: avg=%s p(50)=%s p(95)=%s p(99)=%s max=%s\n",
		s.AvgLatency, s.P50Latency, s.P95Latency, s.P99Latency, s.MaxLatency)
	for _, t := range s.Thresholds {
		status := "passed"
		if !t.Passed {
			status = "FAILED"
		}
		fmt.Fprintf(w, "threshold %s: %s (actual %s over %d samples)\n", t.Threshold, status, t.Actual, t.Samples)
	}
	for _, msg := range slices.Sorted(maps.Keys(s.Errors)) {
		fmt.Fprintf(w, "error x%d: %s\n", s.Errors[msg], msg)
	}
}
