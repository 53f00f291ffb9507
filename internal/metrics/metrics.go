// Package metrics aggregates check outcomes and request latencies of a load run.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace   = "concrnt_loadtest"
	maxErrorKey = 100
)

// Recorder receives check outcomes and request latencies from actors.
type Recorder interface {
	Check(name string, ok bool)
	ObserveRequest(name string, d time.Duration)
}

// CheckCount holds pass/fail counts of one named check.
type CheckCount struct {
	Name   string
	Passes int64
	Fails  int64
}

type collectors struct {
	duration *prometheus.HistogramVec
	checks   *prometheus.CounterVec
	active   prometheus.Gauge
	runs     *prometheus.CounterVec
}

func newCollectors() *collectors {
	return &collectors{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_req_duration_seconds",
			Help:      "Latency of HTTP requests issued by actors",
			Buckets:   []float64{.005, .01, .025, .05, .1, .2, .3, .5, 1, 2.5, 5, 10},
		}, []string{"name"}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Check outcomes by name",
		}, []string{"check", "result"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_actors",
			Help:      "Actors currently running",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actor_runs_total",
			Help:      "Completed actor runs by result",
		}, []string{"result"}),
	}
}

// Aggregator is the run-wide sink for every actor's observations. Safe for concurrent use.
type Aggregator struct {
	mu        sync.Mutex
	checks    map[string]*CheckCount
	latencies []time.Duration
	errors    map[string]int64

	active    atomic.Int64
	completed atomic.Int64
	aborted   atomic.Int64

	prom *collectors
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		checks:    make(map[string]*CheckCount),
		latencies: make([]time.Duration, 0, 10000),
		errors:    make(map[string]int64),
		prom:      newCollectors(),
	}
}

// Register exposes the aggregator's collectors on reg.
func (a *Aggregator) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{a.prom.duration, a.prom.checks, a.prom.active, a.prom.runs} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) Check(name string, ok bool) {
	result := "pass"
	if !ok {
		result = "fail"
	}
	a.prom.checks.WithLabelValues(name, result).Inc()

	a.mu.Lock()
	defer a.mu.Unlock()
	c, found := a.checks[name]
	if !found {
		c = &CheckCount{Name: name}
		a.checks[name] = c
	}
	if ok {
		c.Passes++
	} else {
		c.Fails++
	}
}

func (a *Aggregator) ObserveRequest(name string, d time.Duration) {
	a.prom.duration.WithLabelValues(name).Observe(d.Seconds())

	a.mu.Lock()
	a.latencies = append(a.latencies, d)
	a.mu.Unlock()
}

// ActorStarted and ActorFinished track the number of actors in flight.
func (a *Aggregator) ActorStarted() {
	a.prom.active.Set(float64(a.active.Add(1)))
}

func (a *Aggregator) ActorFinished(err error) {
	a.prom.active.Set(float64(a.active.Add(-1)))
	if err == nil {
		a.completed.Add(1)
		a.prom.runs.WithLabelValues("completed").Inc()
		return
	}

	a.aborted.Add(1)
	a.prom.runs.WithLabelValues("aborted").Inc()

	errKey := errorKey(err)
	a.mu.Lock()
	a.errors[errKey]++
	a.mu.Unlock()
}

func (a *Aggregator) Active() int64 {
	return a.active.Load()
}

// Latencies returns a copy of every recorded request latency.
func (a *Aggregator) Latencies() []time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]time.Duration, len(a.latencies))
	copy(out, a.latencies)
	return out
}

// Checks returns the check counts sorted by name.
func (a *Aggregator) Checks() []CheckCount {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]CheckCount, 0, len(a.checks))
	for _, c := range a.checks {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Summarize evaluates thresholds over everything recorded so far.
func (a *Aggregator) Summarize(start, end time.Time, thresholds []Threshold) *Summary {
	latencies := a.Latencies()

	s := &Summary{
		StartTime:      start,
		EndTime:        end,
		Checks:         a.Checks(),
		Requests:       int64(len(latencies)),
		ActorsComplete: a.completed.Load(),
		ActorsAborted:  a.aborted.Load(),
		Errors:         make(map[string]int64),
	}

	a.mu.Lock()
	for k, v := range a.errors {
		s.Errors[k] = v
	}
	a.mu.Unlock()

	for _, c := range s.Checks {
		s.ChecksPassed += c.Passes
		s.ChecksFailed += c.Fails
	}

	if len(latencies) > 0 {
		var total time.Duration
		for _, l := range latencies {
			total += l
		}
		s.AvgLatency = total / time.Duration(len(latencies))
		s.P50Latency = Percentile(latencies, 50)
		s.P95Latency = Percentile(latencies, 95)
		s.P99Latency = Percentile(latencies, 99)
		s.MaxLatency = Percentile(latencies, 100)
	}

	for _, t := range thresholds {
		s.Thresholds = append(s.Thresholds, t.Evaluate(latencies))
	}

	return s
}

// errorKey groups aborts by their root cause, so per-actor wrapping does not split the tally.
func errorKey(err error) string {
	key := errors.Cause(err).Error()
	if len(key) <= maxErrorKey {
		return key
	}
	n := maxErrorKey
	for n > 0 && !utf8.RuneStart(key[n]) {
		n--
	}
	return key[:n]
}
