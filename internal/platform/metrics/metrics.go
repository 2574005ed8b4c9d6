package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for the ledger and its background jobs.
type Metrics struct {
	posts        *prometheus.CounterVec
	postDuration prometheus.Histogram
	tbRuns       *prometheus.CounterVec
	tbDuration   prometheus.Histogram
	transitions  *prometheus.CounterVec
	jobRuns      *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the ledger metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

var _ ports.LedgerMetrics = (*Metrics)(nil)

// ObservePost counts a post attempt by outcome.
func (m *Metrics) ObservePost(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.posts.WithLabelValues(outcome).Inc()
	m.postDuration.Observe(took.Seconds())
}

// ObserveTrialBalance counts a trial balance computation.
func (m *Metrics) ObserveTrialBalance(balanced bool, took time.Duration) {
	if m == nil {
		return
	}
	m.tbRuns.WithLabelValues(strconv.FormatBool(balanced)).Inc()
	m.tbDuration.Observe(took.Seconds())
}

// ObserveTransition counts an audited state transition.
func (m *Metrics) ObserveTransition(action domain.AuditAction) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(action)).Inc()
}

// Tracker provides lifecycle instrumentation for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records duration and status and returns err untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	t.metrics.jobRuns.WithLabelValues(t.job, status).Inc()
	t.metrics.jobDuration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	posts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_posts_total",
		Help: "Posting attempts partitioned by outcome.",
	}, []string{"outcome"})
	postDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_post_duration_seconds",
		Help:    "Duration in seconds of posting attempts.",
		Buckets: prometheus.DefBuckets,
	})
	tbRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_trial_balance_runs_total",
		Help: "Trial balance computations partitioned by whether they balanced.",
	}, []string{"balanced"})
	tbDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_trial_balance_duration_seconds",
		Help:    "Duration in seconds of trial balance computations.",
		Buckets: prometheus.DefBuckets,
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transitions_total",
		Help: "Audited ledger state transitions partitioned by action.",
	}, []string{"action"})
	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_jobs_total",
		Help: "Background job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	registerer.MustRegister(posts, postDuration, tbRuns, tbDuration, transitions, jobRuns, jobDuration)
	return &Metrics{
		posts:        posts,
		postDuration: postDuration,
		tbRuns:       tbRuns,
		tbDuration:   tbDuration,
		transitions:  transitions,
		jobRuns:      jobRuns,
		jobDuration:  jobDuration,
	}
}
