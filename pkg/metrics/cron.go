package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "surprisebag"

// CronJobMetrics tracks runs of the scheduled sweep jobs.
type CronJobMetrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
}

// NewCronJobMetrics registers the cron collectors. A nil registerer yields a no-op recorder.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_runs_total",
			Help:      "Cron job runs by outcome.",
		}, []string{"job", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_duration_seconds",
			Help:      "Wall time of cron job runs.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.runs, m.duration, m.lastSuccess)
	return m
}

// ObserveRun records one finished run. finishedAt feeds the last-success gauge.
func (c *CronJobMetrics) ObserveRun(job string, elapsed time.Duration, finishedAt time.Time, runErr error) {
	if c == nil || c.runs == nil {
		return
	}
	job = labelOrUnknown(job)
	c.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	if runErr != nil {
		c.runs.WithLabelValues(job, OutcomeError).Inc()
		return
	}
	c.runs.WithLabelValues(job, OutcomeSuccess).Inc()
	c.lastSuccess.WithLabelValues(job).Set(float64(finishedAt.Unix()))
}

func labelOrUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
