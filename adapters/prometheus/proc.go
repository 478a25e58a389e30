package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/strm-go/core/metrics"
	"github.com/codewandler/strm-go/core/proc"
)

// procMetrics implements proc.ProcMetrics using Prometheus.
type procMetrics struct {
	workDuration prometheus.Histogram
	workTotal    *prometheus.CounterVec
	panicTotal   prometheus.Counter
	mailboxDepth *prometheus.GaugeVec
	inFlight     *prometheus.GaugeVec
	subscribers  *prometheus.GaugeVec
}

// NewProcMetrics creates a new Prometheus implementation of proc.ProcMetrics.
func NewProcMetrics(reg prometheus.Registerer) proc.ProcMetrics {
	m := &procMetrics{
		workDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "strm_proc_work_duration_seconds",
			Help:    "Work function execution time in seconds",
			Buckets: defaultBuckets,
		}),

		workTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "strm_proc_work_total",
			Help: "Total number of work executions",
		}, []string{"success"}),

		panicTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strm_proc_work_panics_total",
			Help: "Total number of work function panics",
		}),

		mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "strm_proc_mailbox_depth",
			Help: "Current mailbox queue depth",
		}, []string{"proc_id"}),

		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "strm_proc_inflight",
			Help: "Number of concurrently running work executions",
		}, []string{"proc_id"}),

		subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "strm_proc_subscribers",
			Help: "Current number of subscriber registrations",
		}, []string{"proc_id"}),
	}

	reg.MustRegister(
		m.workDuration,
		m.workTotal,
		m.panicTotal,
		m.mailboxDepth,
		m.inFlight,
		m.subscribers,
	)

	return m
}

func (m *procMetrics) WorkDuration() metrics.Timer {
	return newTimer(m.workDuration)
}

func (m *procMetrics) WorkProcessed(success bool) {
	m.workTotal.WithLabelValues(boolToStr(success)).Inc()
}

func (m *procMetrics) WorkPanic() {
	m.panicTotal.Inc()
}

func (m *procMetrics) MailboxDepth(procID string, depth int) {
	m.mailboxDepth.WithLabelValues(procID).Set(float64(depth))
}

func (m *procMetrics) InFlight(procID string, count int) {
	m.inFlight.WithLabelValues(procID).Set(float64(count))
}

func (m *procMetrics) Subscribers(procID string, count int) {
	m.subscribers.WithLabelValues(procID).Set(float64(count))
}

func boolToStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
