package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus 基于 client_golang 的指标实现
type Prometheus struct {
	clockEvents     *prometheus.CounterVec
	summaryLatency  prometheus.Histogram
	overtimeUpserts *prometheus.CounterVec
	recalcLatency   prometheus.Histogram
	recalcRuns      *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

var _ Collector = (*Prometheus)(nil)

// NewPrometheus 创建并注册全部指标
// reg 为 nil 时使用 prometheus.DefaultRegisterer；namespace 为空时使用 "optitrack"
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "optitrack"
	}

	p := &Prometheus{
		clockEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "clock_events_total",
			Help:      "Clock-in/clock-out attempts by kind and outcome.",
		}, []string{"kind", "outcome"}),
		summaryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "summary_recompute_seconds",
			Help:      "Latency of rebuilding one employee day summary.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		overtimeUpserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "overtime",
			Name:      "entry_upserts_total",
			Help:      "Overtime entry writes by outcome.",
		}, []string{"outcome"}),
		recalcLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "overtime",
			Name:      "recalculation_seconds",
			Help:      "Duration of a full overtime recalculation pass.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		recalcRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "overtime",
			Name:      "recalculations_total",
			Help:      "Overtime recalculation passes by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		p.clockEvents,
		p.summaryLatency,
		p.overtimeUpserts,
		p.recalcLatency,
		p.recalcRuns,
		p.httpRequests,
		p.httpLatency,
	)

	return p
}

func (p *Prometheus) RecordClockEvent(kind, outcome string) {
	p.clockEvents.WithLabelValues(kind, outcome).Inc()
}

func (p *Prometheus) RecordSummaryRecompute(d time.Duration) {
	p.summaryLatency.Observe(d.Seconds())
}

func (p *Prometheus) RecordOvertimeUpsert(outcome string) {
	p.overtimeUpserts.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) RecordRecalculation(d time.Duration, err error) {
	p.recalcLatency.Observe(d.Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.recalcRuns.WithLabelValues(result).Inc()
}

func (p *Prometheus) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}
