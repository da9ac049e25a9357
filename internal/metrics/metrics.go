package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jackpot"

// Metrics holds the collectors for the round engine and the HTTP layer.
type Metrics struct {
	registry *prometheus.Registry

	BetsAccepted        prometheus.Counter
	BetsRejected        *prometheus.CounterVec
	BetVolume           prometheus.Counter
	RoundsSettled       prometheus.Counter
	RoundsVoided        prometheus.Counter
	PayoutRetries       prometheus.Counter
	SettlementFailures  *prometheus.CounterVec
	IntegrityViolations *prometheus.CounterVec
	PotSize             prometheus.Gauge
	Bettors             prometheus.Gauge
	PromoRedemptions    *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BetsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "bets", Name: "accepted_total",
			Help: "Bets accepted into a round.",
		}),
		BetsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "bets", Name: "rejected_total",
			Help: "Bets rejected, by reason.",
		}, []string{"reason"}),
		BetVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "bets", Name: "volume_total",
			Help: "Sum of accepted bet amounts.",
		}),
		RoundsSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "rounds", Name: "settled_total",
			Help: "Rounds paid out and archived.",
		}),
		RoundsVoided: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "rounds", Name: "voided_total",
			Help: "Rounds voided with all bets refunded.",
		}),
		PayoutRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "settlement", Name: "payout_retries_total",
			Help: "Payout credit attempts that failed and were retried.",
		}),
		SettlementFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "settlement", Name: "failures_total",
			Help: "Settlement attempts that escalated, by stage.",
		}, []string{"stage"}),
		IntegrityViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "integrity", Name: "violations_total",
			Help: "Invariant violations detected at runtime, by kind.",
		}, []string{"kind"}),
		PotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "rounds", Name: "pot",
			Help: "Pot of the live round.",
		}),
		Bettors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "rounds", Name: "bettors",
			Help: "Distinct bettors in the live round.",
		}),
		PromoRedemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "promo", Name: "redemptions_total",
			Help: "Promo redemption attempts, by result.",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "path"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.BetsAccepted, m.BetsRejected, m.BetVolume,
		m.RoundsSettled, m.RoundsVoided,
		m.PayoutRetries, m.SettlementFailures, m.IntegrityViolations,
		m.PotSize, m.Bettors, m.PromoRedemptions,
		m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
