package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sandevgo/tusk/internal/core"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	Transactions     *prometheus.CounterVec
	TransactionTime  *prometheus.HistogramVec
	Retries          *prometheus.CounterVec
	TrimmedRecords   prometheus.Counter
	Trims            prometheus.Counter
	Commands         *prometheus.CounterVec
	ChatLatency      prometheus.Histogram
	ProviderFailures prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics registers the instruments on reg. A nil reg uses a fresh
// private registry.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		Transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_transactions_total",
			Help:      "Store transactions by operation and outcome.",
		}, []string{"op", "outcome"}),
		TransactionTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_transaction_duration_ms",
			Help:      "Store transaction latency including retries in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 1000, 5000},
		}, []string{"op"}),
		Retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_retries_total",
			Help:      "Transaction replays after a conflict, by operation.",
		}, []string{"op"}),
		TrimmedRecords: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trimmed_records_total",
			Help:      "Records hidden by the retention trimmer.",
		}),
		Trims: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trims_total",
			Help:      "Trimmer runs that advanced the window.",
		}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Handled inputs by command kind.",
		}, []string{"kind"}),
		ChatLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_latency_ms",
			Help:      "End-to-end latency of a chat turn in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		}),
		ProviderFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_failures_total",
			Help:      "Failed completion requests.",
		}),
		gatherer: reg,
	}
}

// Outcome maps a store error onto a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrConflict):
		return "conflict"
	case errors.Is(err, core.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, core.ErrUninitialized):
		return "uninitialized"
	case errors.Is(err, core.ErrEncoding):
		return "encoding"
	default:
		return "error"
	}
}

func (m *Metrics) ObserveTransaction(op string, err error, elapsed time.Duration) {
	m.Transactions.WithLabelValues(op, Outcome(err)).Inc()
	m.TransactionTime.WithLabelValues(op).Observe(float64(elapsed.Milliseconds()))
}

func (m *Metrics) ObserveRetry(op string) {
	m.Retries.WithLabelValues(op).Inc()
}

func (m *Metrics) ObserveTrim(advancedBy uint64) {
	m.Trims.Inc()
	m.TrimmedRecords.Add(float64(advancedBy))
}

func (m *Metrics) ObserveCommand(kind string) {
	m.Commands.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveChat(d time.Duration, err error) {
	m.ChatLatency.Observe(float64(d.Milliseconds()))
	if err != nil {
		m.ProviderFailures.Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
