package metrics

import (
	"github.com/Layr-Labs/eigensdk-go/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsGenerator interface {
	// kind is plain or boost
	IncOpsBuilt(kind string)
	IncOpsSubmitted(status string)
	IncFills(status string)
	// path is normal or boost, result is found or timeout
	IncWaits(path, result string)
}

// AccountMetrics counts the operations an account builds, submits, fills and
// waits for. The embedded eigen metrics serve the registry over HTTP.
type AccountMetrics struct {
	*metrics.EigenMetrics

	numOpsBuilt     *prometheus.CounterVec
	numOpsSubmitted *prometheus.CounterVec
	numFills        *prometheus.CounterVec
	numWaits        *prometheus.CounterVec
}

const apNamespace = "mevboost"

func NewAccountMetrics(eigenMetrics *metrics.EigenMetrics, reg prometheus.Registerer) *AccountMetrics {
	return &AccountMetrics{
		EigenMetrics: eigenMetrics,

		numOpsBuilt: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: apNamespace,
				Name:      "num_ops_built_total",
				Help:      "The number of signed user operations built by the account",
			}, []string{"kind"}),

		numOpsSubmitted: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: apNamespace,
				Name:      "num_ops_submitted_total",
				Help:      "The number of user operations handed to the bundler",
			}, []string{"status"}),

		numFills: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: apNamespace,
				Name:      "num_fills_total",
				Help:      "The number of boost operations a searcher attempted to fill",
			}, []string{"status"}),

		numWaits: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: apNamespace,
				Name:      "num_waits_total",
				Help:      "The number of settlement waits by path and outcome",
			}, []string{"path", "result"}),
	}
}

func (m *AccountMetrics) IncOpsBuilt(kind string) {
	m.numOpsBuilt.WithLabelValues(kind).Inc()
}

func (m *AccountMetrics) IncOpsSubmitted(status string) {
	m.numOpsSubmitted.WithLabelValues(status).Inc()
}

func (m *AccountMetrics) IncFills(status string) {
	m.numFills.WithLabelValues(status).Inc()
}

func (m *AccountMetrics) IncWaits(path, result string) {
	m.numWaits.WithLabelValues(path, result).Inc()
}

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (m *NoopMetrics) IncOpsBuilt(string)      {}
func (m *NoopMetrics) IncOpsSubmitted(string)  {}
func (m *NoopMetrics) IncFills(string)         {}
func (m *NoopMetrics) IncWaits(string, string) {}

// EnsureMetrics returns m, or a no-op generator when m is nil.
func EnsureMetrics(m MetricsGenerator) MetricsGenerator {
	if m == nil {
		return NewNoopMetrics()
	}
	return m
}
