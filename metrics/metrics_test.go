package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAccountMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAccountMetrics(nil, reg)

	m.IncOpsBuilt("boost")
	m.IncOpsBuilt("boost")
	m.IncOpsSubmitted("sent")
	m.IncFills("failed")
	m.IncWaits("boost", "found")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.numOpsBuilt.WithLabelValues("boost")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.numOpsBuilt.WithLabelValues("plain")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.numOpsSubmitted.WithLabelValues("sent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.numFills.WithLabelValues("failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.numWaits.WithLabelValues("boost", "found")))
}

func TestEnsureMetrics(t *testing.T) {
	assert.IsType(t, &NoopMetrics{}, EnsureMetrics(nil))

	m := NewAccountMetrics(nil, prometheus.NewRegistry())
	assert.Same(t, m, EnsureMetrics(m))
}
