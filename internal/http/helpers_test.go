package http

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"student-records/internal/metrics"
)

func testutilCount(t *testing.T, m *metrics.Metrics, reason string) float64 {
	t.Helper()
	return testutil.ToFloat64(m.GateRejections.WithLabelValues(reason))
}
