package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveAdmission(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry(), "appointments")

	m.ObserveAdmission("admitted")
	m.ObserveAdmission("admitted")
	m.ObserveAdmission("FULLY_BOOKED")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AdmissionsTotal.WithLabelValues("appointments", "admitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdmissionsTotal.WithLabelValues("appointments", "FULLY_BOOKED")))
}

func TestMetrics_DBErrorsCounted(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry(), "appointments")

	m.ObserveDBQuery("query", time.Millisecond, nil)
	m.ObserveDBQuery("exec", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.DBErrorsTotal.WithLabelValues("appointments", "query")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBErrorsTotal.WithLabelValues("appointments", "exec")))
}

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveAdmission("admitted")
		m.ObserveLockWait(time.Second)
		m.ObserveHTTPRequest("GET", "/", "200", time.Millisecond)
		m.ObserveDBQuery("query", time.Millisecond, nil)
		m.SetDBPoolStats(1, 1, 0, 0)
	})
	assert.Equal(t, "", m.ServiceName())
}
