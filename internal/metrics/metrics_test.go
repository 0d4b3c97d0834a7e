package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] == lp.GetValue() {
					matched++
				}
			}
			if matched != len(labels) {
				continue
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s %v not found", name, labels)
	return 0
}

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordDelivery("resend", true)
	m.RecordDelivery("resend", true)
	m.RecordDelivery("forward", false)
	m.RecordGrant("group")
	m.RecordRevocation("expired")
	m.SetTrackedGroups(3)
	m.SetRelaySessions(2)

	assert.Equal(t, 2.0, sampleValue(t, reg, "jasebbot_deliveries_total", map[string]string{"mode": "resend", "result": "success"}))
	assert.Equal(t, 1.0, sampleValue(t, reg, "jasebbot_deliveries_total", map[string]string{"mode": "forward", "result": "failure"}))
	assert.Equal(t, 1.0, sampleValue(t, reg, "jasebbot_premium_grants_total", map[string]string{"source": "group"}))
	assert.Equal(t, 1.0, sampleValue(t, reg, "jasebbot_premium_revocations_total", map[string]string{"reason": "expired"}))
	assert.Equal(t, 3.0, sampleValue(t, reg, "jasebbot_tracked_groups", nil))
	assert.Equal(t, 2.0, sampleValue(t, reg, "jasebbot_relay_sessions", nil))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordDelivery("resend", true)
		m.RecordDispatchRun("sharemsg")
		m.RecordGrant("admin")
		m.RecordRevocation("admin")
		m.RecordUpdate("message")
		m.SetTrackedGroups(1)
	})
}

func TestRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.RecordUpdate("message")
	h := NewRouter(reg)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `jasebbot_updates_total{type="message"} 1`)
}
