package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the bot's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Deliveries        *prometheus.CounterVec
	DispatchRuns      *prometheus.CounterVec
	PremiumGrants     *prometheus.CounterVec
	PremiumRevocation *prometheus.CounterVec
	Updates           *prometheus.CounterVec
	TrackedGroups     prometheus.Gauge
	RelaySessions     prometheus.Gauge
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Deliveries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jasebbot_deliveries_total",
				Help: "Mass dispatch delivery attempts by mode and result",
			},
			[]string{"mode", "result"},
		),
		DispatchRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jasebbot_dispatch_runs_total",
				Help: "Completed mass dispatch runs by command",
			},
			[]string{"command"},
		),
		PremiumGrants: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jasebbot_premium_grants_total",
				Help: "Premium grants and extensions by source",
			},
			[]string{"source"},
		),
		PremiumRevocation: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jasebbot_premium_revocations_total",
				Help: "Premium revocations by reason",
			},
			[]string{"reason"},
		),
		Updates: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jasebbot_updates_total",
				Help: "Processed Telegram updates by type",
			},
			[]string{"type"},
		),
		TrackedGroups: f.NewGauge(prometheus.GaugeOpts{
			Name: "jasebbot_tracked_groups",
			Help: "Groups the bot currently participates in",
		}),
		RelaySessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "jasebbot_relay_sessions",
			Help: "Open user to owner chat sessions",
		}),
	}
}

func (m *Metrics) RecordDelivery(mode string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.Deliveries.WithLabelValues(mode, result).Inc()
}

func (m *Metrics) RecordDispatchRun(command string) {
	if m == nil {
		return
	}
	m.DispatchRuns.WithLabelValues(command).Inc()
}

func (m *Metrics) RecordGrant(source string) {
	if m == nil {
		return
	}
	m.PremiumGrants.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordRevocation(reason string) {
	if m == nil {
		return
	}
	m.PremiumRevocation.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordUpdate(updateType string) {
	if m == nil {
		return
	}
	m.Updates.WithLabelValues(updateType).Inc()
}

func (m *Metrics) SetTrackedGroups(n int) {
	if m == nil {
		return
	}
	m.TrackedGroups.Set(float64(n))
}

func (m *Metrics) SetRelaySessions(n int) {
	if m == nil {
		return
	}
	m.RelaySessions.Set(float64(n))
}
