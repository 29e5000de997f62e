package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DetectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botd_detections_total",
			Help: "Classified requests by verdict",
		},
		[]string{"verdict"}, // bot|human
	)

	GateRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botd_gate_rejections_total",
			Help: "Requests rejected by the metering gate by reason",
		},
		[]string{"reason"}, // missing_key|invalid_key|quota|rate_limit
	)

	BillingEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botd_billing_events_total",
			Help: "Processed payment-provider webhook events by type",
		},
		[]string{"type"},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		DetectionsTotal,
		GateRejectionsTotal,
		BillingEventsTotal,
	)
}
