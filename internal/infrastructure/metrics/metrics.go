// Package metrics exposes the prometheus instrumentation for the sync layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the collectors the services report into.
type Metrics struct {
	WebhookEvents  *prometheus.CounterVec
	TokenRefreshes *prometheus.CounterVec
	Resolutions    *prometheus.CounterVec
	ResolutionTime prometheus.Histogram
}

// New registers the collectors on reg and returns them. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		WebhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "strava_webhook_events_total",
			Help: "Webhook events received, by aspect and object type.",
		}, []string{"aspect", "object"}),
		TokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "strava_token_refreshes_total",
			Help: "OAuth bundle refreshes attempted by the session guard.",
		}, []string{"result"}),
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "strava_activity_resolutions_total",
			Help: "Activity resolutions, by trigger and result.",
		}, []string{"trigger", "result"}),
		ResolutionTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "strava_activity_resolution_seconds",
			Help:    "End-to-end duration of one activity resolution.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
