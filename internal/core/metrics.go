// AngelaMos | 2026
// metrics.go

package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listing_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern and status class",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_auth_attempts_total",
		Help: "Login and registration attempts by outcome",
	}, []string{"operation", "outcome"})

	GuardRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_guard_rejections_total",
		Help: "Requests rejected by the access guard",
	}, []string{"reason"})

	EntitlementChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_entitlement_changes_total",
		Help: "Tier grants and revocations applied by administrators",
	}, []string{"tier", "action"})

	MediaReleaseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listing_media_release_failures_total",
		Help: "Owned media objects that could not be released on principal delete",
	})
)
