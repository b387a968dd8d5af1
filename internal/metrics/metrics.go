package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values
const (
	OutcomeSuccess      = "success"
	OutcomeBadRequest   = "bad_request"
	OutcomeUnauthorized = "unauthorized"
	OutcomeConflict     = "conflict"
	OutcomeError        = "error"
)

const namespace = "journeymate"

var (
	// LoginAttempts counts /bin/login requests by outcome
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "login_attempts_total", Help: "Number of login attempts by outcome."},
		[]string{"outcome"},
	)
	// LoginsByTier counts successful logins by the matched tier
	LoginsByTier = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "logins_total", Help: "Number of successful logins by user type."},
		[]string{"user_type"},
	)
	// Registrations counts /bin/sample requests by outcome
	Registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "registrations_total", Help: "Number of registration requests by outcome."},
		[]string{"outcome"},
	)
	// Notifications counts welcome tasks handed to the queue by outcome
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "notifications_enqueued_total", Help: "Number of welcome notifications handed to the task queue by outcome."},
		[]string{"outcome"},
	)
	// StoreUp is 1 when the last scheduled store check succeeded
	StoreUp = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "store_up", Help: "Whether the resource store answered the last health probe."},
	)
)

// RegisterCollectors registers every service collector on reg.
// It panics if a collector is already registered.
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(LoginAttempts)
	reg.MustRegister(LoginsByTier)
	reg.MustRegister(Registrations)
	reg.MustRegister(Notifications)
	reg.MustRegister(StoreUp)
}
