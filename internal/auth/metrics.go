// ABOUTME: Prometheus metrics for authentication outcomes
// ABOUTME: Counters labeled by scheme and result, registered once at startup

package auth

import "github.com/prometheus/client_golang/prometheus"

var (
	// AttemptsTotal counts authentication attempts by scheme and result.
	// Result is one of "ok", "unauthenticated", "not_configured", "error".
	AttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cask_auth_attempts_total",
			Help: "Authentication attempts",
		},
		[]string{"scheme", "result"},
	)

	// RoleDeniedTotal counts role-gate rejections by required role set.
	RoleDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cask_auth_role_denied_total",
			Help: "Role gate rejections",
		},
		[]string{"required"},
	)
)

// RegisterMetrics registers the auth metrics with the default registry.
// Call exactly once per process.
func RegisterMetrics() {
	prometheus.MustRegister(
		AttemptsTotal,
		RoleDeniedTotal,
	)
}
