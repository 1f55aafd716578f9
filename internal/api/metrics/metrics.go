// Package metrics defines and registers all custom Prometheus metrics for
// the restaurant auth API. It is the single source of truth for metric
// names, labels, and help strings. Metrics register with the default
// registry at import time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "restaurant_auth"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginsTotal counts credential verifications at the login endpoint.
// Label:
//   - result: "success" or "failure" (wrong password and unknown user are
//     not distinguished)
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokensIssuedTotal counts signed session tokens handed out.
var TokensIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of session tokens issued.",
	},
)

// TokenValidationsTotal counts token validations in ValidateToken.
// Label:
//   - result: "valid", "expired", "invalid", or "user_missing"
var TokenValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validations_total",
		Help:      "Total number of session token validations, by result.",
	},
	[]string{"result"},
)

// PasswordHashDuration measures the bcrypt hashing step, the only
// CPU-bound operation on the request path.
var PasswordHashDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Duration of bcrypt password hashing.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── User lifecycle metrics ────────────────────────────────────────────────────

// UsersCreatedTotal counts created users, by role.
var UsersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of users created, by role.",
	},
	[]string{"role"},
)

// DomainEventsTotal counts audit-recorded domain events, by type.
var DomainEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "domain_events_total",
		Help:      "Total number of domain events recorded, by event type.",
	},
	[]string{"type"},
)

// ── Middleware metrics ────────────────────────────────────────────────────────

// RateLimitDropsTotal counts requests rejected by the login rate limiter.
var RateLimitDropsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_drops_total",
		Help:      "Total number of requests rejected by the fixed-window rate limiter.",
	},
)
