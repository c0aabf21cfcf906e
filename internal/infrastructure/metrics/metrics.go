package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts tracks credential resolution outcomes per strategy
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnshost_auth_attempts_total",
		Help: "Total number of authentication attempts by strategy and result",
	}, []string{"strategy", "result"})

	// SessionsIssued tracks successful session creations
	SessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dnshost_sessions_issued_total",
		Help: "Total number of sessions issued after successful authentication",
	})

	// ImpersonationsTotal tracks identity substitutions by permitted callers
	ImpersonationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dnshost_impersonations_total",
		Help: "Total number of successful impersonation overrides",
	})

	// DeviceTrustLookups tracks remembered-device checks (hit, miss, expired)
	DeviceTrustLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnshost_device_trust_lookups_total",
		Help: "Total number of device trust lookups by result",
	}, []string{"result"})

	// DBConnectionsActive tracks open database connections
	DBConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dnshost_db_connections_active",
		Help: "Number of active database connections",
	})
)
