package authkit

import "sync/atomic"

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	// MetricSignUpSuccess counts created accounts.
	MetricSignUpSuccess MetricID = iota
	// MetricSignUpFailure counts rejected sign-ups.
	MetricSignUpFailure
	// MetricLoginSuccess counts sessions granted at login.
	MetricLoginSuccess
	// MetricLoginFailure counts unauthorized logins.
	MetricLoginFailure
	// MetricLoginUnverified counts logins deferred for email confirmation.
	MetricLoginUnverified
	// MetricEmailCheckSuccess counts confirmed email addresses.
	MetricEmailCheckSuccess
	// MetricEmailCheckFailure counts rejected email-check presentations.
	MetricEmailCheckFailure
	// MetricEmailCheckAlreadyConfirmed counts idempotent re-confirmations.
	MetricEmailCheckAlreadyConfirmed
	// MetricPasswordForgotRequest counts issued reset tokens.
	MetricPasswordForgotRequest
	// MetricPasswordForgotFailure counts rejected reset initiations.
	MetricPasswordForgotFailure
	// MetricPasswordResetSuccess counts completed password resets.
	MetricPasswordResetSuccess
	// MetricPasswordResetFailure counts rejected reset completions.
	MetricPasswordResetFailure
	// MetricSessionCreated counts sessions written to the session store.
	MetricSessionCreated
	// MetricSessionInvalidated counts sessions removed by engine action.
	MetricSessionInvalidated
	// MetricNotificationEnqueued counts notifications handed to the
	// dispatcher.
	MetricNotificationEnqueued

	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the engine's atomic counters. A disabled instance turns
// every operation into a no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time deep copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a Metrics instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc adds one to the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter at once.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	return s
}
