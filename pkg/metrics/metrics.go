package metrics

import (
	"time"
)

// MetricsCollector defines the interface for collecting transfer metrics.
// Implementations can export metrics to various backends (Prometheus, in-memory, etc.).
type MetricsCollector interface {
	// Transfers. outcome is a label such as "success" or "insufficient_funds".
	RecordTransfer(outcome string, duration time.Duration)
	RecordCompensation(success bool)

	// Per-account transaction lock waits
	RecordLockWait(account string, acquired bool, wait time.Duration)

	// Per-account circuit breaker
	RecordCircuitState(account string, state CircuitState)

	// Entry journal
	RecordJournalDepth(depth int)
	RecordJournalDropped()
	RecordJournalWrite(success bool, duration time.Duration)
}

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed means lock acquisitions go through normally.
	CircuitClosed CircuitState = iota
	// CircuitOpen means lock acquisitions fail fast.
	CircuitOpen
	// CircuitHalfOpen means a limited number of acquisitions probe the account.
	CircuitHalfOpen
)

// String returns the string representation of the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// NoOpCollector is a no-op implementation of MetricsCollector.
// It's used as the default collector when metrics are not needed.
type NoOpCollector struct{}

// RecordTransfer does nothing.
func (NoOpCollector) RecordTransfer(outcome string, duration time.Duration) {}

// RecordCompensation does nothing.
func (NoOpCollector) RecordCompensation(success bool) {}

// RecordLockWait does nothing.
func (NoOpCollector) RecordLockWait(account string, acquired bool, wait time.Duration) {}

// RecordCircuitState does nothing.
func (NoOpCollector) RecordCircuitState(account string, state CircuitState) {}

// RecordJournalDepth does nothing.
func (NoOpCollector) RecordJournalDepth(depth int) {}

// RecordJournalDropped does nothing.
func (NoOpCollector) RecordJournalDropped() {}

// RecordJournalWrite does nothing.
func (NoOpCollector) RecordJournalWrite(success bool, duration time.Duration) {}
