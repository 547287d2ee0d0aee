package journal

import "errors"

// Stats provides statistics about journal operations.
type Stats struct {
	// QueueDepth is the current number of entries waiting in the queue
	QueueDepth int `json:"queue_depth"`

	// Published is the total number of entries accepted into the queue
	Published int64 `json:"published"`

	// Dropped is the total number of entries dropped due to backpressure
	Dropped int64 `json:"dropped"`

	// Written is the total number of entries the sink accepted
	Written int64 `json:"written"`

	// Failed is the total number of entries the sink rejected
	Failed int64 `json:"failed"`
}

// Errors returned by journal operations.
var (
	// ErrQueueFull is returned when the queue is full and MaxWaitTime exceeded
	ErrQueueFull = errors.New("journal: queue full, entry dropped")

	// ErrJournalClosed is returned when publishing to a closed journal
	ErrJournalClosed = errors.New("journal: journal is closed")

	// ErrFlushTimeout is returned when Flush() times out waiting for the queue to drain
	ErrFlushTimeout = errors.New("journal: flush timeout exceeded")
)
