// Package journal delivers committed ledger entries to sinks off the transfer path.
//
// Entries are queued in a bounded buffer and written by a small worker pool.
// A full queue applies backpressure for at most MaxWaitTime and then drops the
// entry, so a slow sink can never hold a transfer's locks. Journal delivery has
// no effect on balances or account logs.
package journal

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"funds-transfer/pkg/ledger"
	"funds-transfer/pkg/logging"
	"funds-transfer/pkg/metrics"

	"go.uber.org/zap"
)

// Journal fans committed entries out to a sink using a worker pool and bounded queue.
type Journal struct {
	sink    Sink
	config  Config
	metrics metrics.MetricsCollector
	logger  *logging.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan ledger.Entry
	wg     sync.WaitGroup

	// Statistics (accessed atomically)
	published int64
	dropped   int64
	written   int64
	failed    int64
	pending   int64

	// Periodic queue depth reporting
	metricsTicker *time.Ticker
	metricsStop   chan struct{}
}

// Config configures the journal behavior.
type Config struct {
	// QueueSize is the bounded queue size (default: 1024)
	QueueSize int

	// Workers is the number of concurrent sink writers (default: 2)
	Workers int

	// MaxWaitTime is the max time to wait if the queue is full.
	// Negative means drop immediately (default: 10ms)
	MaxWaitTime time.Duration

	// ReportInterval is how often the queue depth is reported (default: 5s)
	ReportInterval time.Duration
}

// DefaultConfig returns the default journal configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize:      1024,
		Workers:        2,
		MaxWaitTime:    10 * time.Millisecond,
		ReportInterval: 5 * time.Second,
	}
}

// New creates a journal writing to sink.
// The journal starts processing immediately and must be closed with Close().
func New(sink Sink, config Config) *Journal {
	return NewWithMetrics(sink, config, metrics.NoOpCollector{})
}

// NewWithMetrics creates a journal with a custom metrics collector.
func NewWithMetrics(sink Sink, config Config, metricsCollector metrics.MetricsCollector) *Journal {
	defaults := DefaultConfig()
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.MaxWaitTime == 0 {
		config.MaxWaitTime = defaults.MaxWaitTime
	}
	if config.ReportInterval <= 0 {
		config.ReportInterval = defaults.ReportInterval
	}
	if metricsCollector == nil {
		metricsCollector = metrics.NoOpCollector{}
	}

	j := &Journal{
		sink:          sink,
		config:        config,
		metrics:       metricsCollector,
		logger:        logging.Global().Named("journal"),
		queue:         make(chan ledger.Entry, config.QueueSize),
		metricsTicker: time.NewTicker(config.ReportInterval),
		metricsStop:   make(chan struct{}),
	}

	for i := 0; i < config.Workers; i++ {
		j.wg.Add(1)
		go j.worker()
	}
	go j.reportMetrics()

	return j
}

// Publish enqueues entry for delivery.
// If the queue is full, it waits up to MaxWaitTime before dropping the entry
// and returning ErrQueueFull.
func (j *Journal) Publish(ctx context.Context, entry ledger.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return ErrJournalClosed
	}

	// Fast path
	select {
	case j.queue <- entry:
		j.enqueued()
		return nil
	default:
	}

	if j.config.MaxWaitTime < 0 {
		return j.drop(entry)
	}

	timer := time.NewTimer(j.config.MaxWaitTime)
	defer timer.Stop()

	select {
	case j.queue <- entry:
		j.enqueued()
		return nil
	case <-timer.C:
		return j.drop(entry)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Journal) enqueued() {
	atomic.AddInt64(&j.published, 1)
	atomic.AddInt64(&j.pending, 1)
}

func (j *Journal) drop(entry ledger.Entry) error {
	atomic.AddInt64(&j.dropped, 1)
	j.metrics.RecordJournalDropped()
	j.logger.Warn("journal queue full - entry dropped",
		logging.TransferID(entry.TransferID),
		zap.String("entry_id", entry.ID.String()),
	)
	return ErrQueueFull
}

// worker writes queued entries until the queue is closed and drained.
func (j *Journal) worker() {
	defer j.wg.Done()

	for entry := range j.queue {
		start := time.Now()
		err := j.sink.Write(context.Background(), entry)
		duration := time.Since(start)

		j.metrics.RecordJournalWrite(err == nil, duration)
		if err != nil {
			atomic.AddInt64(&j.failed, 1)
			j.logger.Error("journal sink write failed",
				logging.TransferID(entry.TransferID),
				zap.String("entry_id", entry.ID.String()),
				zap.Error(err),
			)
		} else {
			atomic.AddInt64(&j.written, 1)
		}
		atomic.AddInt64(&j.pending, -1)
	}
}

// Flush waits until every published entry has been handed to the sink, or until timeout.
func (j *Journal) Flush(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		if atomic.LoadInt64(&j.pending) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrFlushTimeout
		}
		time.Sleep(time.Millisecond)
	}
}

// Close stops accepting entries, drains the queue and closes the sink if it
// implements io.Closer. Calling Close more than once is a no-op.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	close(j.queue)
	j.mu.Unlock()

	close(j.metricsStop)
	j.metricsTicker.Stop()

	j.wg.Wait()
	j.metrics.RecordJournalDepth(0)

	if closer, ok := j.sink.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// reportMetrics periodically reports queue depth.
func (j *Journal) reportMetrics() {
	for {
		select {
		case <-j.metricsTicker.C:
			j.metrics.RecordJournalDepth(len(j.queue))
		case <-j.metricsStop:
			return
		}
	}
}

// Stats returns current statistics about the journal.
func (j *Journal) Stats() Stats {
	return Stats{
		QueueDepth: len(j.queue),
		Published:  atomic.LoadInt64(&j.published),
		Dropped:    atomic.LoadInt64(&j.dropped),
		Written:    atomic.LoadInt64(&j.written),
		Failed:     atomic.LoadInt64(&j.failed),
	}
}
