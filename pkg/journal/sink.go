package journal

import (
	"context"
	"io"
	"sync"

	"funds-transfer/pkg/ledger"
	"funds-transfer/pkg/logging"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Sink receives committed entries from the journal workers.
// Write may be called concurrently when the journal runs more than one worker.
type Sink interface {
	Write(ctx context.Context, entry ledger.Entry) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(ctx context.Context, entry ledger.Entry) error

// Write calls f.
func (f SinkFunc) Write(ctx context.Context, entry ledger.Entry) error {
	return f(ctx, entry)
}

// LogSink writes each entry as a structured log line.
type LogSink struct {
	logger *logging.Logger
}

// NewLogSink creates a sink logging through logger, or the global logger if nil.
func NewLogSink(logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.Global()
	}
	return &LogSink{logger: logger.Named("ledger")}
}

// Write logs the entry at Info level.
func (s *LogSink) Write(ctx context.Context, entry ledger.Entry) error {
	s.logger.Info("ledger entry",
		zap.String("entry_id", entry.ID.String()),
		logging.TransferID(entry.TransferID),
		zap.String("kind", entry.Kind()),
		logging.FromAccount(entry.From),
		logging.ToAccount(entry.To),
		logging.Amount(entry.Amount),
		zap.Time("created_at", entry.CreatedAt),
	)
	return nil
}

// MemorySink keeps every entry it receives, in arrival order.
type MemorySink struct {
	mu      sync.RWMutex
	entries []ledger.Entry
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write appends the entry.
func (s *MemorySink) Write(ctx context.Context, entry ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns a copy of the received entries.
func (s *MemorySink) Entries() []ledger.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]ledger.Entry(nil), s.entries...)
}

// Len returns the number of received entries.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// MultiSink writes every entry to all of its sinks.
type MultiSink []Sink

// Write delivers entry to each sink and combines their errors.
func (m MultiSink) Write(ctx context.Context, entry ledger.Entry) error {
	var err error
	for _, sink := range m {
		err = multierr.Append(err, sink.Write(ctx, entry))
	}
	return err
}

// Close closes every sink that implements io.Closer.
func (m MultiSink) Close() error {
	var err error
	for _, sink := range m {
		if closer, ok := sink.(io.Closer); ok {
			err = multierr.Append(err, closer.Close())
		}
	}
	return err
}
