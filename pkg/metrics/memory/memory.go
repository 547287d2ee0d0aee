package memory

import (
	"sync"
	"time"

	"funds-transfer/pkg/metrics"
)

// MemoryCollector implements MetricsCollector for in-memory testing and JSON inspection.
type MemoryCollector struct {
	mu sync.RWMutex

	// Transfer outcomes by label
	transfers         map[string]int64
	transferLatencies []time.Duration

	compensations        int64
	compensationFailures int64

	// Per-account metrics
	accountMetrics map[string]*AccountMetrics

	// Journal
	journalDepth    int
	journalDropped  int64
	journalWrites   int64
	journalFailures int64
}

// AccountMetrics holds metrics for a single account.
type AccountMetrics struct {
	LockAcquired int64
	LockTimeouts int64
	LockWaits    []time.Duration

	CircuitState metrics.CircuitState
	CircuitOpens int64
}

var _ metrics.MetricsCollector = (*MemoryCollector)(nil)

// NewMemoryCollector creates a new in-memory metrics collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{
		transfers:      make(map[string]int64),
		accountMetrics: make(map[string]*AccountMetrics),
	}
}

// account returns the AccountMetrics for the given account, creating it if needed.
// Callers must hold mc.mu for writing.
func (mc *MemoryCollector) account(name string) *AccountMetrics {
	am, exists := mc.accountMetrics[name]
	if !exists {
		am = &AccountMetrics{}
		mc.accountMetrics[name] = am
	}
	return am
}

// RecordTransfer records one transfer outcome.
func (mc *MemoryCollector) RecordTransfer(outcome string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.transfers[outcome]++
	mc.transferLatencies = append(mc.transferLatencies, duration)
}

// RecordCompensation records a compensation attempt.
func (mc *MemoryCollector) RecordCompensation(success bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.compensations++
	if !success {
		mc.compensationFailures++
	}
}

// RecordLockWait records a transaction lock acquisition attempt.
func (mc *MemoryCollector) RecordLockWait(account string, acquired bool, wait time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	am := mc.account(account)
	if acquired {
		am.LockAcquired++
	} else {
		am.LockTimeouts++
	}
	am.LockWaits = append(am.LockWaits, wait)
}

// RecordCircuitState records the current circuit breaker state.
func (mc *MemoryCollector) RecordCircuitState(account string, state metrics.CircuitState) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	am := mc.account(account)
	oldState := am.CircuitState
	am.CircuitState = state

	// Count transitions to open
	if oldState != metrics.CircuitOpen && state == metrics.CircuitOpen {
		am.CircuitOpens++
	}
}

// RecordJournalDepth records the current journal queue depth.
func (mc *MemoryCollector) RecordJournalDepth(depth int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.journalDepth = depth
}

// RecordJournalDropped records an entry dropped by the journal.
func (mc *MemoryCollector) RecordJournalDropped() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.journalDropped++
}

// RecordJournalWrite records an entry delivered (or not) to a sink.
func (mc *MemoryCollector) RecordJournalWrite(success bool, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.journalWrites++
	if !success {
		mc.journalFailures++
	}
}

// Snapshot is a copy of the collected metrics.
type Snapshot struct {
	Transfers            map[string]int64          `json:"transfers"`
	TransferCount        int                       `json:"transfer_count"`
	Compensations        int64                     `json:"compensations"`
	CompensationFailures int64                     `json:"compensation_failures"`
	Accounts             map[string]AccountMetrics `json:"accounts"`
	JournalDepth         int                       `json:"journal_depth"`
	JournalDropped       int64                     `json:"journal_dropped"`
	JournalWrites        int64                     `json:"journal_writes"`
	JournalFailures      int64                     `json:"journal_failures"`
}

// Snapshot returns a copy of the current metrics state.
func (mc *MemoryCollector) Snapshot() Snapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	snapshot := Snapshot{
		Transfers:            make(map[string]int64, len(mc.transfers)),
		TransferCount:        len(mc.transferLatencies),
		Compensations:        mc.compensations,
		CompensationFailures: mc.compensationFailures,
		Accounts:             make(map[string]AccountMetrics, len(mc.accountMetrics)),
		JournalDepth:         mc.journalDepth,
		JournalDropped:       mc.journalDropped,
		JournalWrites:        mc.journalWrites,
		JournalFailures:      mc.journalFailures,
	}

	for outcome, n := range mc.transfers {
		snapshot.Transfers[outcome] = n
	}
	for name, am := range mc.accountMetrics {
		cp := *am
		cp.LockWaits = append([]time.Duration(nil), am.LockWaits...)
		snapshot.Accounts[name] = cp
	}

	return snapshot
}

// Transfers returns the number of transfers recorded with the given outcome.
func (mc *MemoryCollector) Transfers(outcome string) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return mc.transfers[outcome]
}

// GetAccountMetrics returns the metrics for a specific account.
func (mc *MemoryCollector) GetAccountMetrics(account string) *AccountMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if am, exists := mc.accountMetrics[account]; exists {
		cp := *am
		return &cp
	}
	return nil
}

// Reset clears all collected metrics.
func (mc *MemoryCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.transfers = make(map[string]int64)
	mc.transferLatencies = nil
	mc.compensations = 0
	mc.compensationFailures = 0
	mc.accountMetrics = make(map[string]*AccountMetrics)
	mc.journalDepth = 0
	mc.journalDropped = 0
	mc.journalWrites = 0
	mc.journalFailures = 0
}
