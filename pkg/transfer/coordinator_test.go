package transfer

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"funds-transfer/pkg/account"
	"funds-transfer/pkg/account/memory"
	"funds-transfer/pkg/account/mock"
	"funds-transfer/pkg/journal"
	"funds-transfer/pkg/ledger"
	metricsmemory "funds-transfer/pkg/metrics/memory"
	"funds-transfer/pkg/registry"
	"funds-transfer/pkg/resilience"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// openAccounts creates in-memory accounts with ids 1..n.
func openAccounts(t *testing.T, balances ...int64) []*memory.Account {
	t.Helper()
	accounts := make([]*memory.Account, len(balances))
	for i, b := range balances {
		acct, err := memory.New(int64(i+1), d(b))
		if err != nil {
			t.Fatalf("memory.New failed: %v", err)
		}
		accounts[i] = acct
	}
	return accounts
}

func newCoordinator(t *testing.T, config Config, accounts ...account.Account) *Coordinator {
	t.Helper()
	reg, err := registry.New(accounts...)
	if err != nil {
		t.Fatalf("registry.New failed: %v", err)
	}
	return New(reg, config)
}

func asAccounts(accounts []*memory.Account) []account.Account {
	out := make([]account.Account, len(accounts))
	for i, a := range accounts {
		out[i] = a
	}
	return out
}

func assertBalance(t *testing.T, c *Coordinator, id int64, want int64) {
	t.Helper()
	got, err := c.Balance(id)
	if err != nil {
		t.Fatalf("Balance(%d) failed: %v", id, err)
	}
	if !got.Equal(d(want)) {
		t.Errorf("Balance(%d) = %s, want %d", id, got, want)
	}
}

func assertUnlocked(t *testing.T, accounts ...*memory.Account) {
	t.Helper()
	for _, a := range accounts {
		if a.Locked() {
			t.Errorf("account %d transaction lock still held", a.ID())
		}
	}
}

func TestTransfer_Scenario(t *testing.T) {
	accounts := openAccounts(t, 10000, 10000, 10000)
	c := newCoordinator(t, DefaultConfig(), asAccounts(accounts)...)
	ctx := context.Background()

	entry, err := c.Transfer(ctx, 1, 2, d(1000))
	if err != nil {
		t.Fatalf("Transfer(1, 2, 1000) failed: %v", err)
	}
	assertBalance(t, c, 1, 9000)
	assertBalance(t, c, 2, 11000)
	assertBalance(t, c, 3, 10000)

	from, _ := c.Entries(1)
	to, _ := c.Entries(2)
	if len(from) != 1 || len(to) != 1 {
		t.Fatalf("Expected one entry on each side, got %d and %d", len(from), len(to))
	}
	if from[0].ID != entry.ID || to[0].ID != entry.ID {
		t.Error("Both logs must hold the same movement")
	}
	if third, _ := c.Entries(3); len(third) != 0 {
		t.Errorf("Account 3 must have no entries, got %d", len(third))
	}

	_, err = c.Transfer(ctx, 3, 1, d(100000))
	if !account.IsInsufficientFunds(err) {
		t.Fatalf("Expected insufficient funds, got %v", err)
	}
	assertBalance(t, c, 1, 9000)
	assertBalance(t, c, 2, 11000)
	assertBalance(t, c, 3, 10000)

	if got := c.AccountBalance(1); got != "Account 1 Balance: $9000.00" {
		t.Errorf("AccountBalance(1) = %q", got)
	}
	if got := c.AccountBalance(999); got != "Account not found" {
		t.Errorf("AccountBalance(999) = %q", got)
	}
	assertUnlocked(t, accounts...)
}

func TestTransfer_ConcurrentScenario(t *testing.T) {
	accounts := openAccounts(t, 10000, 10000, 10000)
	c := newCoordinator(t, DefaultConfig(), asAccounts(accounts)...)

	type call struct {
		from, to int64
		amount   int64
		want     error
	}
	calls := []call{
		{1, 2, 1000, nil},
		{2, 3, 2000, nil},
		{3, 1, 10000, nil},
		{3, 1, 100000, account.ErrInsufficientFunds},
		{1, 999, 1000, registry.ErrAccountNotFound},
		{1, 2, -1000, account.ErrInvalidAmount},
	}

	var g errgroup.Group
	for _, cl := range calls {
		g.Go(func() error {
			_, err := c.Transfer(context.Background(), cl.from, cl.to, d(cl.amount))
			if cl.want == nil && err != nil {
				return err
			}
			if cl.want != nil && !errors.Is(err, cl.want) {
				t.Errorf("Transfer(%d, %d, %d) = %v, want %v", cl.from, cl.to, cl.amount, err, cl.want)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Unexpected transfer failure: %v", err)
	}

	// Every schedule ends in the same state
	assertBalance(t, c, 1, 19000)
	assertBalance(t, c, 2, 9000)
	assertBalance(t, c, 3, 2000)
}

func TestTransfer_ValidationBeforeLocks(t *testing.T) {
	tests := []struct {
		name     string
		from, to int64
		amount   int64
		want     error
	}{
		{"same account", 1, 1, 50, ErrSameAccount},
		{"zero amount", 1, 2, 0, account.ErrInvalidAmount},
		{"negative amount", 1, 2, -1000, account.ErrInvalidAmount},
		{"unknown destination", 1, 999, 1000, registry.ErrAccountNotFound},
		{"unknown source", 999, 1, 1000, registry.ErrAccountNotFound},
		{"not found before same account", 999, 999, 10, registry.ErrAccountNotFound},
		{"same account before amount", 2, 2, -5, ErrSameAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := openAccounts(t, 100, 100)
			first, second := mock.Wrap(accounts[0]), mock.Wrap(accounts[1])
			c := newCoordinator(t, DefaultConfig(), first, second)

			_, err := c.Transfer(context.Background(), tt.from, tt.to, d(tt.amount))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}

			for _, m := range []*mock.Account{first, second} {
				if m.AcquireCalls() != 0 {
					t.Errorf("account %d: lock acquired %d times", m.ID(), m.AcquireCalls())
				}
				if m.AppendCalls() != 0 {
					t.Errorf("account %d: %d entries appended", m.ID(), m.AppendCalls())
				}
			}
			assertBalance(t, c, 1, 100)
			assertBalance(t, c, 2, 100)
		})
	}
}

func TestTransfer_ReportsEveryMissingAccount(t *testing.T) {
	accounts := openAccounts(t, 100)
	c := newCoordinator(t, DefaultConfig(), asAccounts(accounts)...)

	tests := []struct {
		name     string
		from, to int64
		missing  []int64
	}{
		{"both unknown", 998, 999, []int64{998, 999}},
		{"source unknown", 998, 1, []int64{998}},
		{"destination unknown", 1, 999, []int64{999}},
		{"same unknown id", 998, 998, []int64{998}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Transfer(context.Background(), tt.from, tt.to, d(10))
			if ClassifyError(err) != OutcomeAccountNotFound {
				t.Fatalf("Expected account_not_found, got %v", err)
			}

			errs := multierr.Errors(err)
			if len(errs) != len(tt.missing) {
				t.Fatalf("Expected %d errors, got %d: %v", len(tt.missing), len(errs), err)
			}
			for i, id := range tt.missing {
				var notFound *registry.AccountNotFoundError
				if !errors.As(errs[i], &notFound) || notFound.ID != id {
					t.Errorf("Error %d = %v, want account %d not found", i, errs[i], id)
				}
			}
		})
	}
	assertBalance(t, c, 1, 100)
}

func TestTransfer_InsufficientFundsIsNoOp(t *testing.T) {
	accounts := openAccounts(t, 300, 50)
	c := newCoordinator(t, DefaultConfig(), asAccounts(accounts)...)

	_, err := c.Transfer(context.Background(), 2, 1, d(51))

	var insufficient *account.InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected *account.InsufficientFundsError, got %v", err)
	}
	if insufficient.AccountID != 2 || !insufficient.Requested.Equal(d(51)) || !insufficient.Available.Equal(d(50)) {
		t.Errorf("Unexpected diagnostics %+v", insufficient)
	}

	assertBalance(t, c, 1, 300)
	assertBalance(t, c, 2, 50)
	for _, a := range accounts {
		if n := len(a.Entries()); n != 0 {
			t.Errorf("account %d: expected empty log, got %d entries", a.ID(), n)
		}
	}
	assertUnlocked(t, accounts...)
}

func TestTransfer_ConservationUnderConcurrency(t *testing.T) {
	const numAccounts, workers, perWorker = 10, 20, 200

	balances := make([]int64, numAccounts)
	for i := range balances {
		balances[i] = 1000
	}
	accounts := openAccounts(t, balances...)
	c := newCoordinator(t, DefaultConfig(), asAccounts(accounts)...)

	done := make(chan struct{})
	var negative atomic.Bool
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			for _, a := range accounts {
				if a.Balance().IsNegative() {
					negative.Store(true)
				}
			}
		}
	}()

	g, ctx := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				from := rand.Int64N(numAccounts) + 1
				to := rand.Int64N(numAccounts) + 1
				if from == to {
					continue
				}
				_, err := c.Transfer(ctx, from, to, d(rand.Int64N(200)+1))
				if err != nil && !account.IsInsufficientFunds(err) {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Unexpected transfer failure: %v", err)
	}
	close(done)

	if negative.Load() {
		t.Error("Observed a negative balance")
	}

	snapshot, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !snapshot.Total.Equal(d(numAccounts * 1000)) {
		t.Errorf("Total = %s, want %d", snapshot.Total, numAccounts*1000)
	}

	// Each balance is explained by its own log
	for _, a := range accounts {
		expected := d(1000)
		for _, e := range a.Entries() {
			if e.To == a.ID() {
				expected = expected.Add(e.Amount)
			}
			if e.From == a.ID() {
				expected = expected.Sub(e.Amount)
			}
		}
		if !expected.Equal(a.Balance()) {
			t.Errorf("account %d: log implies %s, balance is %s", a.ID(), expected, a.Balance())
		}
	}
	assertUnlocked(t, accounts...)
}

func TestTransfer_OpposingTransfersTerminate(t *testing.T) {
	accounts := openAccounts(t, 100000, 100000)
	c := newCoordinator(t, DefaultConfig(), asAccounts(accounts)...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < 16; w++ {
		from, to := int64(1), int64(2)
		if w%2 == 1 {
			from, to = 2, 1
		}
		g.Go(func() error {
			for i := 0; i < 200; i++ {
				if _, err := c.Transfer(ctx, from, to, d(1)); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatalf("Opposing transfers did not all complete: %v", err)
	}
	assertBalance(t, c, 1, 100000)
	assertBalance(t, c, 2, 100000)
}

func TestTransfer_DisjointTransfersRunInParallel(t *testing.T) {
	accounts := openAccounts(t, 1000, 1000, 1000, 1000)

	started := make(chan struct{})
	release := make(chan struct{})
	slow := mock.Wrap(accounts[0])
	slow.WithdrawFunc = func(amount decimal.Decimal) error {
		close(started)
		<-release
		return slow.Base.Withdraw(amount)
	}

	c := newCoordinator(t, DefaultConfig(), slow, accounts[1], accounts[2], accounts[3])

	blocked := make(chan error, 1)
	go func() {
		_, err := c.Transfer(context.Background(), 1, 2, d(100))
		blocked <- err
	}()
	<-started

	// (1, 2) holds both of its locks; (3, 4) must not wait for it
	finished := make(chan error, 1)
	go func() {
		_, err := c.Transfer(context.Background(), 3, 4, d(100))
		finished <- err
	}()

	select {
	case err := <-finished:
		if err != nil {
			t.Fatalf("Transfer(3, 4) failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Transfer(3, 4) was serialized behind Transfer(1, 2)")
	}

	close(release)
	if err := <-blocked; err != nil {
		t.Fatalf("Transfer(1, 2) failed: %v", err)
	}

	assertBalance(t, c, 1, 900)
	assertBalance(t, c, 2, 1100)
	assertBalance(t, c, 3, 900)
	assertBalance(t, c, 4, 1100)
}

func TestTransfer_CompensatesFailedDeposit(t *testing.T) {
	accounts := openAccounts(t, 1000, 1000)
	dest := mock.Wrap(accounts[1])
	dest.DepositFunc = func(amount decimal.Decimal) error {
		return mock.ErrInjected
	}

	collector := metricsmemory.NewMemoryCollector()
	config := DefaultConfig()
	config.Metrics = collector
	c := newCoordinator(t, config, accounts[0], dest)

	_, err := c.Transfer(context.Background(), 1, 2, d(250))
	if !IsReversed(err) {
		t.Fatalf("Expected ErrReversed, got %v", err)
	}
	if !errors.Is(err, mock.ErrInjected) {
		t.Error("Expected the deposit failure to be wrapped")
	}
	if IsCompensationFailed(err) {
		t.Error("Successful compensation must not report ErrCompensationFailed")
	}

	assertBalance(t, c, 1, 1000)
	assertBalance(t, c, 2, 1000)

	log := accounts[0].Entries()
	if len(log) != 2 {
		t.Fatalf("Expected forward and reversal entries on the source, got %d", len(log))
	}
	forward, reversal := log[0], log[1]
	if forward.Reversal || !reversal.Reversal {
		t.Error("Expected forward entry followed by its reversal")
	}
	if reversal.Reverses != forward.ID || reversal.TransferID != forward.TransferID {
		t.Error("Reversal must reference the forward entry")
	}
	if reversal.From != 2 || reversal.To != 1 {
		t.Errorf("Reversal roles not swapped: from %d to %d", reversal.From, reversal.To)
	}
	if n := len(accounts[1].Entries()); n != 0 {
		t.Errorf("Destination must have no entries, got %d", n)
	}

	if snap := collector.Snapshot(); snap.Compensations != 1 || snap.CompensationFailures != 0 {
		t.Errorf("Unexpected compensation metrics %+v", snap)
	}
	if collector.Transfers(OutcomeReversed) != 1 {
		t.Error("Expected one reversed outcome")
	}
	assertUnlocked(t, accounts...)
}

func TestTransfer_CompensationFailure(t *testing.T) {
	accounts := openAccounts(t, 1000, 1000)
	source := mock.Wrap(accounts[0])
	source.DepositFunc = func(amount decimal.Decimal) error {
		return errors.New("source frozen")
	}
	dest := mock.Wrap(accounts[1])
	dest.DepositFunc = func(amount decimal.Decimal) error {
		return mock.ErrInjected
	}

	c := newCoordinator(t, DefaultConfig(), source, dest)

	_, err := c.Transfer(context.Background(), 1, 2, d(400))

	var failed *CompensationFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("Expected *CompensationFailedError, got %v", err)
	}
	if !IsCompensationFailed(err) {
		t.Error("Expected errors.Is(err, ErrCompensationFailed)")
	}
	if IsReversed(err) {
		t.Error("A failed compensation must not report ErrReversed")
	}
	if failed.From != 1 || failed.To != 2 || !failed.Amount.Equal(d(400)) {
		t.Errorf("Unexpected diagnostics %+v", failed)
	}
	if causes := failed.Causes(); len(causes) != 2 {
		t.Errorf("Expected deposit and compensation causes, got %v", causes)
	}
	if !errors.Is(err, mock.ErrInjected) {
		t.Error("Expected the deposit failure among the causes")
	}
	if ClassifyError(err) != OutcomeCompensationFailed {
		t.Errorf("ClassifyError = %s", ClassifyError(err))
	}

	// The withdrawal stands; the failure is surfaced, not retried
	assertBalance(t, c, 1, 600)
	assertBalance(t, c, 2, 1000)
	if source.DepositCalls() != 1 {
		t.Errorf("Expected a single compensation attempt, got %d", source.DepositCalls())
	}
	assertUnlocked(t, accounts...)

	// Later transfers still get a definite outcome and leave no lock behind
	if _, err := c.Transfer(context.Background(), 2, 1, d(1)); err == nil {
		t.Error("Expected the follow-up deposit into account 1 to fail")
	}
	assertUnlocked(t, accounts...)
}

func TestTransfer_LockTimeoutAbortsCleanly(t *testing.T) {
	accounts := openAccounts(t, 1000, 1000)
	config := DefaultConfig()
	config.LockTimeout = 20 * time.Millisecond
	config.Breaker = resilience.DisabledBreakerConfig()
	c := newCoordinator(t, config, asAccounts(accounts)...)

	holder, err := accounts[1].AcquireTransactionLock(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("AcquireTransactionLock failed: %v", err)
	}

	_, err = c.Transfer(context.Background(), 1, 2, d(100))
	holder.Unlock()

	if !account.IsLockTimeout(err) {
		t.Fatalf("Expected lock timeout, got %v", err)
	}
	if ClassifyError(err) != OutcomeLockTimeout {
		t.Errorf("ClassifyError = %s", ClassifyError(err))
	}
	assertBalance(t, c, 1, 1000)
	assertBalance(t, c, 2, 1000)
	assertUnlocked(t, accounts...)
	if n := len(accounts[0].Entries()); n != 0 {
		t.Errorf("Expected no entries, got %d", n)
	}
}

func TestTransfer_CancellationAbortsCleanly(t *testing.T) {
	accounts := openAccounts(t, 1000, 1000)
	c := newCoordinator(t, DefaultConfig(), asAccounts(accounts)...)

	holder, _ := accounts[0].AcquireTransactionLock(context.Background(), time.Second)
	defer holder.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	start := time.Now()
	_, err := c.Transfer(ctx, 2, 1, d(100))

	if !errors.Is(err, context.Canceled) || !account.IsLockTimeout(err) {
		t.Fatalf("Expected canceled lock wait, got %v", err)
	}
	if ClassifyError(err) != OutcomeCanceled {
		t.Errorf("ClassifyError = %s", ClassifyError(err))
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Cancellation took %v", elapsed)
	}
	assertBalance(t, c, 1, 1000)
	assertBalance(t, c, 2, 1000)
	assertUnlocked(t, accounts[1])
}

func TestTransfer_BreakerFailsFast(t *testing.T) {
	accounts := openAccounts(t, 1000, 1000, 1000)
	config := DefaultConfig()
	config.LockTimeout = 10 * time.Millisecond
	config.Breaker = resilience.DefaultBreakerConfig().WithConsecutiveTimeouts(2).WithCooldown(time.Hour)
	c := newCoordinator(t, config, asAccounts(accounts)...)

	holder, _ := accounts[1].AcquireTransactionLock(context.Background(), time.Second)
	defer holder.Unlock()

	for i := 0; i < 2; i++ {
		if _, err := c.Transfer(context.Background(), 1, 2, d(1)); ClassifyError(err) != OutcomeLockTimeout {
			t.Fatalf("Attempt %d: expected lock timeout, got %v", i, err)
		}
	}

	_, err := c.Transfer(context.Background(), 1, 2, d(1))
	if !resilience.IsCircuitOpen(err) {
		t.Fatalf("Expected open circuit, got %v", err)
	}
	if !account.IsLockTimeout(err) {
		t.Error("Open circuit must also report a lock timeout")
	}
	if ClassifyError(err) != OutcomeCircuitOpen {
		t.Errorf("ClassifyError = %s", ClassifyError(err))
	}

	// Other accounts are unaffected
	if _, err := c.Transfer(context.Background(), 1, 3, d(1)); err != nil {
		t.Errorf("Transfer(1, 3) failed: %v", err)
	}
	assertUnlocked(t, accounts[0], accounts[2])
}

func TestTransfer_UsableAfterContentionEnds(t *testing.T) {
	accounts := openAccounts(t, 1000, 1000)
	config := DefaultConfig()
	config.LockTimeout = 10 * time.Millisecond
	config.Breaker = resilience.DefaultBreakerConfig().WithCooldown(time.Hour)
	c := newCoordinator(t, config, asAccounts(accounts)...)

	holder, _ := accounts[1].AcquireTransactionLock(context.Background(), time.Second)
	for i := uint32(0); i < config.Breaker.ConsecutiveTimeouts; i++ {
		if _, err := c.Transfer(context.Background(), 1, 2, d(1)); !account.IsLockTimeout(err) {
			t.Fatalf("Attempt %d: expected lock timeout, got %v", i, err)
		}
	}
	holder.Unlock()

	if c.BreakerState(2).String() != "open" {
		t.Fatalf("Expected open breaker, got %s", c.BreakerState(2))
	}

	if _, err := c.Transfer(context.Background(), 1, 2, d(1)); err != nil {
		t.Errorf("Transfer(1, 2) after release failed: %v", err)
	}
	if _, err := c.Transfer(context.Background(), 2, 1, d(1)); err != nil {
		t.Errorf("Transfer(2, 1) after release failed: %v", err)
	}
	assertBalance(t, c, 1, 1000)
	assertBalance(t, c, 2, 1000)
	assertUnlocked(t, accounts...)
}

func TestTransfer_JournalReceivesCommittedEntries(t *testing.T) {
	accounts := openAccounts(t, 1000, 1000, 1000)
	dest := mock.Wrap(accounts[2])
	dest.DepositFunc = func(amount decimal.Decimal) error {
		return mock.ErrInjected
	}

	sink := journal.NewMemorySink()
	j := journal.New(sink, journal.Config{Workers: 1})
	defer j.Close()

	config := DefaultConfig()
	config.Journal = j
	c := newCoordinator(t, config, accounts[0], accounts[1], dest)

	forward, err := c.Transfer(context.Background(), 1, 2, d(10))
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if _, err := c.Transfer(context.Background(), 1, 3, d(10)); !IsReversed(err) {
		t.Fatalf("Expected reversal, got %v", err)
	}
	// Rejected transfers publish nothing
	c.Transfer(context.Background(), 1, 2, d(1000000))

	if err := j.Flush(time.Second); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	entries := sink.Entries()
	if len(entries) != 3 {
		t.Fatalf("Expected 3 journaled entries, got %d", len(entries))
	}
	if entries[0].ID != forward.ID {
		t.Error("First journaled entry must be the committed transfer")
	}
	if !entries[2].Reversal || entries[2].Reverses != entries[1].ID {
		t.Error("Expected the reversal after its forward entry")
	}
}

func TestTransfer_RecordsOutcomes(t *testing.T) {
	accounts := openAccounts(t, 100, 100)
	collector := metricsmemory.NewMemoryCollector()
	config := DefaultConfig()
	config.Metrics = collector
	c := newCoordinator(t, config, asAccounts(accounts)...)

	ctx := context.Background()
	c.Transfer(ctx, 1, 2, d(10))
	c.Transfer(ctx, 1, 2, d(10))
	c.Transfer(ctx, 1, 2, d(1000))
	c.Transfer(ctx, 1, 1, d(10))
	c.Transfer(ctx, 1, 7, d(10))
	c.Transfer(ctx, 1, 2, decimal.Zero)

	want := map[string]int64{
		OutcomeSuccess:           2,
		OutcomeInsufficientFunds: 1,
		OutcomeSameAccount:       1,
		OutcomeAccountNotFound:   1,
		OutcomeInvalidAmount:     1,
	}
	for outcome, n := range want {
		if got := collector.Transfers(outcome); got != n {
			t.Errorf("%s: got %d, want %d", outcome, got, n)
		}
	}

	// Locks are only taken by transfers that passed validation
	am := collector.GetAccountMetrics("1")
	if am == nil || am.LockAcquired != 3 {
		t.Errorf("Expected 3 lock acquisitions on account 1, got %+v", am)
	}
}

func TestTransfer_ReturnsForwardEntry(t *testing.T) {
	accounts := openAccounts(t, 100, 100)
	c := newCoordinator(t, DefaultConfig(), asAccounts(accounts)...)

	entry, err := c.Transfer(context.Background(), 2, 1, decimal.RequireFromString("12.34"))
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	want := ledger.Entry{From: 2, To: 1, Amount: decimal.RequireFromString("12.34")}
	if entry.From != want.From || entry.To != want.To || !entry.Amount.Equal(want.Amount) || entry.Reversal {
		t.Errorf("Unexpected entry %+v", entry)
	}
	if entry.Kind() != "TRX" {
		t.Errorf("Kind = %s", entry.Kind())
	}
	balance, _ := c.Balance(1)
	if !balance.Equal(decimal.RequireFromString("112.34")) {
		t.Errorf("Balance(1) = %s", balance)
	}
}
