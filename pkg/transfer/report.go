package transfer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"funds-transfer/pkg/account"
	"funds-transfer/pkg/ledger"
	"funds-transfer/pkg/logging"

	"github.com/shopspring/decimal"
)

// Balance returns the current balance of an account.
func (c *Coordinator) Balance(id int64) (decimal.Decimal, error) {
	acct, err := c.registry.Lookup(id)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.Balance(), nil
}

// AccountBalance formats an account balance for display, for example
// "Account 1 Balance: $9000.00", or returns "Account not found".
func (c *Coordinator) AccountBalance(id int64) string {
	balance, err := c.Balance(id)
	if err != nil {
		c.logger.Warn("balance requested for unknown account", logging.AccountID(id))
		return "Account not found"
	}
	return fmt.Sprintf("Account %d Balance: $%s", id, balance.StringFixed(2))
}

// Entries returns a copy of an account's log.
func (c *Coordinator) Entries(id int64) ([]ledger.Entry, error) {
	acct, err := c.registry.Lookup(id)
	if err != nil {
		return nil, err
	}
	return acct.Entries(), nil
}

// Report renders every account, ascending by id, with its balance and entry log.
// Each account is read under its own locks only. Concurrent callers share one
// rendering, so a caller may receive one that started before its call and misses
// transfers that completed since. Use PrintAccountBalances for a fresh rendering.
func (c *Coordinator) Report() string {
	v, _, _ := c.reports.Do("report", func() (interface{}, error) {
		return c.renderReport(), nil
	})
	return v.(string)
}

func (c *Coordinator) renderReport() string {
	var b strings.Builder
	for i, acct := range c.registry.Accounts() {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Account %d: $%s\n", acct.ID(), acct.Balance().StringFixed(2))
		b.WriteString("Transaction History:\n")
		for _, entry := range acct.Entries() {
			fmt.Fprintf(&b, "\t%s\n", entry)
		}
	}
	return b.String()
}

// PrintAccountBalances renders the report afresh and writes it to w.
// It reflects every transfer that completed before the call.
func (c *Coordinator) PrintAccountBalances(w io.Writer) error {
	_, err := io.WriteString(w, c.renderReport())
	return err
}

// AccountSnapshot is one account's balance inside a Snapshot.
type AccountSnapshot struct {
	ID      int64           `json:"id"`
	Balance decimal.Decimal `json:"balance"`
}

// Snapshot is a point-in-time view of every balance.
type Snapshot struct {
	Accounts []AccountSnapshot `json:"accounts"`
	Total    decimal.Decimal   `json:"total"`
	TakenAt  time.Time         `json:"taken_at"`
}

// Snapshot holds every account's transaction lock, acquired in canonical order,
// while it reads the balances. No transfer is in flight at that moment, so Total
// equals the conserved sum. It waits at most LockTimeout per account.
func (c *Coordinator) Snapshot(ctx context.Context) (Snapshot, error) {
	accounts := c.registry.Accounts()

	unlockers := make([]account.Unlocker, 0, len(accounts))
	defer func() {
		for i := len(unlockers) - 1; i >= 0; i-- {
			unlockers[i].Unlock()
		}
	}()

	for _, acct := range accounts {
		unlock, err := acct.AcquireTransactionLock(ctx, c.config.LockTimeout)
		if err != nil {
			return Snapshot{}, fmt.Errorf("snapshot: %w", err)
		}
		unlockers = append(unlockers, unlock)
	}

	snapshot := Snapshot{
		Accounts: make([]AccountSnapshot, 0, len(accounts)),
		Total:    decimal.Zero,
		TakenAt:  time.Now(),
	}
	for _, acct := range accounts {
		balance := acct.Balance()
		snapshot.Accounts = append(snapshot.Accounts, AccountSnapshot{ID: acct.ID(), Balance: balance})
		snapshot.Total = snapshot.Total.Add(balance)
	}

	return snapshot, nil
}
