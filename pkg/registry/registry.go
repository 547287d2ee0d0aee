// Package registry resolves account identifiers to accounts.
//
// Membership is fixed when the Registry is constructed: the underlying map is
// never written afterwards, so lookups from any number of goroutines need no lock.
// Adding or removing accounts while transfers run would need a registry-level lock
// or a versioned snapshot and is not supported.
package registry

import (
	"sort"

	"funds-transfer/pkg/account"
	"funds-transfer/pkg/account/memory"

	"github.com/shopspring/decimal"
)

// Registry maps account ids to accounts.
type Registry struct {
	accounts map[int64]account.Account
	ids      []int64
}

// Opening describes an account to create: its id and opening balance.
type Opening struct {
	ID      int64
	Balance decimal.Decimal
}

// New builds a registry from existing accounts.
// Returns ErrNilAccount or a *DuplicateAccountError if the set is malformed.
func New(accounts ...account.Account) (*Registry, error) {
	r := &Registry{
		accounts: make(map[int64]account.Account, len(accounts)),
		ids:      make([]int64, 0, len(accounts)),
	}

	for _, a := range accounts {
		if a == nil {
			return nil, ErrNilAccount
		}
		if _, exists := r.accounts[a.ID()]; exists {
			return nil, &DuplicateAccountError{ID: a.ID()}
		}
		r.accounts[a.ID()] = a
		r.ids = append(r.ids, a.ID())
	}

	sort.Slice(r.ids, func(i, j int) bool { return r.ids[i] < r.ids[j] })

	return r, nil
}

// FromBalances creates in-memory accounts for each opening and registers them.
func FromBalances(openings ...Opening) (*Registry, error) {
	accounts := make([]account.Account, 0, len(openings))
	for _, o := range openings {
		a, err := memory.New(o.ID, o.Balance)
		if err != nil {
			return nil, &OpeningError{ID: o.ID, Err: err}
		}
		accounts = append(accounts, a)
	}
	return New(accounts...)
}

// Lookup returns the account registered under id.
func (r *Registry) Lookup(id int64) (account.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, &AccountNotFoundError{ID: id}
	}
	return a, nil
}

// IDs returns all registered ids in ascending order.
func (r *Registry) IDs() []int64 {
	ids := make([]int64, len(r.ids))
	copy(ids, r.ids)
	return ids
}

// Accounts returns all accounts in ascending id order.
func (r *Registry) Accounts() []account.Account {
	out := make([]account.Account, len(r.ids))
	for i, id := range r.ids {
		out[i] = r.accounts[id]
	}
	return out
}

// Len returns the number of registered accounts.
func (r *Registry) Len() int {
	return len(r.ids)
}

// Total returns the sum of all balances, each read under its own balance lock.
// Under concurrent transfers the result may include money in flight; use a
// lock-ordered snapshot when an exact figure is required.
func (r *Registry) Total() decimal.Decimal {
	total := decimal.Zero
	for _, id := range r.ids {
		total = total.Add(r.accounts[id].Balance())
	}
	return total
}
