package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is an immutable record of one funds movement or of its reversal.
// Both accounts touched by a transfer keep their own copy of the same Entry value.
type Entry struct {
	// ID identifies this entry
	ID uuid.UUID `json:"id"`

	// TransferID groups the forward entry and any reversal of the same transfer
	TransferID uuid.UUID `json:"transfer_id"`

	// From is the account the amount left
	From int64 `json:"from"`

	// To is the account the amount arrived at
	To int64 `json:"to"`

	// Amount is always positive
	Amount decimal.Decimal `json:"amount"`

	// CreatedAt is when the entry was built
	CreatedAt time.Time `json:"created_at"`

	// Reversal marks a compensating entry
	Reversal bool `json:"reversal"`

	// Reverses is the ID of the entry this one compensates (zero unless Reversal)
	Reverses uuid.UUID `json:"reverses,omitzero"`
}

// NewEntry builds a forward entry for a movement of amount from one account to another.
func NewEntry(transferID uuid.UUID, from, to int64, amount decimal.Decimal) Entry {
	return Entry{
		ID:         uuid.New(),
		TransferID: transferID,
		From:       from,
		To:         to,
		Amount:     amount,
		CreatedAt:  time.Now(),
	}
}

// Reverse builds the compensating entry for e: the roles are swapped and the
// new entry points back at e.
func (e Entry) Reverse() Entry {
	return Entry{
		ID:         uuid.New(),
		TransferID: e.TransferID,
		From:       e.To,
		To:         e.From,
		Amount:     e.Amount,
		CreatedAt:  time.Now(),
		Reversal:   true,
		Reverses:   e.ID,
	}
}

// Kind returns "REV" for reversals and "TRX" otherwise.
func (e Entry) Kind() string {
	if e.Reversal {
		return "REV"
	}
	return "TRX"
}

// String renders the entry as a single report line.
func (e Entry) String() string {
	return fmt.Sprintf("%s: $%s | from Account %d | to Account %d | %s",
		e.Kind(), e.Amount.StringFixed(2), e.From, e.To, e.CreatedAt.Format(time.UnixDate))
}
