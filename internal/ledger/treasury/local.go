package treasury

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/mintworks/ledger/internal/ledger/domain"
	"github.com/mintworks/ledger/internal/platform/id"
)

// LocalBank is an in-process gateway that accumulates transferred value per
// account and keeps receipts. It stands in for an external settlement rail.
type LocalBank struct {
	mu       sync.Mutex
	balances map[domain.Account]*uint256.Int
	receipts []Receipt

	clock func() time.Time
	newID func() (string, error)

	// reject, when set, makes every transfer fail without moving value.
	reject error
}

// NewLocalBank returns an empty local settlement gateway.
func NewLocalBank() *LocalBank {
	return &LocalBank{
		balances: make(map[domain.Account]*uint256.Int),
		clock:    time.Now,
		newID:    id.NewID,
	}
}

// Transfer credits amount to the destination account and returns a receipt.
func (b *LocalBank) Transfer(ctx context.Context, to domain.Account, amount *uint256.Int) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if to.IsZero() {
		return Receipt{}, fmt.Errorf("destination account is required")
	}
	if amount == nil {
		return Receipt{}, fmt.Errorf("amount is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reject != nil {
		return Receipt{}, b.reject
	}

	receiptID, err := b.newID()
	if err != nil {
		return Receipt{}, fmt.Errorf("generate receipt id: %w", err)
	}

	balance, ok := b.balances[to]
	if !ok {
		balance = uint256.NewInt(0)
		b.balances[to] = balance
	}
	balance.Add(balance, amount)

	receipt := Receipt{
		ID:     receiptID,
		To:     to,
		Amount: amount.Clone(),
		At:     b.clock().UTC(),
	}
	b.receipts = append(b.receipts, receipt)
	return receipt, nil
}

// SetReject makes every subsequent transfer fail with err without moving
// value. A nil err clears the fault.
func (b *LocalBank) SetReject(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reject = err
}

// Balance returns the accumulated value transferred to an account.
func (b *LocalBank) Balance(account domain.Account) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	balance, ok := b.balances[account]
	if !ok {
		return uint256.NewInt(0)
	}
	return balance.Clone()
}

// Receipts returns a copy of all recorded transfers in order.
func (b *LocalBank) Receipts() []Receipt {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Receipt, len(b.receipts))
	copy(out, b.receipts)
	return out
}

var _ Gateway = (*LocalBank)(nil)
