// Package treasury abstracts the value-transfer primitive used for payment
// receipt and administrator withdrawals.
package treasury

import (
	"context"
	"time"

	"github.com/holiman/uint256"

	"github.com/mintworks/ledger/internal/ledger/domain"
)

// Receipt records one completed outbound transfer.
type Receipt struct {
	ID     string
	To     domain.Account
	Amount *uint256.Int
	At     time.Time
}

// Gateway moves value out of the ledger to an account. A rejected transfer
// must return an error and move nothing.
type Gateway interface {
	Transfer(ctx context.Context, to domain.Account, amount *uint256.Int) (Receipt, error)
}
