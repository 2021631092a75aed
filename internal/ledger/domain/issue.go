package domain

import (
	"strconv"

	"github.com/holiman/uint256"

	apperrors "github.com/mintworks/ledger/internal/platform/errors"
)

// Issuance describes an accepted batch of newly allocated token ids.
// Ids are contiguous: [FirstID, LastID], both inclusive.
type Issuance struct {
	FirstID uint64
	LastID  uint64
	Payment *uint256.Int
}

// Quantity returns the number of ids in the batch.
func (i Issuance) Quantity() uint64 {
	if i.LastID < i.FirstID {
		return 0
	}
	return i.LastID - i.FirstID + 1
}

// IDs returns the allocated ids in ascending order.
func (i Issuance) IDs() []uint64 {
	ids := make([]uint64, 0, i.Quantity())
	for id := i.FirstID; id <= i.LastID && id >= i.FirstID; id++ {
		ids = append(ids, id)
	}
	return ids
}

// PlanIssue validates an issuance request against current state and returns
// the batch that would be allocated. It performs no mutation: callers apply
// the plan with ApplyIssue only after every side effect has been staged.
//
// Allocation is 1-based: the first token of a fresh collection is id 1, and
// the batch for quantity q at supply s is [s+1, s+q].
func PlanIssue(cfg Config, s State, quantity uint64, payment *uint256.Int) (Issuance, error) {
	if quantity == 0 {
		return Issuance{}, apperrors.New(apperrors.CodeInvalidQuantity, "quantity must be at least 1")
	}
	if payment == nil {
		return Issuance{}, apperrors.New(apperrors.CodeInvalidArgument, "payment amount is required")
	}
	// TotalIssued <= MaxSupply always holds, so the subtraction cannot wrap.
	if quantity > cfg.MaxSupply-s.TotalIssued {
		return Issuance{}, apperrors.WithMetadata(apperrors.CodeSupplyExceeded, "issuance would exceed max supply", map[string]string{
			"max_supply":   strconv.FormatUint(cfg.MaxSupply, 10),
			"total_issued": strconv.FormatUint(s.TotalIssued, 10),
			"quantity":     strconv.FormatUint(quantity, 10),
		})
	}

	required, overflow := new(uint256.Int).MulOverflow(s.UnitPrice, uint256.NewInt(quantity))
	if overflow {
		// No representable payment can cover a total beyond 2^256-1.
		return Issuance{}, apperrors.New(apperrors.CodeInsufficientPayment, "required payment exceeds representable amount")
	}
	if payment.Lt(required) {
		return Issuance{}, apperrors.WithMetadata(apperrors.CodeInsufficientPayment, "payment below required total", map[string]string{
			"required": required.Dec(),
			"payment":  payment.Dec(),
		})
	}

	return Issuance{
		FirstID: s.TotalIssued + 1,
		LastID:  s.TotalIssued + quantity,
		Payment: payment.Clone(),
	}, nil
}

// ApplyIssue returns state advanced by a planned issuance: the supply counter
// moves to the batch's last id and the full payment, excess included, is
// credited to the treasury.
func ApplyIssue(s State, iss Issuance) State {
	next := s.Clone()
	next.TotalIssued = iss.LastID
	next.Treasury = new(uint256.Int).Add(next.Treasury, iss.Payment)
	return next
}
