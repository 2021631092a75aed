package service

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/mintworks/ledger/internal/ledger/domain"
	"github.com/mintworks/ledger/internal/ledger/storage"
	"github.com/mintworks/ledger/internal/ledger/treasury"
	apperrors "github.com/mintworks/ledger/internal/platform/errors"
)

// requireAdmin gates administrator operations on the actor matching the
// collection administrator fixed at creation.
func (s *Service) requireAdmin(actor domain.Account) error {
	if actor.IsZero() || actor != s.cfg.Admin {
		return apperrors.New(apperrors.CodeUnauthorized, "administrator capability required")
	}
	return nil
}

// Reveal switches the collection to revealed metadata under prefix. The
// revealed flag never clears; calling again replaces the prefix.
func (s *Service) Reveal(ctx context.Context, actor domain.Account, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireAdmin(actor); err != nil {
		return err
	}

	next, err := s.state.Reveal(prefix)
	if err != nil {
		return err
	}
	if err := s.saveState(ctx, next, storage.EventRevealed, 0, actor, next.RevealedURIPrefix); err != nil {
		return err
	}
	s.state = next
	return nil
}

// SetUnitPrice replaces the per-unit issuance price.
func (s *Service) SetUnitPrice(ctx context.Context, actor domain.Account, price *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireAdmin(actor); err != nil {
		return err
	}

	next, err := s.state.SetUnitPrice(price)
	if err != nil {
		return err
	}
	if err := s.saveState(ctx, next, storage.EventPriceChanged, 0, actor, next.UnitPrice.Dec()); err != nil {
		return err
	}
	s.state = next
	return nil
}

// SetRoyalty replaces the royalty receiver and basis points atomically.
func (s *Service) SetRoyalty(ctx context.Context, actor domain.Account, receiver domain.Account, bps uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireAdmin(actor); err != nil {
		return err
	}

	next, err := s.state.SetRoyalty(receiver, bps)
	if err != nil {
		return err
	}
	detail := fmt.Sprintf("receiver %s bps %d", receiver, bps)
	if err := s.saveState(ctx, next, storage.EventRoyaltySet, 0, actor, detail); err != nil {
		return err
	}
	s.state = next
	return nil
}

// Withdraw drains the treasury to the administrator through the gateway. An
// empty treasury succeeds with a zero amount and skips the gateway entirely.
//
// The drained state is persisted before the gateway transfer: a persistence
// failure then leaves the funds unpaid and retryable, and a rejected transfer
// is compensated by restoring the balance. Paying out before persisting would
// let a retry pay the same balance twice.
func (s *Service) Withdraw(ctx context.Context, actor domain.Account) (treasury.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireAdmin(actor); err != nil {
		return treasury.Receipt{}, err
	}

	amount, next := s.state.Withdraw()
	if amount.IsZero() {
		return treasury.Receipt{Amount: uint256.NewInt(0), To: actor}, nil
	}

	prior := s.state
	if err := s.saveState(ctx, next, storage.EventWithdrawn, 0, actor, amount.Dec()); err != nil {
		return treasury.Receipt{}, err
	}
	s.state = next

	receipt, err := s.bank.Transfer(ctx, actor, amount)
	if err != nil {
		restoreCtx := context.WithoutCancel(ctx)
		if restoreErr := s.saveState(restoreCtx, prior, storage.EventWithdrawReverted, 0, actor, amount.Dec()); restoreErr == nil {
			s.state = prior
		}
		// If the restore itself failed the balance stays drained in the
		// record: funds are locked, not double-paid, and an operator can
		// reconcile from the audit trail.
		return treasury.Receipt{}, apperrors.Wrap(apperrors.CodeTransferFailed, "withdraw treasury", err)
	}
	return receipt, nil
}

func (s *Service) saveState(ctx context.Context, next domain.State, eventType string, tokenID uint64, actor domain.Account, detail string) error {
	event, err := s.newEvent(eventType, tokenID, actor, detail)
	if err != nil {
		return err
	}
	record := toRecord(s.cfg, next)
	record.UpdatedAt = s.clock().UTC()
	if err := s.store.SaveState(ctx, record, event); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageFailure, "persist state", err)
	}
	return nil
}
