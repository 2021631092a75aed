// Package domain holds the collection state machine: issuance, reveal,
// royalty and treasury rules. Functions here are pure; persistence and
// serialization live in the service and storage layers.
package domain

import (
	"strings"

	"github.com/holiman/uint256"

	apperrors "github.com/mintworks/ledger/internal/platform/errors"
)

// MaxRoyaltyBps is the inclusive upper bound for royalty basis points (100%).
const MaxRoyaltyBps = 10000

// Account is an opaque account identifier.
type Account string

// IsZero reports whether the account is empty.
func (a Account) IsZero() bool {
	return strings.TrimSpace(string(a)) == ""
}

// Config is the immutable collection configuration fixed at creation.
type Config struct {
	Name      string
	Symbol    string
	MaxSupply uint64
	HiddenURI string
	Admin     Account
}

// RoyaltyPolicy is the advisory secondary-sale fee pair.
type RoyaltyPolicy struct {
	Receiver Account
	Bps      uint16
}

// State is the mutable ledger state. Mutating methods are pure: they return
// an updated copy and never touch the receiver, so a failed persistence step
// can simply discard the candidate state.
type State struct {
	TotalIssued       uint64
	UnitPrice         *uint256.Int
	Revealed          bool
	RevealedURIPrefix string
	Royalty           RoyaltyPolicy
	Treasury          *uint256.Int
}

// NewConfig validates and returns an immutable collection configuration.
func NewConfig(name, symbol string, maxSupply uint64, hiddenURI string, admin Account) (Config, error) {
	name = strings.TrimSpace(name)
	symbol = strings.TrimSpace(symbol)
	hiddenURI = strings.TrimSpace(hiddenURI)
	if name == "" {
		return Config{}, apperrors.New(apperrors.CodeInvalidArgument, "collection name is required")
	}
	if symbol == "" {
		return Config{}, apperrors.New(apperrors.CodeInvalidArgument, "collection symbol is required")
	}
	if maxSupply == 0 {
		return Config{}, apperrors.New(apperrors.CodeInvalidArgument, "max supply must be greater than zero")
	}
	if hiddenURI == "" {
		return Config{}, apperrors.New(apperrors.CodeInvalidArgument, "hidden uri is required")
	}
	if admin.IsZero() {
		return Config{}, apperrors.New(apperrors.CodeInvalidArgument, "admin account is required")
	}
	return Config{
		Name:      name,
		Symbol:    symbol,
		MaxSupply: maxSupply,
		HiddenURI: hiddenURI,
		Admin:     admin,
	}, nil
}

// NewState returns the initial ledger state for a fresh collection.
func NewState(unitPrice *uint256.Int, royalty RoyaltyPolicy) (State, error) {
	if unitPrice == nil || unitPrice.IsZero() {
		return State{}, apperrors.New(apperrors.CodeInvalidArgument, "unit price must be nonzero")
	}
	if royalty.Bps > MaxRoyaltyBps {
		return State{}, apperrors.New(apperrors.CodeRoyaltyOutOfRange, "royalty bps exceeds 10000")
	}
	return State{
		UnitPrice: unitPrice.Clone(),
		Royalty:   royalty,
		Treasury:  uint256.NewInt(0),
	}, nil
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	if s.UnitPrice != nil {
		out.UnitPrice = s.UnitPrice.Clone()
	}
	if s.Treasury != nil {
		out.Treasury = s.Treasury.Clone()
	}
	return out
}

// TokenExists reports whether id has been issued. Ids are 1-based; id 0 is
// never valid.
func (s State) TokenExists(id uint64) bool {
	return id >= 1 && id <= s.TotalIssued
}

// SetUnitPrice returns state with a replaced per-unit price.
func (s State) SetUnitPrice(price *uint256.Int) (State, error) {
	if price == nil {
		return State{}, apperrors.New(apperrors.CodeInvalidArgument, "unit price is required")
	}
	next := s.Clone()
	next.UnitPrice = price.Clone()
	return next, nil
}

// SetRoyalty returns state with both royalty fields replaced atomically.
func (s State) SetRoyalty(receiver Account, bps uint16) (State, error) {
	if receiver.IsZero() {
		return State{}, apperrors.New(apperrors.CodeInvalidArgument, "royalty receiver is required")
	}
	if bps > MaxRoyaltyBps {
		return State{}, apperrors.New(apperrors.CodeRoyaltyOutOfRange, "royalty bps exceeds 10000")
	}
	next := s.Clone()
	next.Royalty = RoyaltyPolicy{Receiver: receiver, Bps: bps}
	return next, nil
}

// Reveal returns state with the revealed flag set and the URI prefix
// replaced. The flag is one-way; the prefix may be replaced again by a later
// call, so reveal is not a metadata freeze for the prefix value.
func (s State) Reveal(prefix string) (State, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return State{}, apperrors.New(apperrors.CodeInvalidArgument, "revealed uri prefix is required")
	}
	next := s.Clone()
	next.Revealed = true
	next.RevealedURIPrefix = prefix
	return next, nil
}

// Withdraw returns the full treasury balance and state with the balance
// zeroed. Callers must only apply the returned state after the underlying
// value transfer succeeds.
func (s State) Withdraw() (*uint256.Int, State) {
	amount := uint256.NewInt(0)
	if s.Treasury != nil {
		amount = s.Treasury.Clone()
	}
	next := s.Clone()
	next.Treasury = uint256.NewInt(0)
	return amount, next
}
