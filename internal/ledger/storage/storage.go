// Package storage defines the persistence contract for the ledger service.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mintworks/ledger/internal/ledger/domain"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

// ErrAlreadyExists indicates a uniqueness violation on insert.
var ErrAlreadyExists = errors.New("storage: already exists")

// CollectionRecord is the persisted collection row: the immutable
// configuration plus the mutable ledger state. Money columns hold decimal
// strings so 256-bit values survive the round trip.
type CollectionRecord struct {
	Name              string
	Symbol            string
	MaxSupply         uint64
	HiddenURI         string
	Admin             string
	UnitPrice         string
	TotalIssued       uint64
	Revealed          bool
	RevealedURIPrefix string
	RoyaltyReceiver   string
	RoyaltyBps        uint32
	Treasury          string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TokenRecord is one issued token and its current owner.
type TokenRecord struct {
	ID       uint64
	Owner    domain.Account
	IssuedAt time.Time
}

// EventRecord is one append-only audit entry.
type EventRecord struct {
	ID      string
	Type    string
	TokenID uint64
	Actor   domain.Account
	Detail  string
	At      time.Time
}

// Audit event types.
const (
	EventIssued           = "issued"
	EventTransferred      = "transferred"
	EventRevealed         = "revealed"
	EventPriceChanged     = "price_changed"
	EventRoyaltySet       = "royalty_set"
	EventWithdrawn        = "withdrawn"
	EventWithdrawReverted = "withdraw_reverted"
)

// TokenPage is one page of token records.
type TokenPage struct {
	Tokens        []TokenRecord
	NextPageToken string
}

// Store persists the collection, its tokens, and the audit trail.
//
// ApplyIssuance and TransferToken are transactional: the state update, the
// token rows, and the audit entry commit together or not at all.
type Store interface {
	CreateCollection(ctx context.Context, record CollectionRecord) error
	LoadCollection(ctx context.Context) (CollectionRecord, error)
	SaveState(ctx context.Context, record CollectionRecord, event EventRecord) error
	ApplyIssuance(ctx context.Context, record CollectionRecord, tokens []TokenRecord, event EventRecord) error
	TransferToken(ctx context.Context, tokenID uint64, from, to domain.Account, event EventRecord) error
	ListTokens(ctx context.Context, owner domain.Account, pageSize int, pageToken string) (TokenPage, error)
	ListEvents(ctx context.Context, limit int) ([]EventRecord, error)
	Close() error
}
