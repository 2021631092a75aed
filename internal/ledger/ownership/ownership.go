// Package ownership provides the id→holder substrate consumed by the ledger:
// registering newly issued tokens, moving them between accounts, and
// enumerating holdings globally or per owner.
package ownership

import (
	"context"
	"errors"

	"github.com/mintworks/ledger/internal/ledger/domain"
)

var (
	// ErrNotFound indicates the token id has no registered owner.
	ErrNotFound = errors.New("token not registered")
	// ErrAlreadyRegistered indicates the token id was registered before.
	ErrAlreadyRegistered = errors.New("token already registered")
	// ErrNotOwner indicates the from account does not hold the token.
	ErrNotOwner = errors.New("token not owned by from account")
)

// Token pairs a token id with its current holder.
type Token struct {
	ID    uint64
	Owner domain.Account
}

// Page is one enumeration page ordered by ascending token id.
type Page struct {
	Tokens        []Token
	NextPageToken string
}

// Ledger tracks which account owns which token id.
type Ledger interface {
	// Register records a newly issued token as owned by owner.
	Register(ctx context.Context, id uint64, owner domain.Account) error
	// Transfer moves a token from one holder to another.
	Transfer(ctx context.Context, id uint64, from, to domain.Account) error
	// OwnerOf returns the current holder of a token.
	OwnerOf(ctx context.Context, id uint64) (domain.Account, error)
	// BalanceOf returns the number of tokens held by owner.
	BalanceOf(ctx context.Context, owner domain.Account) (uint64, error)
	// List enumerates tokens in ascending id order. An empty owner
	// enumerates the whole collection.
	List(ctx context.Context, owner domain.Account, pageSize int, pageToken string) (Page, error)
}
