package ownership

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mintworks/ledger/internal/ledger/domain"
)

// Memory is an in-process ownership ledger. It is the authoritative read
// model for owner queries; durable copies live in the storage layer.
type Memory struct {
	mu     sync.RWMutex
	owners map[uint64]domain.Account
}

// NewMemory returns an empty in-memory ownership ledger.
func NewMemory() *Memory {
	return &Memory{owners: make(map[uint64]domain.Account)}
}

// Register records a newly issued token as owned by owner.
func (m *Memory) Register(ctx context.Context, id uint64, owner domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == 0 {
		return fmt.Errorf("token id 0 is not registrable")
	}
	if owner.IsZero() {
		return fmt.Errorf("owner account is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.owners[id]; ok {
		return ErrAlreadyRegistered
	}
	m.owners[id] = owner
	return nil
}

// Transfer moves a token from one holder to another.
func (m *Memory) Transfer(ctx context.Context, id uint64, from, to domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to.IsZero() {
		return fmt.Errorf("destination account is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.owners[id]
	if !ok {
		return ErrNotFound
	}
	if owner != from {
		return ErrNotOwner
	}
	m.owners[id] = to
	return nil
}

// OwnerOf returns the current holder of a token.
func (m *Memory) OwnerOf(ctx context.Context, id uint64) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	owner, ok := m.owners[id]
	if !ok {
		return "", ErrNotFound
	}
	return owner, nil
}

// BalanceOf returns the number of tokens held by owner.
func (m *Memory) BalanceOf(ctx context.Context, owner domain.Account) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var balance uint64
	for _, holder := range m.owners {
		if holder == owner {
			balance++
		}
	}
	return balance, nil
}

// List enumerates tokens in ascending id order, pageSize+1 probing for the
// next page token. The page token is the decimal id the page starts after.
func (m *Memory) List(ctx context.Context, owner domain.Account, pageSize int, pageToken string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if pageSize <= 0 {
		return Page{}, fmt.Errorf("page size must be greater than zero")
	}
	var after uint64
	if token := strings.TrimSpace(pageToken); token != "" {
		parsed, err := strconv.ParseUint(token, 10, 64)
		if err != nil {
			return Page{}, fmt.Errorf("invalid page token %q", pageToken)
		}
		after = parsed
	}

	m.mu.RLock()
	ids := make([]uint64, 0, len(m.owners))
	for id, holder := range m.owners {
		if id <= after {
			continue
		}
		if !owner.IsZero() && holder != owner {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	page := Page{Tokens: make([]Token, 0, pageSize)}
	for _, id := range ids {
		if len(page.Tokens) == pageSize {
			page.NextPageToken = strconv.FormatUint(page.Tokens[pageSize-1].ID, 10)
			break
		}
		page.Tokens = append(page.Tokens, Token{ID: id, Owner: m.owners[id]})
	}
	m.mu.RUnlock()

	return page, nil
}

var _ Ledger = (*Memory)(nil)
