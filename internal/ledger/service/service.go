// Package service coordinates the collection ledger: issuance, ownership,
// reveal, royalties, and treasury withdrawals over a durable store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/mintworks/ledger/internal/ledger/domain"
	"github.com/mintworks/ledger/internal/ledger/ownership"
	"github.com/mintworks/ledger/internal/ledger/storage"
	"github.com/mintworks/ledger/internal/ledger/treasury"
	apperrors "github.com/mintworks/ledger/internal/platform/errors"
	"github.com/mintworks/ledger/internal/platform/id"
)

// Capability tags advertised by the service.
var capabilities = []string{"ownership", "enumeration", "metadata", "royalty-quote"}

// Options configures a Service. Store, Ownership, and Bank are required.
// Collection, UnitPrice, and Royalty seed the store on first boot and are
// ignored once a collection row exists.
type Options struct {
	Store     storage.Store
	Ownership ownership.Ledger
	Bank      treasury.Gateway

	Collection domain.Config
	UnitPrice  *uint256.Int
	Royalty    domain.RoyaltyPolicy

	Clock func() time.Time
	NewID func() (string, error)
}

// Service serializes all ledger mutations behind one mutex. State transitions
// are planned on immutable snapshots, persisted, and only then applied.
type Service struct {
	mu    sync.Mutex
	cfg   domain.Config
	state domain.State

	store storage.Store
	owned ownership.Ledger
	bank  treasury.Gateway

	clock func() time.Time
	newID func() (string, error)
}

// New loads the collection from the store, creating it on first boot, and
// replays issued tokens into the ownership substrate.
func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.Ownership == nil {
		return nil, fmt.Errorf("ownership ledger is required")
	}
	if opts.Bank == nil {
		return nil, fmt.Errorf("treasury gateway is required")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = id.NewID
	}

	svc := &Service{
		store: opts.Store,
		owned: opts.Ownership,
		bank:  opts.Bank,
		clock: opts.Clock,
		newID: opts.NewID,
	}

	record, err := opts.Store.LoadCollection(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		cfg, state, err := bootstrap(ctx, opts)
		if err != nil {
			return nil, err
		}
		svc.cfg = cfg
		svc.state = state
	case err != nil:
		return nil, fmt.Errorf("load collection: %w", err)
	default:
		cfg, state, err := fromRecord(record)
		if err != nil {
			return nil, err
		}
		svc.cfg = cfg
		svc.state = state
		if err := svc.replayOwnership(ctx); err != nil {
			return nil, err
		}
	}

	return svc, nil
}

func bootstrap(ctx context.Context, opts Options) (domain.Config, domain.State, error) {
	cfg, err := domain.NewConfig(
		opts.Collection.Name,
		opts.Collection.Symbol,
		opts.Collection.MaxSupply,
		opts.Collection.HiddenURI,
		opts.Collection.Admin,
	)
	if err != nil {
		return domain.Config{}, domain.State{}, err
	}
	state, err := domain.NewState(opts.UnitPrice, opts.Royalty)
	if err != nil {
		return domain.Config{}, domain.State{}, err
	}
	now := opts.Clock().UTC()
	record := toRecord(cfg, state)
	record.CreatedAt = now
	record.UpdatedAt = now
	if err := opts.Store.CreateCollection(ctx, record); err != nil {
		return domain.Config{}, domain.State{}, fmt.Errorf("create collection: %w", err)
	}
	return cfg, state, nil
}

func (s *Service) replayOwnership(ctx context.Context) error {
	pageToken := ""
	for {
		page, err := s.store.ListTokens(ctx, "", 500, pageToken)
		if err != nil {
			return fmt.Errorf("replay tokens: %w", err)
		}
		for _, token := range page.Tokens {
			if err := s.owned.Register(ctx, token.ID, token.Owner); err != nil {
				return fmt.Errorf("replay token %d: %w", token.ID, err)
			}
		}
		if page.NextPageToken == "" {
			return nil
		}
		pageToken = page.NextPageToken
	}
}

// Issue mints quantity sequential tokens to buyer against payment. The whole
// batch succeeds or nothing changes.
func (s *Service) Issue(ctx context.Context, buyer domain.Account, quantity uint64, payment *uint256.Int) (domain.Issuance, error) {
	if buyer.IsZero() {
		return domain.Issuance{}, apperrors.New(apperrors.CodeInvalidArgument, "buyer account is required")
	}
	if payment == nil {
		payment = uint256.NewInt(0)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	issuance, err := domain.PlanIssue(s.cfg, s.state, quantity, payment)
	if err != nil {
		return domain.Issuance{}, err
	}
	next := domain.ApplyIssue(s.state, issuance)

	now := s.clock().UTC()
	tokens := make([]storage.TokenRecord, 0, issuance.Quantity())
	for _, tokenID := range issuance.IDs() {
		tokens = append(tokens, storage.TokenRecord{ID: tokenID, Owner: buyer, IssuedAt: now})
	}
	event, err := s.newEvent(storage.EventIssued, issuance.FirstID, buyer,
		fmt.Sprintf("tokens %d-%d payment %s", issuance.FirstID, issuance.LastID, issuance.Payment.Dec()))
	if err != nil {
		return domain.Issuance{}, err
	}

	record := toRecord(s.cfg, next)
	record.UpdatedAt = now
	if err := s.store.ApplyIssuance(ctx, record, tokens, event); err != nil {
		return domain.Issuance{}, apperrors.Wrap(apperrors.CodeStorageFailure, "persist issuance", err)
	}
	// The batch is durable; the in-memory state and read model must follow
	// even if the caller has gone away.
	s.state = next
	applyCtx := context.WithoutCancel(ctx)
	for _, tokenID := range issuance.IDs() {
		if err := s.owned.Register(applyCtx, tokenID, buyer); err != nil {
			return domain.Issuance{}, apperrors.Wrap(apperrors.CodeTransferFailed, "register ownership", err)
		}
	}
	return issuance, nil
}

// Transfer reassigns an issued token from its current owner to another
// account.
func (s *Service) Transfer(ctx context.Context, tokenID uint64, from, to domain.Account) error {
	if from.IsZero() || to.IsZero() {
		return apperrors.New(apperrors.CodeInvalidArgument, "from and to accounts are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.TokenExists(tokenID) {
		return tokenNotFound(tokenID)
	}
	owner, err := s.owned.OwnerOf(ctx, tokenID)
	if err != nil {
		if errors.Is(err, ownership.ErrNotFound) {
			return tokenNotFound(tokenID)
		}
		return apperrors.Wrap(apperrors.CodeTransferFailed, "resolve owner", err)
	}
	if owner != from {
		return apperrors.WithMetadata(
			apperrors.CodeTokenNotOwned,
			"account does not own token",
			map[string]string{"TokenID": strconv.FormatUint(tokenID, 10)},
		)
	}

	event, err := s.newEvent(storage.EventTransferred, tokenID, from,
		fmt.Sprintf("to %s", to))
	if err != nil {
		return err
	}
	if err := s.store.TransferToken(ctx, tokenID, from, to, event); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return tokenNotFound(tokenID)
		}
		return apperrors.Wrap(apperrors.CodeTransferFailed, "persist transfer", err)
	}
	// The move is durable; the read model must follow even if the caller has
	// gone away.
	if err := s.owned.Transfer(context.WithoutCancel(ctx), tokenID, from, to); err != nil {
		return apperrors.Wrap(apperrors.CodeTransferFailed, "apply transfer", err)
	}
	return nil
}

// MetadataURI resolves the metadata URI for one token.
func (s *Service) MetadataURI(ctx context.Context, tokenID uint64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.MetadataURI(s.cfg, s.state, tokenID)
}

// QuoteRoyalty computes the royalty due on a sale of one token.
func (s *Service) QuoteRoyalty(ctx context.Context, tokenID uint64, salePrice *uint256.Int) (domain.Account, *uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	if salePrice == nil {
		salePrice = uint256.NewInt(0)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.QuoteRoyalty(s.state, tokenID, salePrice)
}

// OwnerOf returns the current owner of an issued token.
func (s *Service) OwnerOf(ctx context.Context, tokenID uint64) (domain.Account, error) {
	s.mu.Lock()
	exists := s.state.TokenExists(tokenID)
	s.mu.Unlock()
	if !exists {
		return "", tokenNotFound(tokenID)
	}
	owner, err := s.owned.OwnerOf(ctx, tokenID)
	if err != nil {
		if errors.Is(err, ownership.ErrNotFound) {
			return "", tokenNotFound(tokenID)
		}
		return "", err
	}
	return owner, nil
}

// Tokens lists issued tokens, optionally filtered by owner.
func (s *Service) Tokens(ctx context.Context, owner domain.Account, pageSize int, pageToken string) (ownership.Page, error) {
	if pageSize <= 0 || pageSize > 500 {
		return ownership.Page{}, apperrors.New(apperrors.CodeInvalidArgument, "page size must be between 1 and 500")
	}
	page, err := s.owned.List(ctx, owner, pageSize, pageToken)
	if err != nil {
		return ownership.Page{}, apperrors.Wrap(apperrors.CodeInvalidArgument, "list tokens", err)
	}
	return page, nil
}

// Events returns the most recent audit entries.
func (s *Service) Events(ctx context.Context, limit int) ([]storage.EventRecord, error) {
	if limit <= 0 || limit > 500 {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "limit must be between 1 and 500")
	}
	return s.store.ListEvents(ctx, limit)
}

// Capabilities returns the feature tags this ledger advertises.
func (s *Service) Capabilities() []string {
	out := make([]string, len(capabilities))
	copy(out, capabilities)
	return out
}

func (s *Service) newEvent(eventType string, tokenID uint64, actor domain.Account, detail string) (storage.EventRecord, error) {
	eventID, err := s.newID()
	if err != nil {
		return storage.EventRecord{}, fmt.Errorf("generate event id: %w", err)
	}
	return storage.EventRecord{
		ID:      eventID,
		Type:    eventType,
		TokenID: tokenID,
		Actor:   actor,
		Detail:  detail,
		At:      s.clock().UTC(),
	}, nil
}

func tokenNotFound(tokenID uint64) error {
	return apperrors.WithMetadata(
		apperrors.CodeTokenNotFound,
		"token does not exist",
		map[string]string{"TokenID": strconv.FormatUint(tokenID, 10)},
	)
}
