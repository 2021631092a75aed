package service

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/mintworks/ledger/internal/ledger/domain"
	"github.com/mintworks/ledger/internal/ledger/storage"
)

// Snapshot is a read-only view of the collection for callers.
type Snapshot struct {
	Name              string
	Symbol            string
	MaxSupply         uint64
	TotalIssued       uint64
	Remaining         uint64
	UnitPrice         *uint256.Int
	Revealed          bool
	RevealedURIPrefix string
	Royalty           domain.RoyaltyPolicy
	Treasury          *uint256.Int
}

// Collection returns a snapshot of the current collection state.
func (s *Service) Collection() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Name:              s.cfg.Name,
		Symbol:            s.cfg.Symbol,
		MaxSupply:         s.cfg.MaxSupply,
		TotalIssued:       s.state.TotalIssued,
		Remaining:         s.cfg.MaxSupply - s.state.TotalIssued,
		UnitPrice:         s.state.UnitPrice.Clone(),
		Revealed:          s.state.Revealed,
		RevealedURIPrefix: s.state.RevealedURIPrefix,
		Royalty:           s.state.Royalty,
		Treasury:          s.state.Treasury.Clone(),
	}
}

func toRecord(cfg domain.Config, state domain.State) storage.CollectionRecord {
	return storage.CollectionRecord{
		Name:              cfg.Name,
		Symbol:            cfg.Symbol,
		MaxSupply:         cfg.MaxSupply,
		HiddenURI:         cfg.HiddenURI,
		Admin:             string(cfg.Admin),
		UnitPrice:         state.UnitPrice.Dec(),
		TotalIssued:       state.TotalIssued,
		Revealed:          state.Revealed,
		RevealedURIPrefix: state.RevealedURIPrefix,
		RoyaltyReceiver:   string(state.Royalty.Receiver),
		RoyaltyBps:        uint32(state.Royalty.Bps),
		Treasury:          state.Treasury.Dec(),
	}
}

func fromRecord(record storage.CollectionRecord) (domain.Config, domain.State, error) {
	cfg, err := domain.NewConfig(
		record.Name,
		record.Symbol,
		record.MaxSupply,
		record.HiddenURI,
		domain.Account(record.Admin),
	)
	if err != nil {
		return domain.Config{}, domain.State{}, fmt.Errorf("restore config: %w", err)
	}
	unitPrice, err := uint256.FromDecimal(record.UnitPrice)
	if err != nil {
		return domain.Config{}, domain.State{}, fmt.Errorf("restore unit price: %w", err)
	}
	treasury, err := uint256.FromDecimal(record.Treasury)
	if err != nil {
		return domain.Config{}, domain.State{}, fmt.Errorf("restore treasury: %w", err)
	}
	if record.RoyaltyBps > domain.MaxRoyaltyBps {
		return domain.Config{}, domain.State{}, fmt.Errorf("restore royalty: bps %d out of range", record.RoyaltyBps)
	}
	state := domain.State{
		TotalIssued:       record.TotalIssued,
		UnitPrice:         unitPrice,
		Revealed:          record.Revealed,
		RevealedURIPrefix: record.RevealedURIPrefix,
		Royalty: domain.RoyaltyPolicy{
			Receiver: domain.Account(record.RoyaltyReceiver),
			Bps:      uint16(record.RoyaltyBps),
		},
		Treasury: treasury,
	}
	return cfg, state, nil
}
