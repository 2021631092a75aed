package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mintworks/ledger/internal/ledger/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRecord() storage.CollectionRecord {
	return storage.CollectionRecord{
		Name:            "Relics",
		Symbol:          "RLC",
		MaxSupply:       100,
		HiddenURI:       "ipfs://relics/hidden.json",
		Admin:           "acct-admin",
		UnitPrice:       "50",
		RoyaltyReceiver: "acct-royalty",
		RoyaltyBps:      500,
		Treasury:        "0",
		CreatedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestCreateAndLoadCollection(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if _, err := store.LoadCollection(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before create, got %v", err)
	}

	record := testRecord()
	if err := store.CreateCollection(ctx, record); err != nil {
		t.Fatalf("create collection: %v", err)
	}

	loaded, err := store.LoadCollection(ctx)
	if err != nil {
		t.Fatalf("load collection: %v", err)
	}
	if loaded.Name != "Relics" || loaded.Symbol != "RLC" {
		t.Fatalf("unexpected collection %+v", loaded)
	}
	if loaded.MaxSupply != 100 || loaded.UnitPrice != "50" {
		t.Fatalf("unexpected collection %+v", loaded)
	}
	if loaded.RoyaltyReceiver != "acct-royalty" || loaded.RoyaltyBps != 500 {
		t.Fatalf("unexpected royalty %+v", loaded)
	}
	if !loaded.CreatedAt.Equal(record.CreatedAt) {
		t.Fatalf("expected created at %v, got %v", record.CreatedAt, loaded.CreatedAt)
	}

	if err := store.CreateCollection(ctx, record); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestApplyIssuance(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	record := testRecord()
	if err := store.CreateCollection(ctx, record); err != nil {
		t.Fatalf("create collection: %v", err)
	}

	record.TotalIssued = 2
	record.Treasury = "100"
	tokens := []storage.TokenRecord{
		{ID: 1, Owner: "acct-buyer", IssuedAt: time.Now().UTC()},
		{ID: 2, Owner: "acct-buyer", IssuedAt: time.Now().UTC()},
	}
	event := storage.EventRecord{
		ID:     "evt-1",
		Type:   storage.EventIssued,
		Actor:  "acct-buyer",
		Detail: "tokens 1-2",
	}
	if err := store.ApplyIssuance(ctx, record, tokens, event); err != nil {
		t.Fatalf("apply issuance: %v", err)
	}

	loaded, err := store.LoadCollection(ctx)
	if err != nil {
		t.Fatalf("load collection: %v", err)
	}
	if loaded.TotalIssued != 2 || loaded.Treasury != "100" {
		t.Fatalf("expected advanced state, got %+v", loaded)
	}

	page, err := store.ListTokens(ctx, "", 10, "")
	if err != nil {
		t.Fatalf("list tokens: %v", err)
	}
	if len(page.Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(page.Tokens))
	}
	if page.Tokens[0].ID != 1 || page.Tokens[1].ID != 2 {
		t.Fatalf("unexpected token ids %+v", page.Tokens)
	}
}

func TestApplyIssuanceRejectsDuplicateToken(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	record := testRecord()
	if err := store.CreateCollection(ctx, record); err != nil {
		t.Fatalf("create collection: %v", err)
	}

	record.TotalIssued = 1
	tokens := []storage.TokenRecord{{ID: 1, Owner: "acct-a"}}
	if err := store.ApplyIssuance(ctx, record, tokens, storage.EventRecord{
		ID: "evt-1", Type: storage.EventIssued, Actor: "acct-a",
	}); err != nil {
		t.Fatalf("apply issuance: %v", err)
	}

	err := store.ApplyIssuance(ctx, record, tokens, storage.EventRecord{
		ID: "evt-2", Type: storage.EventIssued, Actor: "acct-a",
	})
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// The failed transaction must not leave a partial audit entry.
	events, err := store.ListEvents(ctx, 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
}

func TestTransferToken(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	record := testRecord()
	if err := store.CreateCollection(ctx, record); err != nil {
		t.Fatalf("create collection: %v", err)
	}
	record.TotalIssued = 1
	if err := store.ApplyIssuance(ctx, record, []storage.TokenRecord{{ID: 1, Owner: "acct-a"}}, storage.EventRecord{
		ID: "evt-1", Type: storage.EventIssued, Actor: "acct-a",
	}); err != nil {
		t.Fatalf("apply issuance: %v", err)
	}

	err := store.TransferToken(ctx, 1, "acct-b", "acct-c", storage.EventRecord{
		ID: "evt-2", Type: storage.EventTransferred, TokenID: 1, Actor: "acct-b",
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong owner, got %v", err)
	}

	if err := store.TransferToken(ctx, 1, "acct-a", "acct-b", storage.EventRecord{
		ID: "evt-3", Type: storage.EventTransferred, TokenID: 1, Actor: "acct-a",
	}); err != nil {
		t.Fatalf("transfer token: %v", err)
	}

	page, err := store.ListTokens(ctx, "acct-b", 10, "")
	if err != nil {
		t.Fatalf("list tokens: %v", err)
	}
	if len(page.Tokens) != 1 || page.Tokens[0].ID != 1 {
		t.Fatalf("expected token 1 owned by acct-b, got %+v", page.Tokens)
	}
}

func TestListTokensPagination(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	record := testRecord()
	if err := store.CreateCollection(ctx, record); err != nil {
		t.Fatalf("create collection: %v", err)
	}

	record.TotalIssued = 5
	var tokens []storage.TokenRecord
	for id := uint64(1); id <= 5; id++ {
		tokens = append(tokens, storage.TokenRecord{ID: id, Owner: "acct-a"})
	}
	if err := store.ApplyIssuance(ctx, record, tokens, storage.EventRecord{
		ID: "evt-1", Type: storage.EventIssued, Actor: "acct-a",
	}); err != nil {
		t.Fatalf("apply issuance: %v", err)
	}

	page, err := store.ListTokens(ctx, "", 3, "")
	if err != nil {
		t.Fatalf("list tokens: %v", err)
	}
	if len(page.Tokens) != 3 || page.NextPageToken != "3" {
		t.Fatalf("unexpected first page %+v", page)
	}

	page, err = store.ListTokens(ctx, "", 3, page.NextPageToken)
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(page.Tokens) != 2 || page.NextPageToken != "" {
		t.Fatalf("unexpected final page %+v", page)
	}
	if page.Tokens[0].ID != 4 || page.Tokens[1].ID != 5 {
		t.Fatalf("unexpected final page tokens %+v", page.Tokens)
	}
}

func TestSaveStateAppendsEvent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	record := testRecord()
	if err := store.CreateCollection(ctx, record); err != nil {
		t.Fatalf("create collection: %v", err)
	}

	record.Revealed = true
	record.RevealedURIPrefix = "ipfs://relics/meta/"
	if err := store.SaveState(ctx, record, storage.EventRecord{
		ID: "evt-1", Type: storage.EventRevealed, Actor: "acct-admin", Detail: "ipfs://relics/meta/",
	}); err != nil {
		t.Fatalf("save state: %v", err)
	}

	loaded, err := store.LoadCollection(ctx)
	if err != nil {
		t.Fatalf("load collection: %v", err)
	}
	if !loaded.Revealed || loaded.RevealedURIPrefix != "ipfs://relics/meta/" {
		t.Fatalf("expected revealed state, got %+v", loaded)
	}

	events, err := store.ListEvents(ctx, 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 || events[0].Type != storage.EventRevealed {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
