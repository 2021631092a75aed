package ownership

import (
	"context"
	"errors"
	"testing"

	"github.com/mintworks/ledger/internal/ledger/domain"
)

func ownerAccount(s string) domain.Account {
	return domain.Account(s)
}

func TestRegisterAndOwnerOf(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemory()

	if err := ledger.Register(ctx, 1, "acct-a"); err != nil {
		t.Fatalf("register: %v", err)
	}

	owner, err := ledger.OwnerOf(ctx, 1)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if owner != "acct-a" {
		t.Fatalf("expected acct-a, got %q", owner)
	}

	if _, err := ledger.OwnerOf(ctx, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemory()

	if err := ledger.Register(ctx, 1, "acct-a"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := ledger.Register(ctx, 1, "acct-b"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestRegisterRejectsZeroID(t *testing.T) {
	if err := NewMemory().Register(context.Background(), 0, "acct-a"); err == nil {
		t.Fatal("expected error for id 0")
	}
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemory()
	if err := ledger.Register(ctx, 5, "acct-a"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := ledger.Transfer(ctx, 5, "acct-b", "acct-c"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := ledger.Transfer(ctx, 6, "acct-a", "acct-c"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := ledger.Transfer(ctx, 5, "acct-a", "acct-b"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	owner, err := ledger.OwnerOf(ctx, 5)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if owner != "acct-b" {
		t.Fatalf("expected acct-b, got %q", owner)
	}
}

func TestBalanceOf(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemory()
	for id, owner := range map[uint64]string{1: "acct-a", 2: "acct-b", 3: "acct-a"} {
		if err := ledger.Register(ctx, id, ownerAccount(owner)); err != nil {
			t.Fatalf("register %d: %v", id, err)
		}
	}

	balance, err := ledger.BalanceOf(ctx, "acct-a")
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	if balance != 2 {
		t.Fatalf("expected balance 2, got %d", balance)
	}

	balance, err = ledger.BalanceOf(ctx, "acct-x")
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected balance 0, got %d", balance)
	}
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemory()
	for id := uint64(1); id <= 5; id++ {
		owner := ownerAccount("acct-a")
		if id%2 == 0 {
			owner = "acct-b"
		}
		if err := ledger.Register(ctx, id, owner); err != nil {
			t.Fatalf("register %d: %v", id, err)
		}
	}

	page, err := ledger.List(ctx, "", 3, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(page.Tokens))
	}
	if page.Tokens[0].ID != 1 || page.Tokens[2].ID != 3 {
		t.Fatalf("expected ids 1..3, got %+v", page.Tokens)
	}
	if page.NextPageToken != "3" {
		t.Fatalf("expected next page token 3, got %q", page.NextPageToken)
	}

	page, err = ledger.List(ctx, "", 3, page.NextPageToken)
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(page.Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(page.Tokens))
	}
	if page.NextPageToken != "" {
		t.Fatalf("expected final page, got token %q", page.NextPageToken)
	}
}

func TestListByOwner(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemory()
	for id := uint64(1); id <= 4; id++ {
		owner := ownerAccount("acct-a")
		if id > 2 {
			owner = "acct-b"
		}
		if err := ledger.Register(ctx, id, owner); err != nil {
			t.Fatalf("register %d: %v", id, err)
		}
	}

	page, err := ledger.List(ctx, "acct-b", 10, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(page.Tokens))
	}
	for _, token := range page.Tokens {
		if token.Owner != "acct-b" {
			t.Fatalf("expected acct-b tokens only, got %+v", token)
		}
	}
}

func TestListRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemory()

	if _, err := ledger.List(ctx, "", 0, ""); err == nil {
		t.Fatal("expected error for zero page size")
	}
	if _, err := ledger.List(ctx, "", 5, "not-a-number"); err == nil {
		t.Fatal("expected error for malformed page token")
	}
}
