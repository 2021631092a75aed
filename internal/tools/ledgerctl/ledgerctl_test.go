package ledgerctl

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mintworks/ledger/internal/ledger/auth"
)

func TestRunRequiresCommand(t *testing.T) {
	var out strings.Builder
	if err := Run(nil, &out); err == nil {
		t.Fatal("expected error for missing command")
	}
	if !strings.Contains(out.String(), "usage:") {
		t.Fatalf("expected usage output, got %q", out.String())
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	var out strings.Builder
	if err := Run([]string{"frobnicate"}, &out); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestGrantCommandMintsVerifiableGrant(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	t.Setenv("MINTWORKS_ADMIN_GRANT_ISSUER", "mintworks-admin")
	t.Setenv("MINTWORKS_ADMIN_GRANT_AUDIENCE", "ledger")
	t.Setenv("MINTWORKS_ADMIN_GRANT_PRIVATE_KEY", base64.RawStdEncoding.EncodeToString(priv))

	var out strings.Builder
	if err := Run([]string{"grant", "-subject", "acct-admin", "-ttl", "5m"}, &out); err != nil {
		t.Fatalf("grant: %v", err)
	}

	claims, err := auth.VerifyGrant(strings.TrimSpace(out.String()), auth.GrantConfig{
		Issuer:   "mintworks-admin",
		Audience: "ledger",
		Key:      pub,
		Now:      time.Now,
	})
	if err != nil {
		t.Fatalf("verify minted grant: %v", err)
	}
	if claims.Subject != "acct-admin" {
		t.Fatalf("expected subject acct-admin, got %q", claims.Subject)
	}
}

func TestGrantCommandRequiresPrivateKey(t *testing.T) {
	t.Setenv("MINTWORKS_ADMIN_GRANT_ISSUER", "mintworks-admin")
	t.Setenv("MINTWORKS_ADMIN_GRANT_AUDIENCE", "ledger")
	t.Setenv("MINTWORKS_ADMIN_GRANT_PRIVATE_KEY", "")

	var out strings.Builder
	if err := Run([]string{"grant", "-subject", "acct-admin"}, &out); err == nil {
		t.Fatal("expected error for missing private key")
	}
}

func TestCollectionCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/collection" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "Relics", "max_supply": 10})
	}))
	defer server.Close()

	var out strings.Builder
	if err := Run([]string{"collection", "-addr", server.URL}, &out); err != nil {
		t.Fatalf("collection: %v", err)
	}
	if !strings.Contains(out.String(), `"name": "Relics"`) {
		t.Fatalf("expected pretty collection output, got %q", out.String())
	}
}

func TestIssueCommandSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "INSUFFICIENT_PAYMENT"})
	}))
	defer server.Close()

	var out strings.Builder
	err := Run([]string{"issue", "-addr", server.URL, "-buyer", "acct-a", "-quantity", "2", "-payment", "1"}, &out)
	if err == nil {
		t.Fatal("expected error for payment-required response")
	}
	if !strings.Contains(out.String(), "INSUFFICIENT_PAYMENT") {
		t.Fatalf("expected error body in output, got %q", out.String())
	}
}

func TestWithdrawCommandRequiresGrant(t *testing.T) {
	var out strings.Builder
	if err := Run([]string{"withdraw"}, &out); err == nil {
		t.Fatal("expected error for missing grant")
	}
}
