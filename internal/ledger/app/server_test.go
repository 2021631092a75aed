package server

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
)

func setServerEnv(t *testing.T) {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	t.Setenv("MINTWORKS_LEDGER_DB_PATH", filepath.Join(t.TempDir(), "ledger.db"))
	t.Setenv("MINTWORKS_COLLECTION_NAME", "Relics")
	t.Setenv("MINTWORKS_COLLECTION_SYMBOL", "RLC")
	t.Setenv("MINTWORKS_COLLECTION_MAX_SUPPLY", "10")
	t.Setenv("MINTWORKS_COLLECTION_HIDDEN_URI", "ipfs://relics/hidden.json")
	t.Setenv("MINTWORKS_COLLECTION_ADMIN", "acct-admin")
	t.Setenv("MINTWORKS_COLLECTION_UNIT_PRICE", "50")
	t.Setenv("MINTWORKS_ADMIN_GRANT_ISSUER", "mintworks-admin")
	t.Setenv("MINTWORKS_ADMIN_GRANT_AUDIENCE", "ledger")
	t.Setenv("MINTWORKS_ADMIN_GRANT_PUBLIC_KEY", base64.RawStdEncoding.EncodeToString(pub))
}

func TestNewWithAddrServesCollection(t *testing.T) {
	setServerEnv(t)

	server, err := NewWithAddr(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer server.Close()
	if server.Addr() == "" {
		t.Fatal("expected listener address")
	}

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(ctx) }()

	resp, err := http.Get("http://" + server.Addr() + "/v1/collection")
	if err != nil {
		t.Fatalf("get collection: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["name"] != "Relics" {
		t.Fatalf("unexpected collection %+v", body)
	}

	cancel()
	if err := <-serveErr; err != nil {
		t.Fatalf("serve: %v", err)
	}
}

func TestNewWithAddrRequiresAdmin(t *testing.T) {
	setServerEnv(t)
	t.Setenv("MINTWORKS_COLLECTION_ADMIN", "")

	if _, err := NewWithAddr(context.Background(), "127.0.0.1:0"); err == nil {
		t.Fatal("expected error for missing admin")
	}
}
