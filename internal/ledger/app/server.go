// Package server wires the ledger runtime and HTTP lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/holiman/uint256"

	"github.com/mintworks/ledger/internal/ledger/api/rest"
	"github.com/mintworks/ledger/internal/ledger/auth"
	"github.com/mintworks/ledger/internal/ledger/domain"
	"github.com/mintworks/ledger/internal/ledger/ownership"
	"github.com/mintworks/ledger/internal/ledger/service"
	ledgersqlite "github.com/mintworks/ledger/internal/ledger/storage/sqlite"
	"github.com/mintworks/ledger/internal/ledger/treasury"
	"github.com/mintworks/ledger/internal/platform/config"
)

type serverEnv struct {
	DBPath string `env:"MINTWORKS_LEDGER_DB_PATH"`

	CollectionName   string `env:"MINTWORKS_COLLECTION_NAME" envDefault:"Mintworks Collection"`
	CollectionSymbol string `env:"MINTWORKS_COLLECTION_SYMBOL" envDefault:"MWC"`
	MaxSupply        uint64 `env:"MINTWORKS_COLLECTION_MAX_SUPPLY" envDefault:"10000"`
	HiddenURI        string `env:"MINTWORKS_COLLECTION_HIDDEN_URI" envDefault:"ipfs://mintworks/hidden.json"`
	Admin            string `env:"MINTWORKS_COLLECTION_ADMIN"`
	UnitPrice        string `env:"MINTWORKS_COLLECTION_UNIT_PRICE" envDefault:"1"`
	RoyaltyReceiver  string `env:"MINTWORKS_COLLECTION_ROYALTY_RECEIVER"`
	RoyaltyBps       uint16 `env:"MINTWORKS_COLLECTION_ROYALTY_BPS" envDefault:"0"`
}

func loadServerEnv() (serverEnv, error) {
	var cfg serverEnv
	if err := config.ParseEnv(&cfg); err != nil {
		return serverEnv{}, err
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "ledger.db")
	}
	if strings.TrimSpace(cfg.Admin) == "" {
		return serverEnv{}, fmt.Errorf("MINTWORKS_COLLECTION_ADMIN is required")
	}
	if strings.TrimSpace(cfg.RoyaltyReceiver) == "" {
		cfg.RoyaltyReceiver = cfg.Admin
	}
	return cfg, nil
}

// Server hosts the ledger HTTP API and storage lifecycle.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *ledgersqlite.Store
}

// New creates a configured ledger server listening on the provided port.
func New(ctx context.Context, port int) (*Server, error) {
	return NewWithAddr(ctx, fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured ledger server for the provided address.
func NewWithAddr(ctx context.Context, addr string) (*Server, error) {
	env, err := loadServerEnv()
	if err != nil {
		return nil, err
	}
	grants, err := auth.LoadGrantConfigFromEnv(time.Now)
	if err != nil {
		return nil, err
	}
	unitPrice, err := uint256.FromDecimal(env.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("parse unit price: %w", err)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	store, err := openLedgerStore(env.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	svc, err := service.New(ctx, service.Options{
		Store:     store,
		Ownership: ownership.NewMemory(),
		Bank:      treasury.NewLocalBank(),
		Collection: domain.Config{
			Name:      env.CollectionName,
			Symbol:    env.CollectionSymbol,
			MaxSupply: env.MaxSupply,
			HiddenURI: env.HiddenURI,
			Admin:     domain.Account(env.Admin),
		},
		UnitPrice: unitPrice,
		Royalty: domain.RoyaltyPolicy{
			Receiver: domain.Account(env.RoyaltyReceiver),
			Bps:      env.RoyaltyBps,
		},
	})
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("initialize ledger service: %w", err)
	}

	httpServer := &http.Server{
		Handler:           rest.NewServer(svc, grants).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		listener:   listener,
		httpServer: httpServer,
		store:      store,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a ledger server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(ctx, port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("ledger server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		err := <-serveErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases ledger server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close ledger store: %v", err)
		}
	}
}

func openLedgerStore(path string) (*ledgersqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := ledgersqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger sqlite store: %w", err)
	}
	return store, nil
}
