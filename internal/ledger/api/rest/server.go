// Package rest exposes the ledger service over a JSON HTTP API.
package rest

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mintworks/ledger/internal/ledger/auth"
	"github.com/mintworks/ledger/internal/ledger/domain"
	"github.com/mintworks/ledger/internal/ledger/service"
	apperrors "github.com/mintworks/ledger/internal/platform/errors"
)

const tracerName = "github.com/mintworks/ledger/internal/ledger/api/rest"

// Server handles HTTP requests against the ledger service.
type Server struct {
	svc    *service.Service
	grants auth.GrantConfig
	tracer trace.Tracer
}

// NewServer returns a Server backed by the given service and grant verifier.
func NewServer(svc *service.Service, grants auth.GrantConfig) *Server {
	return &Server{
		svc:    svc,
		grants: grants,
		tracer: otel.Tracer(tracerName),
	}
}

// Handler returns the routed HTTP handler for the ledger API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/issue", s.trace("issue", s.handleIssue))
	mux.HandleFunc("POST /v1/transfer", s.trace("transfer", s.handleTransfer))
	mux.HandleFunc("GET /v1/tokens", s.trace("list_tokens", s.handleListTokens))
	mux.HandleFunc("GET /v1/tokens/{id}", s.trace("get_token", s.handleGetToken))
	mux.HandleFunc("GET /v1/tokens/{id}/metadata", s.trace("token_metadata", s.handleTokenMetadata))
	mux.HandleFunc("GET /v1/tokens/{id}/royalty", s.trace("royalty_quote", s.handleRoyaltyQuote))
	mux.HandleFunc("GET /v1/collection", s.trace("collection", s.handleCollection))
	mux.HandleFunc("GET /v1/capabilities", s.trace("capabilities", s.handleCapabilities))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("POST /v1/admin/reveal", s.trace("admin_reveal", s.requireGrant(s.handleReveal)))
	mux.HandleFunc("POST /v1/admin/price", s.trace("admin_price", s.requireGrant(s.handleSetPrice)))
	mux.HandleFunc("POST /v1/admin/royalty", s.trace("admin_royalty", s.requireGrant(s.handleSetRoyalty)))
	mux.HandleFunc("POST /v1/admin/withdraw", s.trace("admin_withdraw", s.requireGrant(s.handleWithdraw)))
	mux.HandleFunc("GET /v1/admin/events", s.trace("admin_events", s.requireGrant(s.handleEvents)))

	return mux
}

func (s *Server) trace(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.tracer.Start(r.Context(), "ledger."+name,
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", r.URL.Path),
			),
		)
		defer span.End()
		next(w, r.WithContext(ctx))
	}
}

type grantHandler func(w http.ResponseWriter, r *http.Request, actor domain.Account)

// requireGrant verifies the Bearer administrator grant and passes its subject
// to the wrapped handler. Authorization against the collection administrator
// happens in the service layer.
func (s *Server) requireGrant(next grantHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, apperrors.New(apperrors.CodeUnauthorized, "bearer grant is required"))
			return
		}
		claims, err := auth.VerifyGrant(token, s.grants)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, claims.Subject)
	}
}
