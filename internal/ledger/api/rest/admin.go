package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mintworks/ledger/internal/ledger/domain"
	apperrors "github.com/mintworks/ledger/internal/platform/errors"
)

type revealRequest struct {
	URIPrefix string `json:"uri_prefix"`
}

type priceRequest struct {
	UnitPrice string `json:"unit_price"`
}

type royaltyRequest struct {
	Receiver string `json:"receiver"`
	Bps      uint16 `json:"bps"`
}

type withdrawResponse struct {
	ReceiptID string `json:"receipt_id,omitempty"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
}

type eventResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	TokenID uint64 `json:"token_id,omitempty"`
	Actor   string `json:"actor"`
	Detail  string `json:"detail"`
	At      string `json:"at"`
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request, actor domain.Account) {
	var req revealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.New(apperrors.CodeInvalidArgument, "invalid request body"))
		return
	}
	if err := s.svc.Reveal(r.Context(), actor, req.URIPrefix); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"revealed_uri_prefix": req.URIPrefix})
}

func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request, actor domain.Account) {
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.New(apperrors.CodeInvalidArgument, "invalid request body"))
		return
	}
	price, err := parseAmount(req.UnitPrice)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.svc.SetUnitPrice(r.Context(), actor, price); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"unit_price": price.Dec()})
}

func (s *Server) handleSetRoyalty(w http.ResponseWriter, r *http.Request, actor domain.Account) {
	var req royaltyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.New(apperrors.CodeInvalidArgument, "invalid request body"))
		return
	}
	if err := s.svc.SetRoyalty(r.Context(), actor, domain.Account(req.Receiver), req.Bps); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"receiver": req.Receiver, "bps": req.Bps})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request, actor domain.Account) {
	receipt, err := s.svc.Withdraw(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawResponse{
		ReceiptID: receipt.ID,
		To:        string(receipt.To),
		Amount:    receipt.Amount.Dec(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, actor domain.Account) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperrors.New(apperrors.CodeInvalidArgument, "invalid limit"))
			return
		}
		limit = parsed
	}
	events, err := s.svc.Events(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, eventResponse{
			ID:      event.ID,
			Type:    event.Type,
			TokenID: event.TokenID,
			Actor:   string(event.Actor),
			Detail:  event.Detail,
			At:      event.At.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string][]eventResponse{"events": out})
}
