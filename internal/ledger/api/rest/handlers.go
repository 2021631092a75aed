package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"github.com/mintworks/ledger/internal/ledger/domain"
	"github.com/mintworks/ledger/internal/ledger/ownership"
	apperrors "github.com/mintworks/ledger/internal/platform/errors"
)

type issueRequest struct {
	Buyer    string `json:"buyer"`
	Quantity uint64 `json:"quantity"`
	Payment  string `json:"payment"`
}

type issueResponse struct {
	FirstID  uint64 `json:"first_id"`
	LastID   uint64 `json:"last_id"`
	Quantity uint64 `json:"quantity"`
	Payment  string `json:"payment"`
}

type transferRequest struct {
	TokenID uint64 `json:"token_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type tokenResponse struct {
	ID    uint64 `json:"id"`
	Owner string `json:"owner"`
}

type tokenPageResponse struct {
	Tokens        []tokenResponse `json:"tokens"`
	NextPageToken string          `json:"next_page_token,omitempty"`
}

type metadataResponse struct {
	TokenID uint64 `json:"token_id"`
	URI     string `json:"uri"`
}

type royaltyResponse struct {
	TokenID  uint64 `json:"token_id"`
	Receiver string `json:"receiver"`
	Amount   string `json:"amount"`
}

type collectionResponse struct {
	Name              string `json:"name"`
	Symbol            string `json:"symbol"`
	MaxSupply         uint64 `json:"max_supply"`
	TotalIssued       uint64 `json:"total_issued"`
	Remaining         uint64 `json:"remaining"`
	UnitPrice         string `json:"unit_price"`
	Revealed          bool   `json:"revealed"`
	RevealedURIPrefix string `json:"revealed_uri_prefix,omitempty"`
	RoyaltyReceiver   string `json:"royalty_receiver"`
	RoyaltyBps        uint16 `json:"royalty_bps"`
	Treasury          string `json:"treasury"`
}

func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.New(apperrors.CodeInvalidArgument, "invalid request body"))
		return
	}
	payment, err := parseAmount(req.Payment)
	if err != nil {
		writeError(w, err)
		return
	}

	issuance, err := s.svc.Issue(r.Context(), domain.Account(req.Buyer), req.Quantity, payment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issueResponse{
		FirstID:  issuance.FirstID,
		LastID:   issuance.LastID,
		Quantity: issuance.Quantity(),
		Payment:  issuance.Payment.Dec(),
	})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.New(apperrors.CodeInvalidArgument, "invalid request body"))
		return
	}
	if err := s.svc.Transfer(r.Context(), req.TokenID, domain.Account(req.From), domain.Account(req.To)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{ID: req.TokenID, Owner: req.To})
}

func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	tokenID, err := parseTokenID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	owner, err := s.svc.OwnerOf(r.Context(), tokenID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{ID: tokenID, Owner: string(owner)})
}

func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pageSize := 50
	if raw := query.Get("page_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperrors.New(apperrors.CodeInvalidArgument, "invalid page size"))
			return
		}
		pageSize = parsed
	}

	page, err := s.svc.Tokens(r.Context(), domain.Account(query.Get("owner")), pageSize, query.Get("page_token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenPage(page))
}

func (s *Server) handleTokenMetadata(w http.ResponseWriter, r *http.Request) {
	tokenID, err := parseTokenID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	uri, err := s.svc.MetadataURI(r.Context(), tokenID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metadataResponse{TokenID: tokenID, URI: uri})
}

func (s *Server) handleRoyaltyQuote(w http.ResponseWriter, r *http.Request) {
	tokenID, err := parseTokenID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	salePrice, err := parseAmount(r.URL.Query().Get("sale_price"))
	if err != nil {
		writeError(w, err)
		return
	}

	receiver, amount, err := s.svc.QuoteRoyalty(r.Context(), tokenID, salePrice)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, royaltyResponse{
		TokenID:  tokenID,
		Receiver: string(receiver),
		Amount:   amount.Dec(),
	})
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	snapshot := s.svc.Collection()
	writeJSON(w, http.StatusOK, collectionResponse{
		Name:              snapshot.Name,
		Symbol:            snapshot.Symbol,
		MaxSupply:         snapshot.MaxSupply,
		TotalIssued:       snapshot.TotalIssued,
		Remaining:         snapshot.Remaining,
		UnitPrice:         snapshot.UnitPrice.Dec(),
		Revealed:          snapshot.Revealed,
		RevealedURIPrefix: snapshot.RevealedURIPrefix,
		RoyaltyReceiver:   string(snapshot.Royalty.Receiver),
		RoyaltyBps:        snapshot.Royalty.Bps,
		Treasury:          snapshot.Treasury.Dec(),
	})
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"capabilities": s.svc.Capabilities()})
}

func toTokenPage(page ownership.Page) tokenPageResponse {
	out := tokenPageResponse{
		Tokens:        make([]tokenResponse, 0, len(page.Tokens)),
		NextPageToken: page.NextPageToken,
	}
	for _, token := range page.Tokens {
		out.Tokens = append(out.Tokens, tokenResponse{ID: token.ID, Owner: string(token.Owner)})
	}
	return out
}

func parseTokenID(r *http.Request) (uint64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	tokenID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperrors.New(apperrors.CodeInvalidArgument, "invalid token id")
	}
	return tokenID, nil
}

func parseAmount(raw string) (*uint256.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uint256.NewInt(0), nil
	}
	amount, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "invalid decimal amount")
	}
	return amount, nil
}
