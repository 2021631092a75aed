package domain

import (
	"strconv"

	"github.com/holiman/uint256"

	apperrors "github.com/mintworks/ledger/internal/platform/errors"
)

// MetadataURI resolves the metadata location for an issued token. Before the
// reveal every token shares the hidden URI verbatim; after it the URI is the
// revealed prefix, the decimal token id and a ".json" suffix.
func MetadataURI(cfg Config, s State, id uint64) (string, error) {
	if !s.TokenExists(id) {
		return "", tokenNotFound(id)
	}
	if !s.Revealed {
		return cfg.HiddenURI, nil
	}
	return s.RevealedURIPrefix + strconv.FormatUint(id, 10) + ".json", nil
}

// QuoteRoyalty computes the advisory secondary-sale fee for an issued token:
// floor(salePrice * bps / 10000), evaluated with a 512-bit intermediate so
// the product cannot wrap. The ledger never enforces payment of the quote.
func QuoteRoyalty(s State, id uint64, salePrice *uint256.Int) (Account, *uint256.Int, error) {
	if !s.TokenExists(id) {
		return "", nil, tokenNotFound(id)
	}
	if salePrice == nil {
		return "", nil, apperrors.New(apperrors.CodeInvalidArgument, "sale price is required")
	}

	amount, overflow := new(uint256.Int).MulDivOverflow(salePrice, uint256.NewInt(uint64(s.Royalty.Bps)), uint256.NewInt(MaxRoyaltyBps))
	if overflow {
		// Unreachable while bps <= 10000; kept as a guard on the invariant.
		return "", nil, apperrors.New(apperrors.CodeRoyaltyOutOfRange, "royalty amount exceeds representable amount")
	}
	return s.Royalty.Receiver, amount, nil
}

func tokenNotFound(id uint64) error {
	return apperrors.WithMetadata(apperrors.CodeTokenNotFound, "token does not exist", map[string]string{
		"token_id": strconv.FormatUint(id, 10),
	})
}
