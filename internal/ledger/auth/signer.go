package auth

import (
	"crypto/ed25519"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mintworks/ledger/internal/ledger/domain"
	"github.com/mintworks/ledger/internal/platform/id"
)

// SignerConfig defines how administrator grants are minted. Only the grant
// tool and tests sign grants; the service never holds the private key.
type SignerConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PrivateKey
	TTL      time.Duration
	Now      func() time.Time
	NewID    func() (string, error)
}

// SignGrant mints a signed administrator grant for the given subject.
func SignGrant(subject domain.Account, cfg SignerConfig) (string, error) {
	if subject.IsZero() {
		return "", fmt.Errorf("grant subject is required")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return "", fmt.Errorf("grant issuer is required")
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		return "", fmt.Errorf("grant audience is required")
	}
	if len(cfg.Key) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("grant signing key must be %d bytes", ed25519.PrivateKeySize)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = id.NewID
	}

	jti, err := cfg.NewID()
	if err != nil {
		return "", fmt.Errorf("generate grant id: %w", err)
	}

	now := cfg.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		Subject:   string(subject),
		Audience:  jwt.ClaimStrings{cfg.Audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        jti,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(cfg.Key)
	if err != nil {
		return "", fmt.Errorf("sign grant: %w", err)
	}
	return signed, nil
}
