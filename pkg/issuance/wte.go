package issuance

import (
	"context"
	"crypto"
	"fmt"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/eudi-wallet/trustcore/pkg/sessionstore"
)

// WTE is a wallet-unit token: a JWT issued by the wallet provider to one wallet
// instance ahead of issuance, presented alongside a batch credential request and
// accepted at most once.
type WTE string

// VerifyWTE checks wte's signature against the wallet provider's public key and
// records it in tracker so a later request presenting the same token is rejected as a
// replay.
func VerifyWTE(ctx context.Context, wte WTE, providerKey crypto.PublicKey, tracker sessionstore.WteTracker) error {
	if wte == "" {
		return ErrMissingWte
	}

	claims := jwtv5.MapClaims{}
	token, err := jwtv5.ParseWithClaims(string(wte), claims, func(token *jwtv5.Token) (any, error) {
		switch token.Method.(type) {
		case *jwtv5.SigningMethodECDSA, *jwtv5.SigningMethodRSA, *jwtv5.SigningMethodRSAPSS, *jwtv5.SigningMethodEd25519:
		default:
			return nil, fmt.Errorf("unsupported signing method: %v", token.Header["alg"])
		}
		return providerKey, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWte, err)
	}
	if !token.Valid {
		return ErrInvalidWte
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fmt.Errorf("%w: missing exp claim", ErrInvalidWte)
	}

	accepted, err := tracker.Track(ctx, sessionstore.HashWte(string(wte)), exp.Time)
	if err != nil {
		return fmt.Errorf("issuance: tracking wte: %w", err)
	}
	if !accepted {
		return ErrWteReplay
	}

	return nil
}
