package issuance

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/eudi-wallet/trustcore/pkg/openid4vci"
)

// PublicKey decodes jwk into an *ecdsa.PublicKey, the only key type a holder proof of
// possession or proof of association may use.
func PublicKey(jwk *openid4vci.ProofJWK) (*ecdsa.PublicKey, error) {
	if jwk == nil {
		return nil, fmt.Errorf("issuance: jwk is nil")
	}
	if jwk.Kty != "EC" {
		return nil, fmt.Errorf("issuance: unsupported key type %q", jwk.Kty)
	}

	var curve elliptic.Curve
	switch jwk.Crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	default:
		return nil, fmt.Errorf("issuance: unsupported curve %q", jwk.Crv)
	}

	x, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("issuance: decoding jwk x: %w", err)
	}
	y, err := base64.RawURLEncoding.DecodeString(jwk.Y)
	if err != nil {
		return nil, fmt.Errorf("issuance: decoding jwk y: %w", err)
	}

	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(x),
		Y:     new(big.Int).SetBytes(y),
	}, nil
}
