package issuance

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/eudi-wallet/trustcore/pkg/openid4vci"
)

// generateP256 creates a fresh P-256 key pair and its ProofJWK representation,
// padding coordinates to the curve's byte length the way a real wallet-issued JWK does.
func generateP256(t *testing.T) (*ecdsa.PrivateKey, *openid4vci.ProofJWK) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}

	jwk := &openid4vci.ProofJWK{
		Kty: "EC",
		Crv: "P-256",
		X:   base64.RawURLEncoding.EncodeToString(priv.X.FillBytes(make([]byte, 32))),
		Y:   base64.RawURLEncoding.EncodeToString(priv.Y.FillBytes(make([]byte, 32))),
	}
	return priv, jwk
}

// signProofJWT builds an openid4vci-proof+jwt compact JWT with jwk embedded in its
// header, signed by priv over the given claims.
func signProofJWT(t *testing.T, priv *ecdsa.PrivateKey, jwk *openid4vci.ProofJWK, claims openid4vci.ProofJWTClaims) openid4vci.ProofJWTToken {
	t.Helper()

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodES256, jwtv5.MapClaims{
		"aud":   claims.Aud,
		"iat":   claims.Iat,
		"nonce": claims.Nonce,
	})
	token.Header["typ"] = "openid4vci-proof+jwt"
	token.Header["jwk"] = map[string]any{
		"kty": jwk.Kty,
		"crv": jwk.Crv,
		"x":   jwk.X,
		"y":   jwk.Y,
	}

	signed, err := token.SignedString(priv)
	if err != nil {
		t.Fatalf("signing proof jwt: %v", err)
	}
	return openid4vci.ProofJWTToken(signed)
}

func validClaims(issuer, nonce string) openid4vci.ProofJWTClaims {
	return openid4vci.ProofJWTClaims{Aud: issuer, Iat: time.Now().Unix(), Nonce: nonce}
}

func mustFuture(t *testing.T) time.Time {
	t.Helper()
	return time.Now().Add(time.Hour)
}
