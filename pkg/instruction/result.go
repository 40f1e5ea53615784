package instruction

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// InstructionResultClaims are the JWT claims of a signed instruction result: the
// server's answer to a ChallengeResponse, carrying the decoded instruction outcome of
// type T so the wallet can verify the server actually produced it.
type InstructionResultClaims[T any] struct {
	jwt.RegisteredClaims
	Result T `json:"result"`
}

// SignResult signs an instruction outcome as a JWT using the backend's ECDSA signing
// key, valid for ttl from now.
func SignResult[T any](key *ecdsa.PrivateKey, issuer string, result T, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := InstructionResultClaims[T]{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Result: result,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("instruction: sign instruction result: %w", err)
	}
	return signed, nil
}

// VerifyResult verifies a signed instruction result JWT and returns its claims.
func VerifyResult[T any](tokenString string, pub *ecdsa.PublicKey) (InstructionResultClaims[T], error) {
	var claims InstructionResultClaims[T]
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("instruction: unexpected signing method %q", token.Method.Alg())
		}
		return pub, nil
	})
	if err != nil {
		return claims, fmt.Errorf("%w: %v", ErrSignatureVerification, err)
	}
	return claims, nil
}
