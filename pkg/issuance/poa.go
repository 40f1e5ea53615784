package issuance

import (
	"fmt"

	"github.com/eudi-wallet/trustcore/pkg/openid4vci"
)

// PoA is a proof of association: one compact JWT per key in a credential batch, every
// JWT sharing the same aud/nonce payload, together attesting that all keys in the
// batch are held by the same wallet instance. A PoA is required only when a batch
// requests more than one credential copy, since a lone key needs nothing to associate
// itself with.
type PoA []openid4vci.ProofJWTToken

// VerifyPoA checks that poa carries exactly one signature per entry of keys, each
// verifying against its corresponding key and sharing issuer as audience and cNonce as
// the session nonce. Batches of one key or fewer need no PoA and always pass.
func VerifyPoA(poa PoA, keys []*openid4vci.ProofJWK, issuer, cNonce string) error {
	if len(keys) <= 1 {
		return nil
	}
	if len(poa) == 0 {
		return ErrMissingPoA
	}
	if len(poa) != len(keys) {
		return ErrInvalidPoA
	}

	opts := &openid4vci.VerifyProofOptions{Audience: issuer, CNonce: cNonce}
	matched := make([]bool, len(keys))

	for _, token := range poa {
		jwk, err := token.ExtractJWK()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPoA, err)
		}

		idx := indexOfKey(keys, jwk)
		if idx < 0 || matched[idx] {
			return ErrInvalidPoA
		}

		pub, err := PublicKey(jwk)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPoA, err)
		}
		if err := token.Verify(pub, opts); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPoA, err)
		}
		matched[idx] = true
	}

	for _, ok := range matched {
		if !ok {
			return ErrInvalidPoA
		}
	}
	return nil
}

func indexOfKey(keys []*openid4vci.ProofJWK, jwk *openid4vci.ProofJWK) int {
	for i, k := range keys {
		if k.Kty == jwk.Kty && k.Crv == jwk.Crv && k.X == jwk.X && k.Y == jwk.Y {
			return i
		}
	}
	return -1
}
