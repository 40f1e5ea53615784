package issuance

import (
	"context"
	"crypto"
	"errors"

	"github.com/eudi-wallet/trustcore/pkg/openid4vci"
	"github.com/eudi-wallet/trustcore/pkg/sessionstore"
)

// BatchRequest is a batch credential request together with the batch-level material
// that is not carried per-credential: the wallet-unit token authorizing the batch and,
// for batches of more than one copy, the proof of association across their keys.
type BatchRequest struct {
	Credentials []openid4vci.CredentialRequest
	WTE         WTE
	PoA         PoA
}

// VerifyBatch verifies every credential request's proof of possession, the batch's
// proof of association, and its wallet-unit token, in that order. A missing PoA or WTE,
// or a detectable WTE replay, is fatal: the wallet must restart issuance rather than
// retry, so these map to ErrInvalidCredentialRequest rather than ErrInvalidProof.
func VerifyBatch(ctx context.Context, req BatchRequest, issuer string, cNonce string, providerKey crypto.PublicKey, tracker sessionstore.WteTracker) error {
	keys := make([]*openid4vci.ProofJWK, 0, len(req.Credentials))
	opts := &openid4vci.VerifyProofOptions{Audience: issuer, CNonce: cNonce}

	for i := range req.Credentials {
		cr := &req.Credentials[i]
		if cr.Proof == nil {
			return &openid4vci.Error{Err: openid4vci.ErrInvalidProof, ErrorDescription: "proof is required"}
		}

		jwk, err := cr.Proof.ExtractJWK()
		if err != nil {
			return &openid4vci.Error{Err: openid4vci.ErrInvalidProof, ErrorDescription: err.Error()}
		}

		pub, err := PublicKey(jwk)
		if err != nil {
			return &openid4vci.Error{Err: openid4vci.ErrInvalidProof, ErrorDescription: err.Error()}
		}

		if err := cr.VerifyProofWithOptions(pub, opts); err != nil {
			return err
		}

		keys = append(keys, jwk)
	}

	if err := VerifyPoA(req.PoA, keys, issuer, cNonce); err != nil {
		return toCredentialError(err)
	}

	if err := VerifyWTE(ctx, req.WTE, providerKey, tracker); err != nil {
		return toCredentialError(err)
	}

	return nil
}

// toCredentialError maps a package sentinel error to the openid4vci fatal error shape.
func toCredentialError(err error) error {
	switch {
	case errors.Is(err, ErrMissingPoA), errors.Is(err, ErrInvalidPoA),
		errors.Is(err, ErrMissingWte), errors.Is(err, ErrInvalidWte), errors.Is(err, ErrWteReplay):
		return &openid4vci.Error{Err: openid4vci.ErrInvalidCredentialRequest, ErrorDescription: err.Error()}
	default:
		return err
	}
}
