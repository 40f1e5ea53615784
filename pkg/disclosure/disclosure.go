// Package disclosure drives the wallet side of an OpenID4VP presentation: fetching a
// verifier's signed authorization request, checking its reader registration against
// the attributes it asks for, matching those attributes against stored credentials,
// and assembling the encrypted response. It mirrors, from the opposite side, the
// verifier-role plumbing in the teacher's pkg/openid4vp package.
package disclosure

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/eudi-wallet/trustcore/pkg/mdoc"
	"github.com/eudi-wallet/trustcore/pkg/registration"
)

// ErrMultipleCandidates is returned when more than one stored credential satisfies a
// single requested attestation type. The wallet does not yet support letting the user
// pick between candidates, so the session is aborted rather than guessing.
var ErrMultipleCandidates = errors.New("disclosure: multiple candidate credentials for one attestation type")

// ErrClientIDMismatch is returned when the authenticated client_id inside the signed
// authorization request does not match the client_id carried in the request URI that
// started the session.
var ErrClientIDMismatch = errors.New("disclosure: client_id in request does not match request URI")

// ErrMissingReaderRegistration is returned when the verifier's certificate carries no
// reader registration extension at all.
var ErrMissingReaderRegistration = errors.New("disclosure: verifier certificate has no reader registration")

// AttributeRequest names one attestation type and the claim paths a verifier wants
// disclosed from it.
type AttributeRequest struct {
	AttestationType string
	Paths           []registration.Path
}

// AuthorizationRequest is the verified content of a verifier's signed OpenID4VP
// request, after its JWS has been checked against the embedded certificate chain.
type AuthorizationRequest struct {
	ClientID    string
	ResponseURI string
	Nonce       string
	Requests    []AttributeRequest
	Certificate *x509.Certificate
}

// StoredCredential is one credential the wallet holds that can be offered as a
// candidate for a given attestation type.
type StoredCredential struct {
	ID              string
	AttestationType string
	// ClaimPaths lists every claim path the credential can disclose, used to
	// determine whether it satisfies a given AttributeRequest.
	ClaimPaths []registration.Path
}

// CredentialStore is the wallet-side read-only view over stored credentials the
// matching step queries by attestation type.
type CredentialStore interface {
	FindByAttestationType(ctx context.Context, attestationType string) ([]StoredCredential, error)
}

// MissingAttributes reports, per attestation type, the attribute requests no stored
// credential could satisfy.
type MissingAttributes struct {
	ByAttestationType map[string][]registration.Path
}

func (m *MissingAttributes) Error() string {
	return fmt.Sprintf("disclosure: missing attributes for %d attestation type(s)", len(m.ByAttestationType))
}

// MatchResult is the outcome of matching an AuthorizationRequest's attribute requests
// against a CredentialStore: either every attestation type resolved to exactly one
// candidate, or some attributes could not be satisfied at all.
type MatchResult struct {
	Proposal *Proposal
	Missing  *MissingAttributes
}

// Proposal is one candidate credential per requested attestation type, ready to be
// disclosed.
type Proposal struct {
	Candidates map[string]StoredCredential
}

func hasPath(paths []registration.Path, want registration.Path) bool {
	for _, p := range paths {
		if p.String() == want.String() {
			return true
		}
	}
	return false
}

func satisfies(cred StoredCredential, requested []registration.Path) bool {
	for _, want := range requested {
		if !hasPath(cred.ClaimPaths, want) {
			return false
		}
	}
	return true
}

// MatchRequest matches req's attribute requests against store, applying the
// single-candidate rule: an attestation type with more than one satisfying credential
// aborts the whole match with ErrMultipleCandidates rather than picking one.
func MatchRequest(ctx context.Context, req AuthorizationRequest, store CredentialStore) (*MatchResult, error) {
	proposal := &Proposal{Candidates: make(map[string]StoredCredential)}
	missing := &MissingAttributes{ByAttestationType: make(map[string][]registration.Path)}

	for _, ar := range req.Requests {
		stored, err := store.FindByAttestationType(ctx, ar.AttestationType)
		if err != nil {
			return nil, fmt.Errorf("disclosure: look up credentials for %q: %w", ar.AttestationType, err)
		}

		var candidates []StoredCredential
		for _, c := range stored {
			if satisfies(c, ar.Paths) {
				candidates = append(candidates, c)
			}
		}

		switch len(candidates) {
		case 0:
			missing.ByAttestationType[ar.AttestationType] = ar.Paths
		case 1:
			proposal.Candidates[ar.AttestationType] = candidates[0]
		default:
			return nil, fmt.Errorf("%w: attestation type %q", ErrMultipleCandidates, ar.AttestationType)
		}
	}

	if len(missing.ByAttestationType) > 0 {
		return &MatchResult{Missing: missing}, nil
	}
	return &MatchResult{Proposal: proposal}, nil
}

// VerifyAuthorizationRequest checks that req's authenticated client_id matches
// expectedClientID, extracts the verifier's ReaderRegistration from its certificate,
// and verifies every requested attribute is covered by it.
func VerifyAuthorizationRequest(req AuthorizationRequest, expectedClientID string) (*registration.ReaderRegistration, error) {
	if req.ClientID != expectedClientID {
		return nil, ErrClientIDMismatch
	}

	readerReg, err := registration.ParseReaderRegistration(req.Certificate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingReaderRegistration, err)
	}

	attestationRequests := make([]registration.AttestationRequest, 0, len(req.Requests))
	for _, ar := range req.Requests {
		attestationRequests = append(attestationRequests, registration.AttestationRequest{
			AttestationTypes: []string{ar.AttestationType},
			Paths:            ar.Paths,
		})
	}
	if err := registration.VerifyRequestedAttributes(readerReg.AuthorizedAttributes, attestationRequests); err != nil {
		return nil, err
	}
	return readerReg, nil
}

// SessionTranscript builds the mdoc session transcript binding the response to this
// exact authorization request, per ISO 18013-5 with the OpenID4VP handover.
func SessionTranscript(req AuthorizationRequest, mdocGeneratedNonce string) ([]byte, error) {
	handover, err := mdoc.OID4VPHandover(req.ClientID, req.ResponseURI, req.Nonce, mdocGeneratedNonce)
	if err != nil {
		return nil, fmt.Errorf("disclosure: build OID4VPHandover: %w", err)
	}
	return mdoc.BuildSessionTranscript(nil, nil, handover)
}
