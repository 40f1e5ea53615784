package disclosure

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwe"
)

// RequestClient fetches a verifier's signed authorization request and delivers the
// wallet's response or error back to it, mirroring the teacher's
// pkg/openid4vp.HttpVpMessageClient from the opposite direction.
type RequestClient interface {
	FetchAuthorizationRequest(ctx context.Context, requestURI string) (jws string, err error)
	SendResponse(ctx context.Context, responseURI string, vpToken, mdocGeneratedNonce string) error
	SendError(ctx context.Context, responseURI string, errorCode string) error
}

// Session drives one disclosure round from request fetch through response delivery.
type Session struct {
	client RequestClient
	store  CredentialStore

	// mdocGeneratedNonce is generated fresh in Run and reused by SessionTranscript
	// so the handover construction and the eventual response are bound to the same
	// session.
	mdocGeneratedNonce string
}

// NewSession creates a Session using client to talk to the verifier and store to
// resolve candidate credentials.
func NewSession(client RequestClient, store CredentialStore) *Session {
	return &Session{client: client, store: store}
}

// Run fetches the request at requestURI, verifies it against expectedClientID,
// matches it against stored credentials and, on success, returns the matched
// Proposal. On any verification or matching failure that the protocol defines an
// error code for, it best-effort reports the error back to the verifier before
// returning.
func (s *Session) Run(ctx context.Context, requestURI, expectedClientID string, verifyRequest func(jws string) (AuthorizationRequest, error)) (*MatchResult, error) {
	nonce, err := newMdocGeneratedNonce()
	if err != nil {
		return nil, fmt.Errorf("disclosure: generate mdoc nonce: %w", err)
	}
	s.mdocGeneratedNonce = nonce

	jws, err := s.client.FetchAuthorizationRequest(ctx, requestURI)
	if err != nil {
		return nil, fmt.Errorf("disclosure: fetch authorization request: %w", err)
	}

	req, err := verifyRequest(jws)
	if err != nil {
		return nil, fmt.Errorf("disclosure: verify authorization request: %w", err)
	}

	if _, err := VerifyAuthorizationRequest(req, expectedClientID); err != nil {
		s.reportError(ctx, req.ResponseURI, "invalid_request")
		return nil, err
	}

	result, err := MatchRequest(ctx, req, s.store)
	if err != nil {
		s.reportError(ctx, req.ResponseURI, "invalid_request")
		return nil, err
	}
	return result, nil
}

// SessionTranscript builds the mdoc session transcript for req using the nonce
// generated by the most recent call to Run.
func (s *Session) SessionTranscript(req AuthorizationRequest) ([]byte, error) {
	return SessionTranscript(req, s.mdocGeneratedNonce)
}

func (s *Session) reportError(ctx context.Context, responseURI, errorCode string) {
	// Best-effort: a failure to report the error back to the verifier must not mask
	// the original error.
	_ = s.client.SendError(ctx, responseURI, errorCode)
}

// EncryptResponse JWE-encrypts vpToken under the verifier's ephemeral response
// encryption key using ECDH-ES with A256GCM content encryption, the scheme an
// OpenID4VP response to an unauthenticated verifier must use.
func EncryptResponse(vpToken []byte, verifierKey *ecdh.PublicKey) ([]byte, error) {
	encrypted, err := jwe.Encrypt(vpToken, jwe.WithKey(jwa.ECDH_ES(), verifierKey), jwe.WithContentEncryption(jwa.A256GCM()))
	if err != nil {
		return nil, fmt.Errorf("disclosure: encrypt response: %w", err)
	}
	return encrypted, nil
}

// newMdocGeneratedNonce returns a fresh random nonce for the OID4VPHandover
// construction, unique to one disclosure session.
func newMdocGeneratedNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", buf), nil
}
