// Package issuance drives the issuer side of an OpenID4VCI batch credential request:
// proof-of-possession verification per credential, proof-of-association verification
// across a batch, wallet-unit token single-use acceptance, and the session state
// machine a token request moves through on its way to issued credentials.
package issuance

import (
	"time"

	"github.com/eudi-wallet/trustcore/pkg/sessionstore"
)

// Phase is the issuance session's position in its state machine.
type Phase int

const (
	// Created is the initial phase, immediately after a credential offer is
	// generated but before the wallet has presented a token request.
	Created Phase = iota
	// TokenRequested is entered once the wallet has presented a signed token
	// request and the issuer has returned an access token and c_nonce.
	TokenRequested
	// AwaitingAttestations is entered once the wallet has fetched attribute
	// previews and is expected to return a batch of credential requests.
	AwaitingAttestations
	// Finished is the terminal phase; Outcome distinguishes success from failure.
	Finished
)

// Outcome records why a Finished session ended, meaningful only when Phase is
// Finished.
type Outcome int

const (
	// OutcomeNone applies to sessions that have not yet finished.
	OutcomeNone Outcome = iota
	// OutcomeSuccess means every requested credential was issued.
	OutcomeSuccess
	// OutcomeFailure means the session was aborted, e.g. on PoA/WTE rejection.
	OutcomeFailure
)

// Data is the protocol state carried inside a sessionstore.SessionState for one
// issuance session. It satisfies sessionstore.HasProgress and sessionstore.Expirable
// so MemoryStore's Cleanup can manage its lifecycle without protocol-specific code.
type Data struct {
	Phase          Phase
	Outcome        Outcome
	CNonce         string
	IssuerURL      string
	CredentialType string
	CopyCount      int
	ExpiresAt      time.Time
}

// Progress reports Active for every phase before Finished, satisfying
// sessionstore.HasProgress.
func (d Data) Progress() sessionstore.Progress {
	if d.Phase == Finished {
		return sessionstore.Finished
	}
	return sessionstore.Active
}

// HasSucceeded reports whether a Finished session ended in OutcomeSuccess.
func (d Data) HasSucceeded() bool {
	return d.Outcome == OutcomeSuccess
}

// HasExpired reports whether ExpiresAt has passed, satisfying sessionstore.Expirable
// so a session that outlives its offer is swept up by Cleanup even if the wallet never
// returns.
func (d Data) HasExpired() bool {
	return !d.ExpiresAt.IsZero() && time.Now().After(d.ExpiresAt)
}

// AcceptTokenRequest moves d from Created to TokenRequested, recording the c_nonce
// issued in the token response.
func (d Data) AcceptTokenRequest(cNonce string) (Data, error) {
	if d.Phase != Created {
		return d, ErrInvalidPhaseTransition
	}
	d.Phase = TokenRequested
	d.CNonce = cNonce
	return d, nil
}

// Advance moves d from TokenRequested to AwaitingAttestations. It is an error to call
// it from any other phase, since the state machine only ever moves forward.
func (d Data) Advance() (Data, error) {
	if d.Phase != TokenRequested {
		return d, ErrInvalidPhaseTransition
	}
	d.Phase = AwaitingAttestations
	return d, nil
}

// Finish moves d to Finished with the given outcome, from any non-terminal phase.
func (d Data) Finish(outcome Outcome) (Data, error) {
	if d.Phase == Finished {
		return d, ErrInvalidPhaseTransition
	}
	d.Phase = Finished
	d.Outcome = outcome
	return d, nil
}
