package issuance

import "errors"

// ErrInvalidPhaseTransition is returned when a Data method is called from a phase it
// does not apply to.
var ErrInvalidPhaseTransition = errors.New("issuance: invalid phase transition")

// ErrMissingPoA is returned when a batch of more than one credential request carries
// no proof-of-association.
var ErrMissingPoA = errors.New("issuance: batch of more than one credential requires a proof of association")

// ErrInvalidPoA is returned when a proof-of-association fails structural, signature,
// or payload verification.
var ErrInvalidPoA = errors.New("issuance: proof of association is invalid")

// ErrMissingWte is returned when a batch credential request carries no wallet-unit
// token.
var ErrMissingWte = errors.New("issuance: missing wallet-unit token")

// ErrInvalidWte is returned when a wallet-unit token fails signature or claim
// verification.
var ErrInvalidWte = errors.New("issuance: wallet-unit token is invalid")

// ErrWteReplay is returned when a wallet-unit token has already been accepted in a
// previous request.
var ErrWteReplay = errors.New("issuance: wallet-unit token has already been used")
