package instruction

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
)

// ChallengeRequestPayload is the first message of an instruction round: the wallet asks
// its backend for a single-use challenge to bind the instruction it is about to send.
//
// This payload requests the very challenge that would normally protect an outer
// signature against replay, so it has no server challenge of its own to sign over. In
// its place the wallet id bytes act as a predictable, self-certifying challenge: any
// wallet id mismatch or signature failure is caught the same way a real challenge
// mismatch would be.
type ChallengeRequestPayload struct {
	WalletID        string `json:"wallet_id"`
	SequenceNumber  uint64 `json:"sequence_number"`
	InstructionName string `json:"instruction"`
}

// Verify checks the payload's wallet id against walletID and its sequence number
// against cmp.
func (p ChallengeRequestPayload) Verify(walletID string, cmp SequenceNumberComparison) error {
	if p.WalletID != walletID {
		return ErrWalletIDMismatch
	}
	if !cmp.Verify(p.SequenceNumber) {
		return ErrSequenceNumberMismatch
	}
	return nil
}

// ChallengeRequest is a ChallengeRequestPayload together with the outer device-attested
// signature over its JSON encoding.
type ChallengeRequest struct {
	Payload         ChallengeRequestPayload
	AppleAssertion  *Assertion
	GoogleSignature []byte
}

func marshalPayload(p ChallengeRequestPayload) ([]byte, error) {
	return json.Marshal(p)
}

// SignApple produces a ChallengeRequest signed by an Apple-attested key, using the
// payload's wallet id as the bootstrap challenge.
func SignApple(key *AppleAttestedKey, payload ChallengeRequestPayload) (ChallengeRequest, error) {
	encoded, err := marshalPayload(payload)
	if err != nil {
		return ChallengeRequest{}, fmt.Errorf("instruction: marshal challenge request payload: %w", err)
	}
	assertion, err := key.Sign(encoded)
	if err != nil {
		return ChallengeRequest{}, fmt.Errorf("instruction: sign challenge request: %w", err)
	}
	return ChallengeRequest{Payload: payload, AppleAssertion: &assertion}, nil
}

// SignGoogle produces a ChallengeRequest signed by an Android hardware-backed key.
func SignGoogle(key *GoogleHardwareKey, payload ChallengeRequestPayload) (ChallengeRequest, error) {
	encoded, err := marshalPayload(payload)
	if err != nil {
		return ChallengeRequest{}, fmt.Errorf("instruction: marshal challenge request payload: %w", err)
	}
	sig, err := key.sign(encoded)
	if err != nil {
		return ChallengeRequest{}, fmt.Errorf("instruction: sign challenge request: %w", err)
	}
	return ChallengeRequest{Payload: payload, GoogleSignature: sig}, nil
}

// VerifyApple verifies req against an Apple App Attest public key, the expected
// wallet id, sequence number comparison and previously recorded assertion counter.
func VerifyApple(req ChallengeRequest, pub *ecdsa.PublicKey, appIdentifier string, previousCounter AssertionCounter, walletID string, cmp SequenceNumberComparison) error {
	if req.AppleAssertion == nil {
		return fmt.Errorf("%w: missing apple assertion", ErrSignatureVerification)
	}
	if err := req.Payload.Verify(walletID, cmp); err != nil {
		return err
	}
	encoded, err := marshalPayload(req.Payload)
	if err != nil {
		return fmt.Errorf("instruction: marshal challenge request payload: %w", err)
	}
	return VerifyAssertion(pub, appIdentifier, previousCounter, encoded, *req.AppleAssertion)
}

// VerifyGoogle verifies req against an Android hardware-backed public key, the
// expected wallet id and sequence number comparison.
func VerifyGoogle(req ChallengeRequest, pub *ecdsa.PublicKey, walletID string, cmp SequenceNumberComparison) error {
	if req.GoogleSignature == nil {
		return fmt.Errorf("%w: missing google signature", ErrSignatureVerification)
	}
	if err := req.Payload.Verify(walletID, cmp); err != nil {
		return err
	}
	encoded, err := marshalPayload(req.Payload)
	if err != nil {
		return fmt.Errorf("instruction: marshal challenge request payload: %w", err)
	}
	return verifyECDSA(pub, encoded, req.GoogleSignature)
}
