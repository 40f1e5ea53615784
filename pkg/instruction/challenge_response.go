package instruction

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
)

// ChallengeResponsePayload carries the actual instruction of type T, once the wallet
// has obtained a server challenge in response to a ChallengeRequest.
type ChallengeResponsePayload[T any] struct {
	Challenge       []byte `json:"challenge"`
	SequenceNumber  uint64 `json:"sequence_number"`
	InstructionName string `json:"instruction"`
	Instruction     T      `json:"payload"`
}

// Verify checks the payload's challenge against the server-issued challenge and its
// sequence number against cmp.
func (p ChallengeResponsePayload[T]) Verify(challenge []byte, cmp SequenceNumberComparison) error {
	if !bytesEqual(p.Challenge, challenge) {
		return ErrChallengeMismatch
	}
	if !cmp.Verify(p.SequenceNumber) {
		return ErrSequenceNumberMismatch
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// innerSignedPayload is the PIN-derived signature wrapping a ChallengeResponsePayload,
// the inner layer of the two-layer instruction protocol.
type innerSignedPayload struct {
	Payload   json.RawMessage `json:"payload"`
	Signature []byte          `json:"signature"`
}

// ChallengeResponse is the two-layer signed instruction message: an outer
// device-attested signature wraps an inner PIN-key signature over the
// ChallengeResponsePayload.
type ChallengeResponse[T any] struct {
	Inner           innerSignedPayload
	AppleAssertion  *Assertion
	GoogleSignature []byte
}

func signInner(pinKey *ecdsa.PrivateKey, payload any) (innerSignedPayload, []byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return innerSignedPayload{}, nil, fmt.Errorf("instruction: marshal challenge response payload: %w", err)
	}
	sig, err := (&GoogleHardwareKey{Private: pinKey}).sign(encoded)
	if err != nil {
		return innerSignedPayload{}, nil, fmt.Errorf("instruction: sign inner challenge response payload: %w", err)
	}
	inner := innerSignedPayload{Payload: json.RawMessage(encoded), Signature: sig}
	outer, err := json.Marshal(inner)
	if err != nil {
		return innerSignedPayload{}, nil, fmt.Errorf("instruction: marshal inner signed payload: %w", err)
	}
	return inner, outer, nil
}

// SignResponseApple produces a ChallengeResponse for an Apple-attested wallet: the
// payload is first signed by the PIN-derived key, then the resulting inner envelope is
// signed again by the App Attest key.
func SignResponseApple[T any](outerKey *AppleAttestedKey, pinKey *ecdsa.PrivateKey, payload ChallengeResponsePayload[T]) (ChallengeResponse[T], error) {
	inner, encodedInner, err := signInner(pinKey, payload)
	if err != nil {
		return ChallengeResponse[T]{}, err
	}
	assertion, err := outerKey.Sign(encodedInner)
	if err != nil {
		return ChallengeResponse[T]{}, fmt.Errorf("instruction: sign outer challenge response: %w", err)
	}
	return ChallengeResponse[T]{Inner: inner, AppleAssertion: &assertion}, nil
}

// SignResponseGoogle produces a ChallengeResponse for an Android wallet.
func SignResponseGoogle[T any](outerKey *GoogleHardwareKey, pinKey *ecdsa.PrivateKey, payload ChallengeResponsePayload[T]) (ChallengeResponse[T], error) {
	inner, encodedInner, err := signInner(pinKey, payload)
	if err != nil {
		return ChallengeResponse[T]{}, err
	}
	sig, err := outerKey.sign(encodedInner)
	if err != nil {
		return ChallengeResponse[T]{}, fmt.Errorf("instruction: sign outer challenge response: %w", err)
	}
	return ChallengeResponse[T]{Inner: inner, GoogleSignature: sig}, nil
}

func verifyInnerAndExtract[T any](inner innerSignedPayload, pinPub *ecdsa.PublicKey, challenge []byte, cmp SequenceNumberComparison) (ChallengeResponsePayload[T], error) {
	var payload ChallengeResponsePayload[T]
	if err := verifyECDSA(pinPub, inner.Payload, inner.Signature); err != nil {
		return payload, fmt.Errorf("%w: inner pin signature", err)
	}
	if err := json.Unmarshal(inner.Payload, &payload); err != nil {
		return payload, fmt.Errorf("instruction: unmarshal challenge response payload: %w", err)
	}
	if err := payload.Verify(challenge, cmp); err != nil {
		return payload, err
	}
	return payload, nil
}

// VerifyResponseApple verifies resp's outer App Attest assertion and inner PIN-key
// signature, and returns the decoded instruction payload once both layers and the
// challenge and sequence number checks pass.
func VerifyResponseApple[T any](resp ChallengeResponse[T], outerPub *ecdsa.PublicKey, appIdentifier string, previousCounter AssertionCounter, pinPub *ecdsa.PublicKey, challenge []byte, cmp SequenceNumberComparison) (ChallengeResponsePayload[T], error) {
	var zero ChallengeResponsePayload[T]
	if resp.AppleAssertion == nil {
		return zero, fmt.Errorf("%w: missing apple assertion", ErrSignatureVerification)
	}
	encodedInner, err := json.Marshal(resp.Inner)
	if err != nil {
		return zero, fmt.Errorf("instruction: marshal inner signed payload: %w", err)
	}
	if err := VerifyAssertion(outerPub, appIdentifier, previousCounter, encodedInner, *resp.AppleAssertion); err != nil {
		return zero, err
	}
	return verifyInnerAndExtract[T](resp.Inner, pinPub, challenge, cmp)
}

// VerifyResponseGoogle verifies resp's outer hardware-backed signature and inner
// PIN-key signature, and returns the decoded instruction payload.
func VerifyResponseGoogle[T any](resp ChallengeResponse[T], outerPub *ecdsa.PublicKey, pinPub *ecdsa.PublicKey, challenge []byte, cmp SequenceNumberComparison) (ChallengeResponsePayload[T], error) {
	var zero ChallengeResponsePayload[T]
	if resp.GoogleSignature == nil {
		return zero, fmt.Errorf("%w: missing google signature", ErrSignatureVerification)
	}
	encodedInner, err := json.Marshal(resp.Inner)
	if err != nil {
		return zero, fmt.Errorf("instruction: marshal inner signed payload: %w", err)
	}
	if err := verifyECDSA(outerPub, encodedInner, resp.GoogleSignature); err != nil {
		return zero, err
	}
	return verifyInnerAndExtract[T](resp.Inner, pinPub, challenge, cmp)
}
