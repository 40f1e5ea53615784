package instruction

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// GoogleHardwareKey signs outer instruction messages with an Android
// hardware-backed ECDSA key, whose attestation was already verified once at
// registration time by pkg/attestation/android.
type GoogleHardwareKey struct {
	Private *ecdsa.PrivateKey
}

func (k *GoogleHardwareKey) sign(message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	return ecdsa.SignASN1(rand.Reader, k.Private, digest[:])
}

func verifyECDSA(pub *ecdsa.PublicKey, message, signature []byte) error {
	digest := sha256.Sum256(message)
	if !ecdsa.VerifyASN1(pub, digest[:], signature) {
		return ErrSignatureVerification
	}
	return nil
}

// AssertionCounter is the Apple App Attest assertion counter: a per-key monotonic
// counter the Secure Enclave increments on every assertion, which this core tracks to
// reject replayed assertions.
type AssertionCounter uint32

// Assertion is the outer signature produced by an Apple-attested key: a signature over
// the authenticated application identifier, the post-increment counter, and the
// message, standing in for the CBOR-encoded App Attest assertion structure.
type Assertion struct {
	Counter   AssertionCounter
	Signature []byte
}

// AppleAttestedKey signs outer instruction messages with an Apple App Attest key.
// Counter starts at zero and is incremented by the Secure Enclave on every assertion;
// AppIdentifier is the Team ID and bundle ID pair ("TEAMID.bundle.id") bound into the
// attestation at enrollment time.
type AppleAttestedKey struct {
	Private       *ecdsa.PrivateKey
	AppIdentifier string
	Counter       AssertionCounter
}

func assertionDigest(appIdentifier string, counter AssertionCounter, message []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(appIdentifier))
	var counterBytes [4]byte
	binary.BigEndian.PutUint32(counterBytes[:], uint32(counter))
	h.Write(counterBytes[:])
	h.Write(message)
	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// Sign increments the key's counter and produces an assertion over message.
func (k *AppleAttestedKey) Sign(message []byte) (Assertion, error) {
	k.Counter++
	digest := assertionDigest(k.AppIdentifier, k.Counter, message)
	sig, err := ecdsa.SignASN1(rand.Reader, k.Private, digest[:])
	if err != nil {
		return Assertion{}, err
	}
	return Assertion{Counter: k.Counter, Signature: sig}, nil
}

// VerifyAssertion checks assertion against message, the app identifier, the verifying
// key and the previously recorded counter, returning ErrAssertionCounterReplay if the
// assertion's counter does not strictly exceed previousCounter.
func VerifyAssertion(pub *ecdsa.PublicKey, appIdentifier string, previousCounter AssertionCounter, message []byte, assertion Assertion) error {
	if assertion.Counter <= previousCounter {
		return ErrAssertionCounterReplay
	}
	digest := assertionDigest(appIdentifier, assertion.Counter, message)
	if !ecdsa.VerifyASN1(pub, digest[:], assertion.Signature) {
		return fmt.Errorf("%w: apple assertion", ErrSignatureVerification)
	}
	return nil
}
