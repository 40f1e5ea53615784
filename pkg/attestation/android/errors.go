package android

import "errors"

var (
	// ErrEmptyChain is returned when the certificate chain has fewer than two certificates.
	ErrEmptyChain = errors.New("android attestation: certificate chain must contain at least two certificates")

	// ErrInvalidCertificateChain is returned when a certificate in the chain does not sign the next one,
	// or has expired relative to the verification time.
	ErrInvalidCertificateChain = errors.New("android attestation: invalid certificate chain")

	// ErrCertificateDecode is returned when a certificate in the chain cannot be parsed.
	ErrCertificateDecode = errors.New("android attestation: could not decode certificate")

	// ErrRootPublicKeyMismatch is returned when the root certificate's public key matches none of the configured roots.
	ErrRootPublicKeyMismatch = errors.New("android attestation: root certificate public key is not trusted")

	// ErrRevokedCertificates is returned when any certificate in the chain appears on the revocation status list.
	ErrRevokedCertificates = errors.New("android attestation: certificate chain contains revoked certificates")

	// ErrNoKeyAttestationExtension is returned when no certificate in the chain carries the key attestation extension.
	ErrNoKeyAttestationExtension = errors.New("android attestation: no key attestation extension found in chain")

	// ErrDuplicateKeyDescription is returned when a certificate carries more than one key attestation extension.
	ErrDuplicateKeyDescription = errors.New("android attestation: certificate carries more than one key attestation extension")

	// ErrKeyAttestationParse is returned when the key attestation extension cannot be parsed as ASN.1.
	ErrKeyAttestationParse = errors.New("android attestation: could not parse key attestation extension")

	// ErrAttestationChallenge is returned when the attestation challenge does not match the expected value.
	ErrAttestationChallenge = errors.New("android attestation: attestation challenge mismatch")

	// ErrAttestationSecurityLevel is returned when the attestation security level does not meet policy.
	ErrAttestationSecurityLevel = errors.New("android attestation: attestation security level does not meet policy")

	// ErrKeyMintSecurityLevel is returned when the KeyMint security level does not meet policy.
	ErrKeyMintSecurityLevel = errors.New("android attestation: key mint security level does not meet policy")
)
