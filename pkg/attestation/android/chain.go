// Package android verifies Android Key Attestation certificate chains per
// https://developer.android.com/privacy-and-security/security-key-attestation.
package android

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"time"
)

// RevocationStatus is the disposition of a certificate on the Android hardware
// attestation revocation status list.
type RevocationStatus string

const (
	RevocationStatusRevoked  RevocationStatus = "REVOKED"
	RevocationStatusSuspended RevocationStatus = "SUSPENDED"
)

// RevocationStatusList mirrors Google's published hardware attestation CRL
// (https://developer.android.com/privacy-and-security/security-key-attestation#certificate_status),
// keyed by certificate serial number.
type RevocationStatusList struct {
	Entries map[string]RevocationStatus
}

// revoked reports whether cert's serial number is flagged as revoked or suspended.
func (l RevocationStatusList) revoked(cert *x509.Certificate) (RevocationStatus, bool) {
	if l.Entries == nil {
		return "", false
	}
	status, ok := l.Entries[cert.SerialNumber.Text(16)]
	return status, ok
}

// RootPublicKey is a trusted Android Key Attestation root public key, configured
// out of band (Google rotates and publishes these independently of any individual
// certificate chain).
type RootPublicKey struct {
	Key crypto.PublicKey
}

func publicKeysEqual(a, b crypto.PublicKey) bool {
	switch ak := a.(type) {
	case *rsa.PublicKey:
		bk, ok := b.(*rsa.PublicKey)
		return ok && ak.Equal(bk)
	case *ecdsa.PublicKey:
		bk, ok := b.(*ecdsa.PublicKey)
		return ok && ak.Equal(bk)
	default:
		return false
	}
}

// Verify performs Android Key Attestation certificate chain verification as described
// in "Verify hardware-backed key pairs with key attestation". The chain must run from
// leaf (index 0) to root (last index) and contain at least two certificates. It checks,
// in order: that the root's public key is one of rootPublicKeys, that every certificate
// in the chain is validly signed by its issuer and unexpired at the given time, that no
// certificate in the chain appears on revocationList, and that at least one certificate
// (searched root-to-leaf, matching the order Google's provisioning step appends the
// extension in) carries a key attestation extension whose challenge and security levels
// satisfy policy. It returns the decoded attestation and the leaf certificate.
func Verify(
	chain []*x509.Certificate,
	rootPublicKeys []RootPublicKey,
	revocationList RevocationStatusList,
	attestationChallenge []byte,
	policy Policy,
	now time.Time,
) (*KeyAttestation, *x509.Certificate, error) {
	if len(chain) < 2 {
		return nil, nil, ErrEmptyChain
	}

	root := chain[len(chain)-1]
	if !rootKeyTrusted(root.PublicKey, rootPublicKeys) {
		return nil, nil, ErrRootPublicKeyMismatch
	}

	if err := verifyChainSignatures(chain, now); err != nil {
		return nil, nil, err
	}

	// Reverse into root-to-leaf order: revocation and extension search both
	// proceed from the root down, per the Android key attestation verification guide.
	rootToLeaf := make([]*x509.Certificate, len(chain))
	for i, cert := range chain {
		rootToLeaf[len(chain)-1-i] = cert
	}

	var revoked []string
	for _, cert := range rootToLeaf {
		if status, ok := revocationList.revoked(cert); ok {
			revoked = append(revoked, fmt.Sprintf("subject=%q serial=%s status=%s", cert.Subject, cert.SerialNumber.Text(16), status))
		}
	}
	if len(revoked) > 0 {
		return nil, nil, fmt.Errorf("%w: %v", ErrRevokedCertificates, revoked)
	}

	var attestation *KeyAttestation
	for _, cert := range rootToLeaf {
		found, err := ParseKeyDescription(cert)
		if err != nil {
			return nil, nil, err
		}
		if found != nil {
			attestation = found
			break
		}
	}
	if attestation == nil {
		return nil, nil, ErrNoKeyAttestationExtension
	}

	if err := attestation.Verify(attestationChallenge, policy); err != nil {
		return nil, nil, err
	}

	return attestation, chain[0], nil
}

func rootKeyTrusted(key crypto.PublicKey, roots []RootPublicKey) bool {
	for _, root := range roots {
		if publicKeysEqual(key, root.Key) {
			return true
		}
	}
	return false
}

// verifyChainSignatures checks that each certificate in chain (leaf-to-root) is signed
// by the next certificate and is valid at the given time; the final element is treated
// as self-signed and is not checked against a further issuer.
func verifyChainSignatures(chain []*x509.Certificate, now time.Time) error {
	for i, cert := range chain {
		if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
			return fmt.Errorf("%w: %s expired or not yet valid", ErrInvalidCertificateChain, cert.Subject)
		}
		issuer := cert
		if i+1 < len(chain) {
			issuer = chain[i+1]
		}
		if err := cert.CheckSignatureFrom(issuer); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCertificateChain, err)
		}
	}
	return nil
}
