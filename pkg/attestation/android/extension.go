package android

import (
	"crypto/x509"
)

// ParseKeyDescription extracts and decodes the key attestation extension from cert, if
// present. It returns (nil, nil) when the certificate carries no such extension.
func ParseKeyDescription(cert *x509.Certificate) (*KeyAttestation, error) {
	var found []byte
	for _, ext := range cert.Extensions {
		if !ext.Id.Equal(keyAttestationExtensionOID) {
			continue
		}
		if found != nil {
			return nil, ErrDuplicateKeyDescription
		}
		found = ext.Value
	}
	if found == nil {
		return nil, nil
	}
	return parseKeyAttestation(found)
}
