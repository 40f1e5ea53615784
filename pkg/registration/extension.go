package registration

import (
	"crypto/x509"
	"encoding/asn1"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ExtensionOID identifies the reader registration extension on a reader
	// authentication certificate.
	// oid: 2.1.123.1, root: {joint-iso-itu-t(2) asn1(1) examples(123)}, suffix 1.
	ExtensionOID = asn1.ObjectIdentifier{2, 1, 123, 1}

	// IssuerExtensionOID identifies the issuer registration extension on an issuer
	// signing certificate.
	// oid: 2.1.123.2, root: {joint-iso-itu-t(2) asn1(1) examples(123)}, suffix 2.
	IssuerExtensionOID = asn1.ObjectIdentifier{2, 1, 123, 2}

	// ErrExtensionNotFound is returned when a certificate carries no registration
	// extension with the requested OID.
	ErrExtensionNotFound = errors.New("registration: certificate carries no registration extension")

	// ErrDuplicateExtension is returned when a certificate carries more than one
	// registration extension with the same OID.
	ErrDuplicateExtension = errors.New("registration: certificate carries more than one registration extension")
)

// extensionPayload extracts and DER-decodes the UTF8String value of the extension
// identified by oid, returning the raw JSON bytes it carries.
func extensionPayload(cert *x509.Certificate, oid asn1.ObjectIdentifier) ([]byte, error) {
	var value []byte
	for _, ext := range cert.Extensions {
		if !ext.Id.Equal(oid) {
			continue
		}
		if value != nil {
			return nil, ErrDuplicateExtension
		}
		value = ext.Value
	}
	if value == nil {
		return nil, ErrExtensionNotFound
	}

	var payload string
	if _, err := asn1.Unmarshal(value, &payload); err != nil {
		return nil, fmt.Errorf("registration: decoding extension UTF8String: %w", err)
	}
	return []byte(payload), nil
}

// ParseReaderRegistration extracts and decodes the ReaderRegistration carried by
// ExtensionOID on cert.
func ParseReaderRegistration(cert *x509.Certificate) (*ReaderRegistration, error) {
	payload, err := extensionPayload(cert, ExtensionOID)
	if err != nil {
		return nil, err
	}
	var reg ReaderRegistration
	if err := json.Unmarshal(payload, &reg); err != nil {
		return nil, fmt.Errorf("registration: decoding reader registration: %w", err)
	}
	return &reg, nil
}

// ParseIssuerRegistration extracts and decodes the IssuerRegistration carried by
// IssuerExtensionOID on cert.
func ParseIssuerRegistration(cert *x509.Certificate) (*IssuerRegistration, error) {
	payload, err := extensionPayload(cert, IssuerExtensionOID)
	if err != nil {
		return nil, err
	}
	var reg IssuerRegistration
	if err := json.Unmarshal(payload, &reg); err != nil {
		return nil, fmt.Errorf("registration: decoding issuer registration: %w", err)
	}
	return &reg, nil
}

// MarshalExtensionValue DER-encodes value as a UTF8String, for embedding as a
// pkix.Extension.Value when minting a reader or issuer certificate.
func MarshalExtensionValue(value any) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("registration: encoding extension payload: %w", err)
	}
	return asn1.Marshal(string(payload))
}
