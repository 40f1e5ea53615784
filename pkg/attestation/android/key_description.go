package android

import "encoding/asn1"

// KEY_ATTESTATION_EXTENSION_OID identifies the Android Key Attestation certificate
// extension carrying the DER-encoded KeyDescription sequence.
// https://developer.android.com/privacy-and-security/security-key-attestation
var keyAttestationExtensionOID = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11129, 2, 1, 17}

// rootOfTrustASN1 mirrors the KeyMint RootOfTrust ASN.1 sequence.
type rootOfTrustASN1 struct {
	VerifiedBootKey   []byte
	DeviceLocked      bool
	VerifiedBootState asn1.Enumerated
	VerifiedBootHash  []byte
}

// authorizationListASN1 mirrors the subset of the KeyMint AuthorizationList sequence
// exercised by wallet attestation policy: purpose, algorithm, key size, digest, curve,
// no-auth-required, creation time, origin, root of trust, OS version/patch, application
// id and vendor/boot patch levels. Fields this core never inspects (padding, RSA public
// exponent, user-auth-type, rollback resistance, and the per-device identifiers gated
// behind the Android `DEVICE_UNIQUE_ATTESTATION` purpose) are intentionally omitted.
type authorizationListASN1 struct {
	Purpose                   []int           `asn1:"optional,explicit,tag:1,set"`
	Algorithm                 int             `asn1:"optional,explicit,tag:2"`
	KeySize                   int             `asn1:"optional,explicit,tag:3"`
	Digest                    []int           `asn1:"optional,explicit,tag:5,set"`
	EcCurve                   int             `asn1:"optional,explicit,tag:10"`
	NoAuthRequired            asn1.RawValue   `asn1:"optional,explicit,tag:503"`
	CreationDateTime          int64           `asn1:"optional,explicit,tag:701"`
	Origin                    int             `asn1:"optional,explicit,tag:702"`
	RootOfTrust               rootOfTrustASN1 `asn1:"optional,explicit,tag:704"`
	OSVersion                 int             `asn1:"optional,explicit,tag:705"`
	OSPatchLevel              int             `asn1:"optional,explicit,tag:706"`
	AttestationApplicationID  []byte          `asn1:"optional,explicit,tag:709"`
	VendorPatchLevel          int             `asn1:"optional,explicit,tag:718"`
	BootPatchLevel            int             `asn1:"optional,explicit,tag:719"`
}

// keyDescriptionASN1 mirrors the top-level KeyDescription ASN.1 sequence carried by
// keyAttestationExtensionOID.
type keyDescriptionASN1 struct {
	AttestationVersion       int
	AttestationSecurityLevel asn1.Enumerated
	KeyMintVersion           int
	KeyMintSecurityLevel     asn1.Enumerated
	AttestationChallenge     []byte
	UniqueID                 []byte
	SoftwareEnforced         authorizationListASN1
	HardwareEnforced         authorizationListASN1
}

// attestationPackageInfoASN1 mirrors a single AttestationPackageInfo entry.
type attestationPackageInfoASN1 struct {
	PackageName []byte
	Version     int
}

// attestationApplicationIDASN1 mirrors the AttestationApplicationId sequence nested
// inside AuthorizationList.AttestationApplicationID.
type attestationApplicationIDASN1 struct {
	PackageInfoRecords []attestationPackageInfoASN1 `asn1:"set"`
	SignatureDigests   [][]byte                     `asn1:"set"`
}
