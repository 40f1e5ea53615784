package android

import (
	"encoding/asn1"
	"fmt"
)

// SecurityLevel is the KeyMint security level that enforced a set of authorizations.
type SecurityLevel int

const (
	SecurityLevelSoftware SecurityLevel = iota
	SecurityLevelTrustedEnvironment
	SecurityLevelStrongBox
)

func (l SecurityLevel) String() string {
	switch l {
	case SecurityLevelSoftware:
		return "Software"
	case SecurityLevelTrustedEnvironment:
		return "TrustedEnvironment"
	case SecurityLevelStrongBox:
		return "StrongBox"
	default:
		return fmt.Sprintf("SecurityLevel(%d)", int(l))
	}
}

// KeyPurpose is a Keymaster/KeyMint key purpose value.
type KeyPurpose int

const (
	KeyPurposeEncrypt   KeyPurpose = 0
	KeyPurposeDecrypt   KeyPurpose = 1
	KeyPurposeSign      KeyPurpose = 2
	KeyPurposeVerify    KeyPurpose = 3
	KeyPurposeWrapKey   KeyPurpose = 5
	KeyPurposeAgreeKey  KeyPurpose = 6
	KeyPurposeAttestKey KeyPurpose = 7
)

// Algorithm is a Keymaster/KeyMint key algorithm value.
type Algorithm int

const (
	AlgorithmRSA       Algorithm = 1
	AlgorithmEC        Algorithm = 3
	AlgorithmAES       Algorithm = 32
	AlgorithmTripleDES Algorithm = 33
	AlgorithmHMAC      Algorithm = 128
)

// Digest is a Keymaster/KeyMint digest value.
type Digest int

const (
	DigestNone     Digest = 0
	DigestMD5      Digest = 1
	DigestSHA1     Digest = 2
	DigestSHA2224  Digest = 3
	DigestSHA2256  Digest = 4
	DigestSHA2384  Digest = 5
	DigestSHA2512  Digest = 6
)

// EcCurve is a Keymaster/KeyMint elliptic curve value.
type EcCurve int

const (
	EcCurveP224 EcCurve = 0
	EcCurveP256 EcCurve = 1
	EcCurveP384 EcCurve = 2
	EcCurveP521 EcCurve = 3
)

// KeyOrigin is a Keymaster/KeyMint key origin value.
type KeyOrigin int

const (
	KeyOriginGenerated        KeyOrigin = 0
	KeyOriginDerived          KeyOrigin = 1
	KeyOriginImported         KeyOrigin = 2
	KeyOriginUnknown          KeyOrigin = 3
	KeyOriginSecurelyImported KeyOrigin = 4
)

// VerifiedBootState is the device boot state reported by RootOfTrust.
type VerifiedBootState int

const (
	VerifiedBootStateVerified VerifiedBootState = iota
	VerifiedBootStateSelfSigned
	VerifiedBootStateUnverified
	VerifiedBootStateFailed
)

// RootOfTrust describes the device boot chain captured at key generation time.
type RootOfTrust struct {
	VerifiedBootKey   []byte
	DeviceLocked      bool
	VerifiedBootState VerifiedBootState
	VerifiedBootHash  []byte
}

// OsVersion is the decoded `major*10000 + minor*100 + subminor` OS version field.
type OsVersion struct {
	Major, Minor, SubMinor int
}

func parseOsVersion(raw int) OsVersion {
	return OsVersion{Major: raw / 10000, Minor: (raw / 100) % 100, SubMinor: raw % 100}
}

// PatchLevel is a decoded `YYYYMM` or `YYYYMMDD` patch level field; Day is zero when
// the patch level was reported without a day component.
type PatchLevel struct {
	Year, Month, Day int
}

func parsePatchLevel(raw int) PatchLevel {
	if raw == 0 {
		return PatchLevel{}
	}
	if raw >= 1_00_00_00 {
		return PatchLevel{Year: raw / 10000, Month: (raw / 100) % 100, Day: raw % 100}
	}
	return PatchLevel{Year: raw / 100, Month: raw % 100}
}

// AttestationPackageInfo identifies one APK bundled in the attested application id.
type AttestationPackageInfo struct {
	PackageName string
	Version     int
}

// AttestationApplicationID identifies the application(s) that requested the attested key.
type AttestationApplicationID struct {
	PackageInfoRecords []AttestationPackageInfo
	SignatureDigests   [][]byte
}

// AuthorizationList is the semantic form of a KeyMint AuthorizationList: the subset of
// key authorizations this core inspects when deciding whether to trust an attested key.
type AuthorizationList struct {
	Purpose                  []KeyPurpose
	Algorithm                *Algorithm
	KeySize                  *int
	Digest                   []Digest
	EcCurve                  *EcCurve
	NoAuthRequired           bool
	CreationDateTimeMillis   *int64
	Origin                   *KeyOrigin
	RootOfTrust              *RootOfTrust
	OSVersion                *OsVersion
	OSPatchLevel             *PatchLevel
	AttestationApplicationID *AttestationApplicationID
	VendorPatchLevel         *PatchLevel
	BootPatchLevel           *PatchLevel
}

// KeyAttestation is the semantic form of a KeyDescription: the content of the Android
// Key Attestation certificate extension.
type KeyAttestation struct {
	AttestationVersion       int
	AttestationSecurityLevel SecurityLevel
	KeyMintVersion           int
	KeyMintSecurityLevel     SecurityLevel
	AttestationChallenge     []byte
	UniqueID                 []byte
	SoftwareEnforced         AuthorizationList
	HardwareEnforced         AuthorizationList
}

func intSliceToPurposes(raw []int) []KeyPurpose {
	if raw == nil {
		return nil
	}
	out := make([]KeyPurpose, len(raw))
	for i, v := range raw {
		out[i] = KeyPurpose(v)
	}
	return out
}

func intSliceToDigests(raw []int) []Digest {
	if raw == nil {
		return nil
	}
	out := make([]Digest, len(raw))
	for i, v := range raw {
		out[i] = Digest(v)
	}
	return out
}

func convertAuthorizationList(raw authorizationListASN1) (AuthorizationList, error) {
	list := AuthorizationList{
		Purpose:        intSliceToPurposes(raw.Purpose),
		Digest:         intSliceToDigests(raw.Digest),
		NoAuthRequired: len(raw.NoAuthRequired.FullBytes) > 0,
	}
	if raw.Algorithm != 0 {
		a := Algorithm(raw.Algorithm)
		list.Algorithm = &a
	}
	if raw.KeySize != 0 {
		list.KeySize = &raw.KeySize
	}
	if raw.EcCurve != 0 {
		c := EcCurve(raw.EcCurve)
		list.EcCurve = &c
	}
	if raw.CreationDateTime != 0 {
		list.CreationDateTimeMillis = &raw.CreationDateTime
	}
	if raw.Origin != 0 {
		o := KeyOrigin(raw.Origin)
		list.Origin = &o
	}
	if len(raw.RootOfTrust.VerifiedBootKey) > 0 || len(raw.RootOfTrust.VerifiedBootHash) > 0 {
		list.RootOfTrust = &RootOfTrust{
			VerifiedBootKey:   raw.RootOfTrust.VerifiedBootKey,
			DeviceLocked:      raw.RootOfTrust.DeviceLocked,
			VerifiedBootState: VerifiedBootState(raw.RootOfTrust.VerifiedBootState),
			VerifiedBootHash:  raw.RootOfTrust.VerifiedBootHash,
		}
	}
	if raw.OSVersion != 0 {
		v := parseOsVersion(raw.OSVersion)
		list.OSVersion = &v
	}
	if raw.OSPatchLevel != 0 {
		v := parsePatchLevel(raw.OSPatchLevel)
		list.OSPatchLevel = &v
	}
	if raw.VendorPatchLevel != 0 {
		v := parsePatchLevel(raw.VendorPatchLevel)
		list.VendorPatchLevel = &v
	}
	if raw.BootPatchLevel != 0 {
		v := parsePatchLevel(raw.BootPatchLevel)
		list.BootPatchLevel = &v
	}
	if len(raw.AttestationApplicationID) > 0 {
		var appID attestationApplicationIDASN1
		if _, err := asn1.Unmarshal(raw.AttestationApplicationID, &appID); err != nil {
			return AuthorizationList{}, fmt.Errorf("%w: attestation application id: %v", ErrKeyAttestationParse, err)
		}
		converted := &AttestationApplicationID{SignatureDigests: appID.SignatureDigests}
		for _, pkg := range appID.PackageInfoRecords {
			converted.PackageInfoRecords = append(converted.PackageInfoRecords, AttestationPackageInfo{
				PackageName: string(pkg.PackageName),
				Version:     pkg.Version,
			})
		}
		list.AttestationApplicationID = converted
	}
	return list, nil
}

func contains(haystack []int, needle int) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

// parseKeyAttestation decodes a DER-encoded KeyDescription extension value.
func parseKeyAttestation(der []byte) (*KeyAttestation, error) {
	var raw keyDescriptionASN1
	if _, err := asn1.Unmarshal(der, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyAttestationParse, err)
	}
	software, err := convertAuthorizationList(raw.SoftwareEnforced)
	if err != nil {
		return nil, err
	}
	hardware, err := convertAuthorizationList(raw.HardwareEnforced)
	if err != nil {
		return nil, err
	}
	return &KeyAttestation{
		AttestationVersion:       raw.AttestationVersion,
		AttestationSecurityLevel: SecurityLevel(raw.AttestationSecurityLevel),
		KeyMintVersion:           raw.KeyMintVersion,
		KeyMintSecurityLevel:     SecurityLevel(raw.KeyMintSecurityLevel),
		AttestationChallenge:     raw.AttestationChallenge,
		UniqueID:                 raw.UniqueID,
		SoftwareEnforced:         software,
		HardwareEnforced:         hardware,
	}, nil
}

// Policy controls which security levels this core accepts. AllowEmulatorKeys permits
// keys attested at SecurityLevelSoftware, which real hardware never reports; it exists
// solely so integration tests and emulator-only environments can exercise the rest of
// the pipeline without a StrongBox or TEE.
type Policy struct {
	AllowEmulatorKeys bool
}

// Verify checks the attestation challenge and, unless the policy allows it, rejects
// keys whose attestation or KeyMint security level is Software.
func (a *KeyAttestation) Verify(expectedChallenge []byte, policy Policy) error {
	if !bytesEqual(a.AttestationChallenge, expectedChallenge) {
		return ErrAttestationChallenge
	}
	if !policy.AllowEmulatorKeys {
		if a.AttestationSecurityLevel == SecurityLevelSoftware {
			return fmt.Errorf("%w: %s", ErrAttestationSecurityLevel, a.AttestationSecurityLevel)
		}
		if a.KeyMintSecurityLevel == SecurityLevelSoftware {
			return fmt.Errorf("%w: %s", ErrKeyMintSecurityLevel, a.KeyMintSecurityLevel)
		}
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
