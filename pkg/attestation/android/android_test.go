package android

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseOsVersionAndPatchLevel(t *testing.T) {
	require.Equal(t, OsVersion{Major: 13, Minor: 0, SubMinor: 0}, parseOsVersion(130000))
	require.Equal(t, PatchLevel{Year: 2024, Month: 3}, parsePatchLevel(202403))
	require.Equal(t, PatchLevel{Year: 2024, Month: 3, Day: 1}, parsePatchLevel(20240301))
	require.Equal(t, PatchLevel{}, parsePatchLevel(0))
}

func TestKeyAttestationVerify(t *testing.T) {
	attestation := &KeyAttestation{
		AttestationChallenge:     []byte("challenge"),
		AttestationSecurityLevel: SecurityLevelTrustedEnvironment,
		KeyMintSecurityLevel:     SecurityLevelTrustedEnvironment,
	}

	require.NoError(t, attestation.Verify([]byte("challenge"), Policy{}))

	t.Run("challenge mismatch", func(t *testing.T) {
		require.ErrorIs(t, attestation.Verify([]byte("other"), Policy{}), ErrAttestationChallenge)
	})

	t.Run("software attestation level rejected by default", func(t *testing.T) {
		soft := *attestation
		soft.AttestationSecurityLevel = SecurityLevelSoftware
		require.ErrorIs(t, soft.Verify([]byte("challenge"), Policy{}), ErrAttestationSecurityLevel)
		require.NoError(t, soft.Verify([]byte("challenge"), Policy{AllowEmulatorKeys: true}))
	})

	t.Run("software keymint level rejected by default", func(t *testing.T) {
		soft := *attestation
		soft.KeyMintSecurityLevel = SecurityLevelSoftware
		require.ErrorIs(t, soft.Verify([]byte("challenge"), Policy{}), ErrKeyMintSecurityLevel)
	})
}

// buildKeyDescriptionDER marshals a minimal but structurally valid KeyDescription
// extension value, mirroring what an Android KeyMint implementation embeds.
func buildKeyDescriptionDER(t *testing.T, challenge []byte, securityLevel asn1.Enumerated) []byte {
	t.Helper()
	kd := keyDescriptionASN1{
		AttestationVersion:       200,
		AttestationSecurityLevel: securityLevel,
		KeyMintVersion:           200,
		KeyMintSecurityLevel:     securityLevel,
		AttestationChallenge:     challenge,
		UniqueID:                 []byte{},
		SoftwareEnforced:         authorizationListASN1{},
		HardwareEnforced: authorizationListASN1{
			Purpose:  []int{int(KeyPurposeSign)},
			Algorithm: int(AlgorithmEC),
			EcCurve:  int(EcCurveP256),
		},
	}
	der, err := asn1.Marshal(kd)
	require.NoError(t, err)
	return der
}

type testCA struct {
	cert *x509.Certificate
	key  *ecdsa.PrivateKey
}

func generateCA(t *testing.T, cn string, parent *testCA) *testCA {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(int64(len(cn)) + 1),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	issuerCert, issuerKey := tmpl, key
	if parent != nil {
		issuerCert, issuerKey = parent.cert, parent.key
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, issuerCert, &key.PublicKey, issuerKey)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return &testCA{cert: cert, key: key}
}

func generateLeaf(t *testing.T, cn string, parent *testCA, extraExtensions []pkix.Extension) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:    big.NewInt(99),
		Subject:         pkix.Name{CommonName: cn},
		NotBefore:       time.Now().Add(-time.Hour),
		NotAfter:        time.Now().Add(time.Hour),
		ExtraExtensions: extraExtensions,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent.cert, &key.PublicKey, parent.key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func TestVerifyChain(t *testing.T) {
	root := generateCA(t, "root", nil)
	challenge := []byte("challenge")
	extension := pkix.Extension{Id: keyAttestationExtensionOID, Value: buildKeyDescriptionDER(t, challenge, asn1.Enumerated(SecurityLevelTrustedEnvironment))}
	leaf := generateLeaf(t, "leaf", root, []pkix.Extension{extension})
	chain := []*x509.Certificate{leaf, root.cert}
	roots := []RootPublicKey{{Key: root.cert.PublicKey}}

	t.Run("valid chain", func(t *testing.T) {
		attestation, gotLeaf, err := Verify(chain, roots, RevocationStatusList{}, challenge, Policy{}, time.Now())
		require.NoError(t, err)
		require.Equal(t, leaf, gotLeaf)
		require.Equal(t, []byte("challenge"), attestation.AttestationChallenge)
		require.Equal(t, SecurityLevelTrustedEnvironment, attestation.AttestationSecurityLevel)
	})

	t.Run("untrusted root", func(t *testing.T) {
		other := generateCA(t, "other-root", nil)
		_, _, err := Verify(chain, []RootPublicKey{{Key: other.cert.PublicKey}}, RevocationStatusList{}, challenge, Policy{}, time.Now())
		require.ErrorIs(t, err, ErrRootPublicKeyMismatch)
	})

	t.Run("short chain", func(t *testing.T) {
		_, _, err := Verify([]*x509.Certificate{leaf}, roots, RevocationStatusList{}, challenge, Policy{}, time.Now())
		require.ErrorIs(t, err, ErrEmptyChain)
	})

	t.Run("missing extension", func(t *testing.T) {
		bareLeaf := generateLeaf(t, "bare-leaf", root, nil)
		_, _, err := Verify([]*x509.Certificate{bareLeaf, root.cert}, roots, RevocationStatusList{}, challenge, Policy{}, time.Now())
		require.ErrorIs(t, err, ErrNoKeyAttestationExtension)
	})

	t.Run("revoked intermediate", func(t *testing.T) {
		revocation := RevocationStatusList{Entries: map[string]RevocationStatus{
			root.cert.SerialNumber.Text(16): RevocationStatusRevoked,
		}}
		_, _, err := Verify(chain, roots, revocation, challenge, Policy{}, time.Now())
		require.ErrorIs(t, err, ErrRevokedCertificates)
	})

	t.Run("challenge mismatch surfaces as attestation error", func(t *testing.T) {
		_, _, err := Verify(chain, roots, RevocationStatusList{}, []byte("wrong"), Policy{}, time.Now())
		require.ErrorIs(t, err, ErrAttestationChallenge)
	})
}
