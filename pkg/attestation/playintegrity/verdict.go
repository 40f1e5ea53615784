// Package playintegrity verifies Google Play Integrity API verdicts.
// https://developer.android.com/google/play/integrity/verdicts
package playintegrity

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"slices"
	"time"
)

// MaxRequestAge is the longest a verdict's request timestamp may lag behind the
// verification time before it is rejected as stale.
const MaxRequestAge = 15 * time.Minute

// FutureSkewMargin is how far into the future a verdict's request timestamp may sit
// before it is rejected, to tolerate clock drift between the wallet and this core.
const FutureSkewMargin = 5 * time.Minute

// AppRecognitionVerdict is Google's assessment of whether the calling app is the
// genuine, Play-distributed app.
type AppRecognitionVerdict string

const (
	AppRecognitionPlayRecognized      AppRecognitionVerdict = "PLAY_RECOGNIZED"
	AppRecognitionUnrecognizedVersion AppRecognitionVerdict = "UNRECOGNIZED_VERSION"
	AppRecognitionUnevaluated         AppRecognitionVerdict = "UNEVALUATED"
)

// DeviceRecognitionLabel is one label in the device recognition verdict list.
type DeviceRecognitionLabel string

const (
	DeviceIntegrityMeetsBasic   DeviceRecognitionLabel = "MEETS_BASIC_INTEGRITY"
	DeviceIntegrityMeetsDevice  DeviceRecognitionLabel = "MEETS_DEVICE_INTEGRITY"
	DeviceIntegrityMeetsStrong  DeviceRecognitionLabel = "MEETS_STRONG_INTEGRITY"
	DeviceIntegrityMeetsVirtual DeviceRecognitionLabel = "MEETS_VIRTUAL_INTEGRITY"
)

// AppLicensingVerdict is Google's assessment of whether the user holds an entitlement
// to the app.
type AppLicensingVerdict string

const (
	AppLicensingLicensed   AppLicensingVerdict = "LICENSED"
	AppLicensingUnlicensed AppLicensingVerdict = "UNLICENSED"
	AppLicensingUnevaluated AppLicensingVerdict = "UNEVALUATED"
)

// RequestDetails echoes the request the wallet sent, bound into the verdict.
type RequestDetails struct {
	RequestPackageName string `json:"requestPackageName"`
	TimestampMillis    int64  `json:"timestampMillis,string"`
	RequestHash        string `json:"requestHash"`
}

// AppIntegrity is Google's assessment of the calling app binary.
type AppIntegrity struct {
	AppRecognitionVerdict  AppRecognitionVerdict `json:"appRecognitionVerdict"`
	PackageName            string                `json:"packageName"`
	CertificateSha256Digest []string             `json:"certificateSha256Digest"`
	VersionCode            string                `json:"versionCode"`
}

// DeviceIntegrity is Google's assessment of the device the app is running on.
type DeviceIntegrity struct {
	DeviceRecognitionVerdict []DeviceRecognitionLabel `json:"deviceRecognitionVerdict"`
}

// AccountDetails is Google's assessment of the Play Store account's entitlement.
type AccountDetails struct {
	AppLicensingVerdict AppLicensingVerdict `json:"appLicensingVerdict"`
}

// Verdict is the decoded JSON payload of a Play Integrity token.
type Verdict struct {
	RequestDetails  RequestDetails  `json:"requestDetails"`
	AppIntegrity    AppIntegrity    `json:"appIntegrity"`
	DeviceIntegrity DeviceIntegrity `json:"deviceIntegrity"`
	AccountDetails  AccountDetails  `json:"accountDetails"`
}

// InstallationMethod controls how strictly the app/certificate identity of the verdict
// is checked.
type InstallationMethod int

const (
	// InstallationPlayStore requires the verdict's package name to match and at
	// least one of its certificate digests to be in the configured allow-list.
	InstallationPlayStore InstallationMethod = iota
	// InstallationSideloadOrPlayStore skips the package/certificate check entirely,
	// for environments (e.g. internal test builds) that also accept sideloaded apps.
	InstallationSideloadOrPlayStore
)

// Policy configures the acceptance thresholds applied to a verdict.
type Policy struct {
	InstallationMethod     InstallationMethod
	ExpectedPackageName    string
	AllowedCertificateSha256 []string
	RequiredDeviceLabels   []DeviceRecognitionLabel
	RequireLicensed        bool
}

// Verify checks v against the request package name and hash the caller expects, and
// against policy, using the current time.
func Verify(v Verdict, expectedPackageName string, expectedRequestHash string, policy Policy) error {
	return VerifyWithTime(v, expectedPackageName, expectedRequestHash, policy, time.Now())
}

// VerifyWithTime is Verify with an explicit verification time, for deterministic tests.
func VerifyWithTime(v Verdict, expectedPackageName string, expectedRequestHash string, policy Policy, now time.Time) error {
	if v.RequestDetails.RequestPackageName != expectedPackageName {
		return ErrPackageNameMismatch
	}
	if subtle.ConstantTimeCompare([]byte(v.RequestDetails.RequestHash), []byte(expectedRequestHash)) != 1 {
		return ErrRequestHashMismatch
	}

	requestTime := time.UnixMilli(v.RequestDetails.TimestampMillis)
	age := now.Sub(requestTime)
	if age > MaxRequestAge || age < -FutureSkewMargin {
		return fmt.Errorf("%w: request at %s, verified at %s", ErrRequestTimestampInvalid, requestTime, now)
	}

	if v.AppIntegrity.AppRecognitionVerdict != AppRecognitionPlayRecognized {
		return fmt.Errorf("%w: got %s", ErrNotPlayRecognized, v.AppIntegrity.AppRecognitionVerdict)
	}

	if policy.InstallationMethod == InstallationPlayStore {
		if v.AppIntegrity.PackageName != policy.ExpectedPackageName {
			return ErrPlayStorePackageNameMismatch
		}
		if len(policy.AllowedCertificateSha256) > 0 && !certificateSubset(v.AppIntegrity.CertificateSha256Digest, policy.AllowedCertificateSha256) {
			return ErrPlayStoreCertificateMismatch
		}
	}

	if len(policy.RequiredDeviceLabels) > 0 && !anyLabelPresent(v.DeviceIntegrity.DeviceRecognitionVerdict, policy.RequiredDeviceLabels) {
		return fmt.Errorf("%w: got %v, need one of %v", ErrDeviceIntegrityNotMet, v.DeviceIntegrity.DeviceRecognitionVerdict, policy.RequiredDeviceLabels)
	}

	if policy.RequireLicensed && v.AccountDetails.AppLicensingVerdict != AppLicensingLicensed {
		return fmt.Errorf("%w: got %s", ErrNoAppEntitlement, v.AccountDetails.AppLicensingVerdict)
	}

	return nil
}

// anyLabelPresent reports whether at least one of required is present in got.
func anyLabelPresent(got, required []DeviceRecognitionLabel) bool {
	for _, label := range required {
		if slices.Contains(got, label) {
			return true
		}
	}
	return false
}

// certificateSubset reports whether any element of got is present in allowed; a verdict
// need not present every allowed certificate, only at least one of them.
func certificateSubset(got, allowed []string) bool {
	if len(got) == 0 {
		return false
	}
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		allowedSet[a] = struct{}{}
	}
	for _, g := range got {
		if _, ok := allowedSet[g]; ok {
			return true
		}
	}
	return false
}

// HashRequest computes the SHA-256 request hash Google expects the caller to bind into
// the integrity token request (base64 or hex encoding is the caller's choice; this
// returns raw bytes).
func HashRequest(data []byte) [32]byte {
	return sha256.Sum256(data)
}
