package playintegrity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseVerdict(now time.Time) Verdict {
	return Verdict{
		RequestDetails: RequestDetails{
			RequestPackageName: "nl.example.wallet",
			TimestampMillis:    now.UnixMilli(),
			RequestHash:        "expected-hash",
		},
		AppIntegrity: AppIntegrity{
			AppRecognitionVerdict:   AppRecognitionPlayRecognized,
			PackageName:             "nl.example.wallet",
			CertificateSha256Digest: []string{"abc123"},
		},
		DeviceIntegrity: DeviceIntegrity{
			DeviceRecognitionVerdict: []DeviceRecognitionLabel{DeviceIntegrityMeetsDevice, DeviceIntegrityMeetsStrong},
		},
		AccountDetails: AccountDetails{AppLicensingVerdict: AppLicensingLicensed},
	}
}

func TestVerifyWithTime_Timestamps(t *testing.T) {
	now := time.Now()
	policy := Policy{InstallationMethod: InstallationSideloadOrPlayStore}

	tests := []struct {
		name    string
		age     time.Duration
		wantErr error
	}{
		{"fresh", 0, nil},
		{"just within max age", MaxRequestAge - time.Second, nil},
		{"too old", MaxRequestAge + time.Second, ErrRequestTimestampInvalid},
		{"within future skew", -(FutureSkewMargin - time.Second), nil},
		{"too far in the future", -(FutureSkewMargin + time.Second), ErrRequestTimestampInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := baseVerdict(now.Add(-tt.age))
			err := VerifyWithTime(v, "nl.example.wallet", "expected-hash", policy, now)
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestVerifyWithTime_PackageAndHash(t *testing.T) {
	now := time.Now()
	policy := Policy{InstallationMethod: InstallationSideloadOrPlayStore}

	v := baseVerdict(now)
	require.ErrorIs(t, VerifyWithTime(v, "wrong.package", "expected-hash", policy, now), ErrPackageNameMismatch)
	require.ErrorIs(t, VerifyWithTime(v, "nl.example.wallet", "wrong-hash", policy, now), ErrRequestHashMismatch)

	v.AppIntegrity.AppRecognitionVerdict = AppRecognitionUnevaluated
	require.ErrorIs(t, VerifyWithTime(v, "nl.example.wallet", "expected-hash", policy, now), ErrNotPlayRecognized)
}

func TestVerifyWithTime_PlayStoreInstallationMethod(t *testing.T) {
	now := time.Now()
	v := baseVerdict(now)

	t.Run("certificate in allow-list", func(t *testing.T) {
		policy := Policy{
			InstallationMethod:       InstallationPlayStore,
			ExpectedPackageName:      "nl.example.wallet",
			AllowedCertificateSha256: []string{"abc123", "def456"},
		}
		require.NoError(t, VerifyWithTime(v, "nl.example.wallet", "expected-hash", policy, now))
	})

	t.Run("certificate not in allow-list", func(t *testing.T) {
		policy := Policy{
			InstallationMethod:       InstallationPlayStore,
			ExpectedPackageName:      "nl.example.wallet",
			AllowedCertificateSha256: []string{"def456"},
		}
		require.ErrorIs(t, VerifyWithTime(v, "nl.example.wallet", "expected-hash", policy, now), ErrPlayStoreCertificateMismatch)
	})

	t.Run("package name mismatch", func(t *testing.T) {
		policy := Policy{InstallationMethod: InstallationPlayStore, ExpectedPackageName: "other.package"}
		require.ErrorIs(t, VerifyWithTime(v, "nl.example.wallet", "expected-hash", policy, now), ErrPlayStorePackageNameMismatch)
	})
}

func TestVerifyWithTime_DeviceAndLicensing(t *testing.T) {
	now := time.Now()
	v := baseVerdict(now)

	policy := Policy{InstallationMethod: InstallationSideloadOrPlayStore, RequiredDeviceLabels: []DeviceRecognitionLabel{DeviceIntegrityMeetsStrong}}
	require.NoError(t, VerifyWithTime(v, "nl.example.wallet", "expected-hash", policy, now))

	policy.RequiredDeviceLabels = []DeviceRecognitionLabel{DeviceIntegrityMeetsVirtual}
	require.ErrorIs(t, VerifyWithTime(v, "nl.example.wallet", "expected-hash", policy, now), ErrDeviceIntegrityNotMet)

	policy = Policy{InstallationMethod: InstallationSideloadOrPlayStore, RequireLicensed: true}
	v.AccountDetails.AppLicensingVerdict = AppLicensingUnlicensed
	require.ErrorIs(t, VerifyWithTime(v, "nl.example.wallet", "expected-hash", policy, now), ErrNoAppEntitlement)
}
