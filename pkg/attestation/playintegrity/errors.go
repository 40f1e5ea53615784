package playintegrity

import "errors"

var (
	// ErrPackageNameMismatch is returned when the verdict's request package name
	// does not match the expected package name.
	ErrPackageNameMismatch = errors.New("play integrity: request package name mismatch")

	// ErrRequestHashMismatch is returned when the verdict's request hash does not
	// match the hash of the nonce/challenge the caller sent.
	ErrRequestHashMismatch = errors.New("play integrity: request hash mismatch")

	// ErrRequestTimestampInvalid is returned when the verdict's request timestamp
	// falls outside the accepted window around the verification time.
	ErrRequestTimestampInvalid = errors.New("play integrity: request timestamp outside accepted window")

	// ErrNotPlayRecognized is returned when the app recognition verdict is not
	// PLAY_RECOGNIZED.
	ErrNotPlayRecognized = errors.New("play integrity: app recognition verdict is not PLAY_RECOGNIZED")

	// ErrPlayStorePackageNameMismatch is returned when a PlayStore-only installation
	// policy is configured and the verdict's licensing package name differs.
	ErrPlayStorePackageNameMismatch = errors.New("play integrity: play store package name mismatch")

	// ErrPlayStoreCertificateMismatch is returned when a PlayStore-only installation
	// policy is configured and none of the verdict's certificate SHA-256 digests are
	// present in the configured allow-list.
	ErrPlayStoreCertificateMismatch = errors.New("play integrity: play store certificate digest mismatch")

	// ErrDeviceIntegrityNotMet is returned when the device recognition verdict
	// contains none of the labels required by policy.
	ErrDeviceIntegrityNotMet = errors.New("play integrity: device integrity requirements not met")

	// ErrNoAppEntitlement is returned when the app licensing verdict is not LICENSED.
	ErrNoAppEntitlement = errors.New("play integrity: app is not licensed")
)
