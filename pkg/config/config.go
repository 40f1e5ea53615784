// Package config loads the trust core's process-wide immutable configuration: trust
// anchors, HSM connection parameters and policy toggles. The core treats configuration
// as initialized once at program start and injected into components, never reloaded.
package config

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/eudi-wallet/trustcore/pkg/logger"
	"github.com/eudi-wallet/trustcore/pkg/pki"
)

// HSM holds PKCS#11 connection parameters. PIN is never logged.
type HSM struct {
	ModulePath    string        `yaml:"module_path" validate:"required"`
	SlotID        uint          `yaml:"slot_id"`
	PIN           string        `yaml:"pin" validate:"required"`
	PoolSize      int           `yaml:"pool_size" default:"8" validate:"required"`
	MaxSessionAge time.Duration `yaml:"max_session_age" default:"10m"`
}

// AttestationPolicy toggles device-attestation acceptance rules that are otherwise
// hardcoded nowhere else in the core.
type AttestationPolicy struct {
	// AllowEmulatorKeys permits Android keys attested at SecurityLevel Software, for
	// development and CI against the Android emulator.
	AllowEmulatorKeys bool `yaml:"allow_emulator_keys"`
	// PlayIntegrityAllowedCertificateSha256 lists the app signing certificate
	// SHA-256 digests Play Integrity verdicts must match against.
	PlayIntegrityAllowedCertificateSha256 []string `yaml:"play_integrity_allowed_certificate_sha256"`
	// ExtendingVcts maps an SD-JWT VC's vct to the set of vct values a presented
	// credential may declare via "extends" and still be accepted in its place.
	ExtendingVcts map[string][]string `yaml:"extending_vcts"`
}

// TrustAnchors names the PEM files the core trusts as roots: IACA certificates for
// mdoc issuer chains, Android hardware attestation roots and reader/issuer
// registration CAs.
type TrustAnchors struct {
	IACACertificatesPath        string `yaml:"iaca_certificates_path" validate:"required"`
	AndroidAttestationRootsPath string `yaml:"android_attestation_roots_path" validate:"required"`
	ReaderRegistrationCAPath    string `yaml:"reader_registration_ca_path" validate:"required"`
	IssuerRegistrationCAPath    string `yaml:"issuer_registration_ca_path" validate:"required"`
}

// TrustAnchorCertificates holds the parsed contents of TrustAnchors: each field is the
// leaf certificate plus any chain found concatenated after it in the same PEM file.
type TrustAnchorCertificates struct {
	IACACertificates        []*x509.Certificate
	AndroidAttestationRoots []*x509.Certificate
	ReaderRegistrationCA    []*x509.Certificate
	IssuerRegistrationCA    []*x509.Certificate
}

// Load parses every PEM file named by a, in order, failing on the first one that cannot
// be read or decoded.
func (a TrustAnchors) Load() (*TrustAnchorCertificates, error) {
	load := func(field, path string) ([]*x509.Certificate, error) {
		_, chain, err := pki.ParseX509CertificateFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", field, err)
		}
		return chain, nil
	}

	iaca, err := load("iaca_certificates_path", a.IACACertificatesPath)
	if err != nil {
		return nil, err
	}
	android, err := load("android_attestation_roots_path", a.AndroidAttestationRootsPath)
	if err != nil {
		return nil, err
	}
	reader, err := load("reader_registration_ca_path", a.ReaderRegistrationCAPath)
	if err != nil {
		return nil, err
	}
	issuer, err := load("issuer_registration_ca_path", a.IssuerRegistrationCAPath)
	if err != nil {
		return nil, err
	}

	return &TrustAnchorCertificates{
		IACACertificates:        iaca,
		AndroidAttestationRoots: android,
		ReaderRegistrationCA:    reader,
		IssuerRegistrationCA:    issuer,
	}, nil
}

// SessionTimeouts overrides the session store's default timing, see
// pkg/sessionstore.DefaultTimeouts.
type SessionTimeouts struct {
	Expiration         time.Duration `yaml:"expiration" default:"30m"`
	SuccessfulDeletion time.Duration `yaml:"successful_deletion" default:"5m"`
	FailedDeletion     time.Duration `yaml:"failed_deletion" default:"4h"`
}

// Log holds the log configuration, mirroring the teacher's pkg/model.Log.
type Log struct {
	Level      string `yaml:"level" default:"info"`
	FolderPath string `yaml:"folder_path"`
}

// Cfg is the trust core's complete process-wide configuration.
type Cfg struct {
	Log          Log               `yaml:"log"`
	HSM          HSM               `yaml:"hsm" validate:"required"`
	TrustAnchors TrustAnchors      `yaml:"trust_anchors" validate:"required"`
	Attestation  AttestationPolicy `yaml:"attestation"`
	Sessions     SessionTimeouts   `yaml:"sessions"`
}

type envVars struct {
	ConfigYAML string `envconfig:"TRUSTCORE_CONFIG_YAML" required:"true"`
}

// New reads the path to a YAML configuration file from the TRUSTCORE_CONFIG_YAML
// environment variable, applies struct defaults, unmarshals the file and validates the
// result.
func New(ctx context.Context) (*Cfg, error) {
	log := logger.NewSimple("Configuration")
	log.Info("reading configuration")

	env := envVars{}
	if err := envconfig.Process("", &env); err != nil {
		return nil, err
	}

	cfg := &Cfg{}
	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}

	configPath := filepath.Clean(env.ConfigYAML)
	fileInfo, err := os.Stat(configPath)
	if err != nil {
		return nil, err
	}
	if fileInfo.IsDir() {
		return nil, errors.New("config is a folder")
	}

	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(configFile, cfg); err != nil {
		return nil, err
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
