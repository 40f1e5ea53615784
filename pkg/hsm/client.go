// Package hsm is a PKCS#11-style HSM client: key generation, signing, HMAC, AES-GCM
// encrypt/decrypt, key wrapping, ephemeral session key pairs and random bytes, all
// drawn from a bounded session pool. The HSM is a process-wide singleton; its PIN is
// supplied once at Open and never logged.
//
// The real implementation, guarded by the pkcs11 build tag, talks to a PKCS#11 module
// via github.com/miekg/pkcs11. Without that tag, Open returns ErrNotSupported so the
// rest of the trust core still builds and tests against Client's software counterpart
// in pkg/hsm/softhsm.
package hsm

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"errors"
	"time"
)

// KeyLabel identifies a key stored inside the HSM by its PKCS#11 CKA_LABEL.
type KeyLabel string

// Curve names the elliptic curve of a generated or wrapped EC key pair.
type Curve int

const (
	CurveP256 Curve = iota
	CurveP384
)

// Client is the capability interface the rest of the trust core depends on. Production
// code is injected a *pkcs11.Client (pkcs11 build tag) or, in tests, the in-memory
// pkg/hsm/softhsm implementation — the core never assumes a concrete backend.
type Client interface {
	// GenerateKeyPair creates a new persistent EC key pair under label and returns its
	// public key.
	GenerateKeyPair(ctx context.Context, label KeyLabel, curve Curve) (*ecdsa.PublicKey, error)
	// Sign signs digest (already hashed by hash) with the named key, returning an
	// ASN.1 DER ECDSA signature.
	Sign(ctx context.Context, label KeyLabel, hash crypto.Hash, digest []byte) ([]byte, error)
	// PublicKey returns the public key of a previously generated or imported key pair.
	PublicKey(ctx context.Context, label KeyLabel) (*ecdsa.PublicKey, error)
	// HMAC computes an HMAC-SHA-256 over data using the named symmetric key.
	HMAC(ctx context.Context, label KeyLabel, data []byte) ([]byte, error)
	// Encrypt AES-GCM encrypts plaintext under the named symmetric key, returning the
	// generated nonce and ciphertext-with-tag.
	Encrypt(ctx context.Context, label KeyLabel, plaintext, aad []byte) (nonce, ciphertext []byte, err error)
	// Decrypt AES-GCM decrypts ciphertext (with appended tag) under the named key.
	Decrypt(ctx context.Context, label KeyLabel, nonce, ciphertext, aad []byte) ([]byte, error)
	// WrapKey wraps the named target key with the named wrapping key, for export or
	// backup of key material that must never leave the HSM unwrapped.
	WrapKey(ctx context.Context, wrappingLabel, targetLabel KeyLabel) ([]byte, error)
	// GenerateEphemeralKeyPair creates a session-only EC key pair that is never
	// persisted and is destroyed when the session closes, for one-shot ECDH or
	// challenge signing.
	GenerateEphemeralKeyPair(ctx context.Context, curve Curve) (*EphemeralKeyPair, error)
	// RandomBytes returns n cryptographically secure random bytes generated by the
	// HSM's RNG.
	RandomBytes(ctx context.Context, n int) ([]byte, error)
	// Close releases the client's session pool and logs out of the HSM.
	Close() error
}

// EphemeralKeyPair is a session-scoped key pair that exists only inside one checked-out
// HSM session and cannot be referenced again after the session is returned to the pool.
type EphemeralKeyPair struct {
	Public *ecdsa.PublicKey
	// Sign signs digest with the ephemeral private key. Valid only while the
	// originating session is open.
	Sign func(ctx context.Context, digest []byte) ([]byte, error)
}

// ErrNotSupported is returned by the stub Client when built without the pkcs11 tag.
var ErrNotSupported = errors.New("hsm: PKCS#11 support not compiled in; rebuild with -tags=pkcs11")

// ErrKeyNotFound is returned when a KeyLabel does not resolve to an object in the HSM.
var ErrKeyNotFound = errors.New("hsm: key not found")

// ErrSessionPoolExhausted is returned when no HSM session becomes available before the
// caller's context is done.
var ErrSessionPoolExhausted = errors.New("hsm: session pool exhausted")

// Config holds the connection parameters for a PKCS#11 module.
type Config struct {
	ModulePath string
	SlotID     uint
	// PIN authenticates the HSM session. Never logged.
	PIN string
	// PoolSize bounds the number of concurrently checked-out sessions.
	PoolSize int
	// MaxSessionAge is the maximum lifetime of a pooled session before it is closed
	// and reopened on next checkout.
	MaxSessionAge time.Duration
}
