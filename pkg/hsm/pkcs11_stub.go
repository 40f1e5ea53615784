//go:build !pkcs11

package hsm

import (
	"context"
	"crypto"
	"crypto/ecdsa"
)

// Pkcs11Client is a stub when PKCS#11 support is not compiled in. Open always fails;
// callers wanting a working in-process Client for tests should use
// github.com/eudi-wallet/trustcore/pkg/hsm/softhsm instead.
type Pkcs11Client struct{}

// Open returns ErrNotSupported when built without the pkcs11 tag.
func Open(cfg Config) (*Pkcs11Client, error) {
	return nil, ErrNotSupported
}

func (c *Pkcs11Client) GenerateKeyPair(ctx context.Context, label KeyLabel, curve Curve) (*ecdsa.PublicKey, error) {
	return nil, ErrNotSupported
}

func (c *Pkcs11Client) Sign(ctx context.Context, label KeyLabel, hash crypto.Hash, digest []byte) ([]byte, error) {
	return nil, ErrNotSupported
}

func (c *Pkcs11Client) PublicKey(ctx context.Context, label KeyLabel) (*ecdsa.PublicKey, error) {
	return nil, ErrNotSupported
}

func (c *Pkcs11Client) HMAC(ctx context.Context, label KeyLabel, data []byte) ([]byte, error) {
	return nil, ErrNotSupported
}

func (c *Pkcs11Client) Encrypt(ctx context.Context, label KeyLabel, plaintext, aad []byte) ([]byte, []byte, error) {
	return nil, nil, ErrNotSupported
}

func (c *Pkcs11Client) Decrypt(ctx context.Context, label KeyLabel, nonce, ciphertext, aad []byte) ([]byte, error) {
	return nil, ErrNotSupported
}

func (c *Pkcs11Client) WrapKey(ctx context.Context, wrappingLabel, targetLabel KeyLabel) ([]byte, error) {
	return nil, ErrNotSupported
}

func (c *Pkcs11Client) GenerateEphemeralKeyPair(ctx context.Context, curve Curve) (*EphemeralKeyPair, error) {
	return nil, ErrNotSupported
}

func (c *Pkcs11Client) RandomBytes(ctx context.Context, n int) ([]byte, error) {
	return nil, ErrNotSupported
}

func (c *Pkcs11Client) Close() error {
	return nil
}
