// Package softhsm is an in-memory github.com/eudi-wallet/trustcore/pkg/hsm.Client for
// tests and local development, standing in for a real PKCS#11 module the way the
// teacher's pkg/signing.SoftwareSigner stands in for its PKCS11Signer.
package softhsm

import (
	"context"
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"sync"

	"github.com/eudi-wallet/trustcore/pkg/hsm"
)

type ecKeyPair struct {
	private *ecdsa.PrivateKey
}

// Client is an in-memory hsm.Client. It is safe for concurrent use and never persists
// key material to disk.
type Client struct {
	mu      sync.Mutex
	ecKeys  map[hsm.KeyLabel]ecKeyPair
	aesKeys map[hsm.KeyLabel][]byte
}

// New creates an empty in-memory Client.
func New() *Client {
	return &Client{
		ecKeys:  make(map[hsm.KeyLabel]ecKeyPair),
		aesKeys: make(map[hsm.KeyLabel][]byte),
	}
}

// PutAESKey installs a raw AES-256 key under label, for tests that need a
// pre-provisioned symmetric key (e.g. a PIN-derived wrapping key).
func (c *Client) PutAESKey(label hsm.KeyLabel, key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aesKeys[label] = key
}

func ellipticCurve(curve hsm.Curve) elliptic.Curve {
	if curve == hsm.CurveP384 {
		return elliptic.P384()
	}
	return elliptic.P256()
}

func (c *Client) GenerateKeyPair(ctx context.Context, label hsm.KeyLabel, curve hsm.Curve) (*ecdsa.PublicKey, error) {
	priv, err := ecdsa.GenerateKey(ellipticCurve(curve), rand.Reader)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.ecKeys[label] = ecKeyPair{private: priv}
	c.mu.Unlock()
	return &priv.PublicKey, nil
}

func (c *Client) Sign(ctx context.Context, label hsm.KeyLabel, hash crypto.Hash, digest []byte) ([]byte, error) {
	c.mu.Lock()
	pair, ok := c.ecKeys[label]
	c.mu.Unlock()
	if !ok {
		return nil, hsm.ErrKeyNotFound
	}
	return ecdsa.SignASN1(rand.Reader, pair.private, digest)
}

func (c *Client) PublicKey(ctx context.Context, label hsm.KeyLabel) (*ecdsa.PublicKey, error) {
	c.mu.Lock()
	pair, ok := c.ecKeys[label]
	c.mu.Unlock()
	if !ok {
		return nil, hsm.ErrKeyNotFound
	}
	return &pair.private.PublicKey, nil
}

func (c *Client) HMAC(ctx context.Context, label hsm.KeyLabel, data []byte) ([]byte, error) {
	c.mu.Lock()
	key, ok := c.aesKeys[label]
	c.mu.Unlock()
	if !ok {
		return nil, hsm.ErrKeyNotFound
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil), nil
}

func (c *Client) gcmFor(label hsm.KeyLabel) (cipher.AEAD, error) {
	c.mu.Lock()
	key, ok := c.aesKeys[label]
	c.mu.Unlock()
	if !ok {
		return nil, hsm.ErrKeyNotFound
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("softhsm: new AES cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

func (c *Client) Encrypt(ctx context.Context, label hsm.KeyLabel, plaintext, aad []byte) ([]byte, []byte, error) {
	gcm, err := c.gcmFor(label)
	if err != nil {
		return nil, nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, aad)
	return nonce, ciphertext, nil
}

func (c *Client) Decrypt(ctx context.Context, label hsm.KeyLabel, nonce, ciphertext, aad []byte) ([]byte, error) {
	gcm, err := c.gcmFor(label)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, ciphertext, aad)
}

func (c *Client) WrapKey(ctx context.Context, wrappingLabel, targetLabel hsm.KeyLabel) ([]byte, error) {
	gcm, err := c.gcmFor(wrappingLabel)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	pair, ok := c.ecKeys[targetLabel]
	c.mu.Unlock()
	if !ok {
		return nil, hsm.ErrKeyNotFound
	}
	raw, err := x509.MarshalECPrivateKey(pair.private)
	if err != nil {
		return nil, fmt.Errorf("softhsm: marshal target key: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return append(nonce, gcm.Seal(nil, nonce, raw, nil)...), nil
}

func (c *Client) GenerateEphemeralKeyPair(ctx context.Context, curve hsm.Curve) (*hsm.EphemeralKeyPair, error) {
	priv, err := ecdsa.GenerateKey(ellipticCurve(curve), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &hsm.EphemeralKeyPair{
		Public: &priv.PublicKey,
		Sign: func(ctx context.Context, digest []byte) ([]byte, error) {
			return ecdsa.SignASN1(rand.Reader, priv, digest)
		},
	}, nil
}

func (c *Client) RandomBytes(ctx context.Context, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *Client) Close() error {
	return nil
}
