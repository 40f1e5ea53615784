//go:build pkcs11

package hsm

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/miekg/pkcs11"
)

// pooledSession is one checked-out PKCS#11 session together with the time it was
// opened, so the pool can retire sessions older than Config.MaxSessionAge.
type pooledSession struct {
	handle   pkcs11.SessionHandle
	openedAt time.Time
}

// Pkcs11Client is the production Client backed by a real PKCS#11 module, grounded on
// the teacher's pkg/signing.PKCS11Signer but widened into a bounded session pool
// serving the full key-management and cryptographic surface the trust core needs
// rather than one fixed signing key.
type Pkcs11Client struct {
	ctx    *pkcs11.Ctx
	cfg    Config
	mu     sync.Mutex
	free   []pooledSession
	inUse  int
	cond   *sync.Cond
	closed bool
}

// Open initializes the PKCS#11 module at cfg.ModulePath and pre-authenticates the
// slot, returning a Client whose session pool is bounded by cfg.PoolSize.
func Open(cfg Config) (*Pkcs11Client, error) {
	ctx := pkcs11.New(cfg.ModulePath)
	if ctx == nil {
		return nil, fmt.Errorf("hsm: failed to load PKCS#11 module %q", cfg.ModulePath)
	}
	if err := ctx.Initialize(); err != nil {
		return nil, fmt.Errorf("hsm: initialize PKCS#11: %w", err)
	}
	c := &Pkcs11Client{ctx: ctx, cfg: cfg}
	c.cond = sync.NewCond(&c.mu)
	return c, nil
}

func (c *Pkcs11Client) openSession() (pooledSession, error) {
	session, err := c.ctx.OpenSession(c.cfg.SlotID, pkcs11.CKF_SERIAL_SESSION|pkcs11.CKF_RW_SESSION)
	if err != nil {
		return pooledSession{}, fmt.Errorf("hsm: open session: %w", err)
	}
	if err := c.ctx.Login(session, pkcs11.CKU_USER, c.cfg.PIN); err != nil {
		c.ctx.CloseSession(session)
		return pooledSession{}, fmt.Errorf("hsm: login: %w", err)
	}
	return pooledSession{handle: session, openedAt: time.Now()}, nil
}

// checkout blocks until a session is available or ctx is done, validating any pooled
// session's age before handing it out.
func (c *Pkcs11Client) checkout(ctx context.Context) (pooledSession, error) {
	c.mu.Lock()
	for {
		if c.closed {
			c.mu.Unlock()
			return pooledSession{}, fmt.Errorf("hsm: client closed")
		}
		if len(c.free) > 0 {
			s := c.free[len(c.free)-1]
			c.free = c.free[:len(c.free)-1]
			if c.cfg.MaxSessionAge > 0 && time.Since(s.openedAt) > c.cfg.MaxSessionAge {
				c.ctx.CloseSession(s.handle)
				continue
			}
			c.inUse++
			c.mu.Unlock()
			return s, nil
		}
		if c.inUse < c.cfg.PoolSize {
			c.inUse++
			c.mu.Unlock()
			s, err := c.openSession()
			if err != nil {
				c.mu.Lock()
				c.inUse--
				c.cond.Broadcast()
				c.mu.Unlock()
				return pooledSession{}, err
			}
			return s, nil
		}
		waitCh := make(chan struct{})
		go func() {
			c.cond.Wait()
			close(waitCh)
		}()
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return pooledSession{}, fmt.Errorf("%w: %v", ErrSessionPoolExhausted, ctx.Err())
		case <-waitCh:
		}
		c.mu.Lock()
	}
}

func (c *Pkcs11Client) checkin(s pooledSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inUse--
	c.free = append(c.free, s)
	c.cond.Signal()
}

func curveParams(curve Curve) (elliptic.Curve, []byte) {
	switch curve {
	case CurveP384:
		return elliptic.P384(), []byte{0x06, 0x05, 0x2b, 0x81, 0x04, 0x00, 0x22}
	default:
		return elliptic.P256(), []byte{0x06, 0x08, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x03, 0x01, 0x07}
	}
}

func (c *Pkcs11Client) GenerateKeyPair(ctx context.Context, label KeyLabel, curve Curve) (*ecdsa.PublicKey, error) {
	s, err := c.checkout(ctx)
	if err != nil {
		return nil, err
	}
	defer c.checkin(s)

	ellipticCurve, oid := curveParams(curve)
	pubTemplate := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_EC_PARAMS, oid),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, true),
		pkcs11.NewAttribute(pkcs11.CKA_VERIFY, true),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, string(label)),
	}
	privTemplate := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, true),
		pkcs11.NewAttribute(pkcs11.CKA_SIGN, true),
		pkcs11.NewAttribute(pkcs11.CKA_PRIVATE, true),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, string(label)),
	}
	_, pub, err := c.ctx.GenerateKeyPair(s.handle,
		[]*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_EC_KEY_PAIR_GEN, nil)},
		pubTemplate, privTemplate)
	if err != nil {
		return nil, fmt.Errorf("hsm: generate key pair: %w", err)
	}
	return extractECPoint(c.ctx, s.handle, pub, ellipticCurve)
}

func extractECPoint(ctx *pkcs11.Ctx, session pkcs11.SessionHandle, handle pkcs11.ObjectHandle, curve elliptic.Curve) (*ecdsa.PublicKey, error) {
	attrs, err := ctx.GetAttributeValue(session, handle, []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_EC_POINT, nil),
	})
	if err != nil {
		return nil, fmt.Errorf("hsm: get EC point: %w", err)
	}
	point := attrs[0].Value
	if len(point) > 2 && point[0] == 0x04 && point[1] == byte(len(point)-2) {
		point = point[2:]
	}
	if len(point) == 0 || point[0] != 0x04 {
		return nil, fmt.Errorf("hsm: unexpected EC point encoding")
	}
	keyLen := (curve.Params().BitSize + 7) / 8
	if len(point) != 1+2*keyLen {
		return nil, fmt.Errorf("hsm: unexpected EC point length")
	}
	x := new(big.Int).SetBytes(point[1 : 1+keyLen])
	y := new(big.Int).SetBytes(point[1+keyLen:])
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

func (c *Pkcs11Client) findKey(session pkcs11.SessionHandle, class uint, label KeyLabel) (pkcs11.ObjectHandle, error) {
	template := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, class),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, string(label)),
	}
	if err := c.ctx.FindObjectsInit(session, template); err != nil {
		return 0, fmt.Errorf("hsm: find objects init: %w", err)
	}
	defer c.ctx.FindObjectsFinal(session)
	objs, _, err := c.ctx.FindObjects(session, 1)
	if err != nil {
		return 0, fmt.Errorf("hsm: find objects: %w", err)
	}
	if len(objs) == 0 {
		return 0, ErrKeyNotFound
	}
	return objs[0], nil
}

func (c *Pkcs11Client) Sign(ctx context.Context, label KeyLabel, hash crypto.Hash, digest []byte) ([]byte, error) {
	s, err := c.checkout(ctx)
	if err != nil {
		return nil, err
	}
	defer c.checkin(s)

	priv, err := c.findKey(s.handle, pkcs11.CKO_PRIVATE_KEY, label)
	if err != nil {
		return nil, err
	}
	if err := c.ctx.SignInit(s.handle, []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_ECDSA, nil)}, priv); err != nil {
		return nil, fmt.Errorf("hsm: sign init: %w", err)
	}
	sig, err := c.ctx.Sign(s.handle, digest)
	if err != nil {
		return nil, fmt.Errorf("hsm: sign: %w", err)
	}
	return sig, nil
}

func (c *Pkcs11Client) PublicKey(ctx context.Context, label KeyLabel) (*ecdsa.PublicKey, error) {
	s, err := c.checkout(ctx)
	if err != nil {
		return nil, err
	}
	defer c.checkin(s)

	pub, err := c.findKey(s.handle, pkcs11.CKO_PUBLIC_KEY, label)
	if err != nil {
		return nil, err
	}
	return extractECPoint(c.ctx, s.handle, pub, elliptic.P256())
}

func (c *Pkcs11Client) HMAC(ctx context.Context, label KeyLabel, data []byte) ([]byte, error) {
	s, err := c.checkout(ctx)
	if err != nil {
		return nil, err
	}
	defer c.checkin(s)

	key, err := c.findKey(s.handle, pkcs11.CKO_SECRET_KEY, label)
	if err != nil {
		return nil, err
	}
	if err := c.ctx.SignInit(s.handle, []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_SHA256_HMAC, nil)}, key); err != nil {
		return nil, fmt.Errorf("hsm: hmac init: %w", err)
	}
	mac, err := c.ctx.Sign(s.handle, data)
	if err != nil {
		return nil, fmt.Errorf("hsm: hmac: %w", err)
	}
	return mac, nil
}

func (c *Pkcs11Client) Encrypt(ctx context.Context, label KeyLabel, plaintext, aad []byte) ([]byte, []byte, error) {
	s, err := c.checkout(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer c.checkin(s)

	key, err := c.findKey(s.handle, pkcs11.CKO_SECRET_KEY, label)
	if err != nil {
		return nil, nil, err
	}
	nonce, err := randomBytes(c.ctx, s.handle, 12)
	if err != nil {
		return nil, nil, err
	}
	params := pkcs11.NewGCMParams(nonce, aad, 128)
	defer params.Free()
	if err := c.ctx.EncryptInit(s.handle, []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_AES_GCM, params)}, key); err != nil {
		return nil, nil, fmt.Errorf("hsm: encrypt init: %w", err)
	}
	ciphertext, err := c.ctx.Encrypt(s.handle, plaintext)
	if err != nil {
		return nil, nil, fmt.Errorf("hsm: encrypt: %w", err)
	}
	return nonce, ciphertext, nil
}

func (c *Pkcs11Client) Decrypt(ctx context.Context, label KeyLabel, nonce, ciphertext, aad []byte) ([]byte, error) {
	s, err := c.checkout(ctx)
	if err != nil {
		return nil, err
	}
	defer c.checkin(s)

	key, err := c.findKey(s.handle, pkcs11.CKO_SECRET_KEY, label)
	if err != nil {
		return nil, err
	}
	params := pkcs11.NewGCMParams(nonce, aad, 128)
	defer params.Free()
	if err := c.ctx.DecryptInit(s.handle, []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_AES_GCM, params)}, key); err != nil {
		return nil, fmt.Errorf("hsm: decrypt init: %w", err)
	}
	plaintext, err := c.ctx.Decrypt(s.handle, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("hsm: decrypt: %w", err)
	}
	return plaintext, nil
}

func (c *Pkcs11Client) WrapKey(ctx context.Context, wrappingLabel, targetLabel KeyLabel) ([]byte, error) {
	s, err := c.checkout(ctx)
	if err != nil {
		return nil, err
	}
	defer c.checkin(s)

	wrapping, err := c.findKey(s.handle, pkcs11.CKO_SECRET_KEY, wrappingLabel)
	if err != nil {
		return nil, err
	}
	target, err := c.findKey(s.handle, pkcs11.CKO_PRIVATE_KEY, targetLabel)
	if err != nil {
		return nil, err
	}
	wrapped, err := c.ctx.WrapKey(s.handle, []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_AES_KEY_WRAP_PAD, nil)}, wrapping, target)
	if err != nil {
		return nil, fmt.Errorf("hsm: wrap key: %w", err)
	}
	return wrapped, nil
}

func (c *Pkcs11Client) GenerateEphemeralKeyPair(ctx context.Context, curve Curve) (*EphemeralKeyPair, error) {
	s, err := c.checkout(ctx)
	if err != nil {
		return nil, err
	}
	released := false
	release := func() {
		if !released {
			released = true
			c.checkin(s)
		}
	}

	ellipticCurve, oid := curveParams(curve)
	pubTemplate := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_EC_PARAMS, oid),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, false),
		pkcs11.NewAttribute(pkcs11.CKA_VERIFY, true),
	}
	privTemplate := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, false),
		pkcs11.NewAttribute(pkcs11.CKA_SIGN, true),
	}
	priv, pub, err := c.ctx.GenerateKeyPair(s.handle,
		[]*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_EC_KEY_PAIR_GEN, nil)},
		pubTemplate, privTemplate)
	if err != nil {
		release()
		return nil, fmt.Errorf("hsm: generate ephemeral key pair: %w", err)
	}
	pubKey, err := extractECPoint(c.ctx, s.handle, pub, ellipticCurve)
	if err != nil {
		release()
		return nil, err
	}
	return &EphemeralKeyPair{
		Public: pubKey,
		Sign: func(ctx context.Context, digest []byte) ([]byte, error) {
			defer release()
			if err := c.ctx.SignInit(s.handle, []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_ECDSA, nil)}, priv); err != nil {
				return nil, fmt.Errorf("hsm: ephemeral sign init: %w", err)
			}
			return c.ctx.Sign(s.handle, digest)
		},
	}, nil
}

func randomBytes(ctx *pkcs11.Ctx, session pkcs11.SessionHandle, n int) ([]byte, error) {
	return ctx.GenerateRandom(session, n)
}

func (c *Pkcs11Client) RandomBytes(ctx context.Context, n int) ([]byte, error) {
	s, err := c.checkout(ctx)
	if err != nil {
		return nil, err
	}
	defer c.checkin(s)
	return randomBytes(c.ctx, s.handle, n)
}

func (c *Pkcs11Client) Close() error {
	c.mu.Lock()
	c.closed = true
	sessions := c.free
	c.free = nil
	c.mu.Unlock()

	for _, s := range sessions {
		c.ctx.Logout(s.handle)
		c.ctx.CloseSession(s.handle)
	}
	c.ctx.Finalize()
	return nil
}
