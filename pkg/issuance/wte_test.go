package issuance

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eudi-wallet/trustcore/pkg/sessionstore"
)

func signWTE(t *testing.T, priv *ecdsa.PrivateKey, exp time.Time) WTE {
	t.Helper()
	token := jwtv5.NewWithClaims(jwtv5.SigningMethodES256, jwtv5.MapClaims{
		"iss": "https://wallet-provider.example",
		"sub": "wallet-instance-1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString(priv)
	require.NoError(t, err)
	return WTE(signed)
}

func TestVerifyWTE_AcceptsFreshToken(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tracker := sessionstore.NewMemoryWteTracker()
	wte := signWTE(t, priv, time.Now().Add(time.Hour))

	err = VerifyWTE(context.Background(), wte, &priv.PublicKey, tracker)
	assert.NoError(t, err)
}

func TestVerifyWTE_RejectsReplay(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tracker := sessionstore.NewMemoryWteTracker()
	wte := signWTE(t, priv, time.Now().Add(time.Hour))

	require.NoError(t, VerifyWTE(context.Background(), wte, &priv.PublicKey, tracker))

	err = VerifyWTE(context.Background(), wte, &priv.PublicKey, tracker)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWteReplay))
}

func TestVerifyWTE_RejectsBadSignature(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	other, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tracker := sessionstore.NewMemoryWteTracker()
	wte := signWTE(t, priv, time.Now().Add(time.Hour))

	err = VerifyWTE(context.Background(), wte, &other.PublicKey, tracker)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidWte))
}

func TestVerifyWTE_RejectsMissingToken(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tracker := sessionstore.NewMemoryWteTracker()
	err = VerifyWTE(context.Background(), "", &priv.PublicKey, tracker)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingWte))
}
