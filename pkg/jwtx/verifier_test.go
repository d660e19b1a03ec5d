package jwtx_test

import (
	"testing"
	"time"

	"github.com/kaszm/imagegallery/pkg/cryptox"
	"github.com/kaszm/imagegallery/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://idp.test"

func newSigner(t *testing.T, kid string) *jwtx.EdDSASigner {
	t.Helper()
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	s, err := jwtx.NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	return s
}

func sampleClaims(ttl time.Duration) jwtx.Claims {
	return jwtx.NewAccessClaims(jwtx.AccessParams{
		Subject:  "01HZY5J6Q3N8W4T2B7C9D0E1F2",
		ClientID: "imagegalleryclient",
		SID:      "sid-1",
		Scopes:   []string{"openid", "imagegallery.read"},
		AMR:      []string{jwtx.AMRPassword},
		Role:     "employee",
		Profile:  map[string][]string{"given_name": {"Ada"}},
		Issuer:   testIssuer,
		Audience: []string{"imagegalleryapi"},
		TTL:      ttl,
		Now:      time.Now().UTC(),
	})
}

func TestSignAndVerify(t *testing.T) {
	s := newSigner(t, "k1")
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(s))

	want := sampleClaims(time.Minute)
	tok, err := s.Sign(want)
	require.NoError(t, err)

	got, err := jwtx.NewVerifierEdDSA(keys, testIssuer, []string{"imagegalleryapi"}).Verify(tok)
	require.NoError(t, err)
	require.Equal(t, want.Subject, got.Subject)
	require.Equal(t, want.ClientID, got.ClientID)
	require.Equal(t, want.Scopes, got.Scopes)
	require.Equal(t, want.AMR, got.AMR)
	require.Equal(t, "employee", got.Role)
	require.Equal(t, []string{"Ada"}, got.Profile["given_name"])
	require.NotEmpty(t, got.ID)
}

func TestVerifyRejects(t *testing.T) {
	s := newSigner(t, "k1")
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(s))

	good, err := s.Sign(sampleClaims(time.Minute))
	require.NoError(t, err)

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := jwtx.NewVerifierEdDSA(keys, "https://evil", nil).Verify(good)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("wrong audience", func(t *testing.T) {
		_, err := jwtx.NewVerifierEdDSA(keys, testIssuer, []string{"billing"}).Verify(good)
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := s.Sign(sampleClaims(-time.Minute))
		require.NoError(t, err)
		_, err = jwtx.NewVerifierEdDSA(keys, testIssuer, nil).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("unknown key", func(t *testing.T) {
		tok, err := newSigner(t, "k2").Sign(sampleClaims(time.Minute))
		require.NoError(t, err)
		_, err = jwtx.NewVerifierEdDSA(keys, testIssuer, nil).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrNoKey)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := jwtx.NewVerifierEdDSA(keys, testIssuer, nil).Verify("a.b.c")
		require.Error(t, err)
	})
}

func TestSignerDerivesKID(t *testing.T) {
	s := newSigner(t, "")
	require.NotEmpty(t, s.KID())
	require.Equal(t, s.KID(), s.PublicJWK().Kid)
}

func TestKeySetResetFromJWKS(t *testing.T) {
	a, b := newSigner(t, "a"), newSigner(t, "b")

	keys := jwtx.NewKeySet()
	require.False(t, keys.IsReady())
	require.NoError(t, keys.AddSigner(a))

	require.NoError(t, keys.ResetFromJWKS(jwtx.JWKS{Keys: []jwtx.JWK{b.PublicJWK()}}))
	_, err := keys.Get("a")
	require.ErrorIs(t, err, jwtx.ErrNoKey)
	_, err = keys.Get("b")
	require.NoError(t, err)

	bad := jwtx.JWKS{Keys: []jwtx.JWK{{Kty: "RSA", Kid: "r"}}}
	require.Error(t, keys.ResetFromJWKS(bad))
	_, err = keys.Get("b")
	require.NoError(t, err)
}
