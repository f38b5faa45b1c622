package cryptosigner_test

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"testing"

	"github.com/effective-security/xjws/alg/cryptosigner"
	"github.com/effective-security/xjws/jws"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type claims struct {
	Subject string `json:"sub"`
}

func TestSignVerify(t *testing.T) {
	rsa2048, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	rsa3072, err := rsa.GenerateKey(rand.Reader, 3072)
	require.NoError(t, err)
	p256, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	p384, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	p521, err := ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	require.NoError(t, err)

	tcases := []struct {
		name    string
		key     crypto.Signer
		opts    []cryptosigner.Option
		alg     jws.SigningAlgorithm
		keySize int
	}{
		{"RSA2048", rsa2048, nil, jws.RS256, 2048},
		{"RSA3072", rsa3072, nil, jws.RS384, 3072},
		{"RSA2048/RS512", rsa2048, []cryptosigner.Option{cryptosigner.WithAlgorithm(jws.RS512)}, jws.RS512, 2048},
		{"P256", p256, nil, jws.ES256, 256},
		{"P384", p384, []cryptosigner.Option{cryptosigner.WithAlgorithm(jws.ES384)}, jws.ES384, 384},
		{"P521", p521, nil, jws.ES512, 521},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := cryptosigner.New(tc.key, append(tc.opts, cryptosigner.WithKeyID("k1"))...)
			require.NoError(t, err)
			assert.Equal(t, tc.alg, s.SigningAlgorithm())
			assert.Equal(t, tc.keySize, s.KeySize())
			assert.Equal(t, jws.Signing(tc.alg), s.Algorithm())
			assert.Equal(t, "k1", s.KeyID())
			assert.Equal(t, tc.key.Public(), s.Public())

			token, err := jws.New(jws.None, claims{Subject: "denis"}).
				ApplyRecommendation(s).
				SignWith(s)
			require.NoError(t, err)

			raw, err := jws.Decode(token)
			require.NoError(t, err)
			assert.Equal(t, "k1", raw.Header.KeyID)
			assert.True(t, raw.Header.Algorithm.Equal(tc.alg))

			v, err := s.Verifier()
			require.NoError(t, err)
			assert.True(t, raw.VerifySignature(v))
			assert.True(t, raw.VerifySignature(jws.NewWithKeyID("k1", v)))
			assert.False(t, raw.VerifySignature(jws.NewWithKeyID("k2", v)))

			// interop
			parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
				return tc.key.Public(), nil
			}, jwt.WithValidMethods([]string{tc.alg.String()}))
			require.NoError(t, err)
			assert.True(t, parsed.Valid)
			sub, err := parsed.Claims.GetSubject()
			require.NoError(t, err)
			assert.Equal(t, "denis", sub)
		})
	}
}

func TestNewErrors(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	_, err = cryptosigner.New(rsaKey, cryptosigner.WithAlgorithm(jws.ES256))
	assert.EqualError(t, err, "algorithm ES256 does not match RSA key")

	_, err = cryptosigner.New(rsaKey, cryptosigner.WithAlgorithm(jws.HS256))
	assert.EqualError(t, err, "algorithm HS256 does not match RSA key")

	_, err = cryptosigner.New(ecKey, cryptosigner.WithAlgorithm(jws.ES384))
	assert.EqualError(t, err, "algorithm ES384 does not match ECDSA key on P-256")

	_, err = cryptosigner.New(edKey)
	assert.EqualError(t, err, "public key not supported: ed25519.PublicKey")

	_, err = cryptosigner.New(edKey, cryptosigner.WithAlgorithm(jws.ES256))
	assert.EqualError(t, err, "public key not supported: ed25519.PublicKey")

	// the reason is reported when no algorithm fits the key
	p224Key, err := ecdsa.GenerateKey(elliptic.P224(), rand.Reader)
	require.NoError(t, err)
	_, err = cryptosigner.New(p224Key)
	assert.EqualError(t, err, "curve not supported: P-224")
}

type failingSigner struct {
	crypto.Signer
	sig []byte
	err error
}

func (s *failingSigner) Sign(_ io.Reader, _ []byte, _ crypto.SignerOpts) ([]byte, error) {
	return s.sig, s.err
}

func TestSignErrors(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	s, err := cryptosigner.New(&failingSigner{Signer: ecKey, err: assert.AnError})
	require.NoError(t, err)
	_, err = s.Sign([]byte("a.b"))
	assert.ErrorIs(t, err, assert.AnError)

	_, err = jws.New(jws.None, claims{}).ApplyRecommendation(s).SignWith(s)
	var se *jws.SignError
	assert.ErrorAs(t, err, &se)

	s, err = cryptosigner.New(&failingSigner{Signer: ecKey, sig: []byte{0x30, 0x01}})
	require.NoError(t, err)
	_, err = s.Sign([]byte("a.b"))
	assert.EqualError(t, err, "unable to decode ECDSA signature")
}
