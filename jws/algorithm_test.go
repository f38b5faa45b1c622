package jws_test

import (
	"crypto"
	"encoding/json"
	"strings"
	"testing"

	"github.com/effective-security/xjws/jws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigningAlgorithmNames(t *testing.T) {
	assert.Equal(t, []string{"HS256", "HS384", "HS512", "RS256", "RS384", "RS512", "ES256", "ES384", "ES512"},
		jws.SigningAlgorithmNames())
	assert.Len(t, jws.SigningAlgorithms(), 9)

	for _, alg := range jws.SigningAlgorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			assert.True(t, alg.Available())

			parsed, err := jws.ParseSigningAlgorithm(alg.String())
			require.NoError(t, err)
			assert.Equal(t, alg, parsed)

			_, err = jws.ParseSigningAlgorithm(strings.ToLower(alg.String()))
			require.Error(t, err)

			text, err := alg.MarshalText()
			require.NoError(t, err)
			var back jws.SigningAlgorithm
			require.NoError(t, back.UnmarshalText(text))
			assert.Equal(t, alg, back)
		})
	}
}

func TestSigningAlgorithmHash(t *testing.T) {
	tcases := map[jws.SigningAlgorithm]crypto.Hash{
		jws.HS256: crypto.SHA256,
		jws.HS384: crypto.SHA384,
		jws.HS512: crypto.SHA512,
		jws.RS256: crypto.SHA256,
		jws.RS384: crypto.SHA384,
		jws.RS512: crypto.SHA512,
		jws.ES256: crypto.SHA256,
		jws.ES384: crypto.SHA384,
		jws.ES512: crypto.SHA512,
	}
	for alg, hash := range tcases {
		assert.Equal(t, hash, alg.Hash(), alg.String())
		assert.True(t, alg.Hash().Available(), alg.String())
	}

	unknown := jws.SigningAlgorithm(200)
	assert.Equal(t, "SigningAlgorithm(200)", unknown.String())
	assert.False(t, unknown.Available())
	assert.Equal(t, crypto.Hash(0), unknown.Hash())
	_, err := unknown.MarshalText()
	assert.EqualError(t, err, "unsupported algorithm: SigningAlgorithm(200)")
}

func TestUnrecognizedAlgorithm(t *testing.T) {
	_, err := jws.ParseSigningAlgorithm("hs256")
	require.Error(t, err)

	var ue *jws.UnrecognizedAlgorithmError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "hs256", ue.Name)
	assert.Equal(t, jws.SigningAlgorithmNames(), ue.Accepted)
	assert.Equal(t, `unrecognized algorithm "hs256", expected one of: HS256, HS384, HS512, RS256, RS384, RS512, ES256, ES384, ES512`, err.Error())
	assert.True(t, jws.IsMalformed(err))

	_, err = jws.ParseSigningAlgorithm("none")
	assert.Error(t, err)
	_, err = jws.ParseSigningAlgorithm("")
	assert.Error(t, err)
}

func TestAlgorithm(t *testing.T) {
	assert.True(t, jws.None.IsNone())
	assert.Equal(t, "none", jws.None.String())
	_, ok := jws.None.SigningAlgorithm()
	assert.False(t, ok)

	var zero jws.Algorithm
	assert.Equal(t, jws.None, zero)

	hs := jws.Signing(jws.HS256)
	assert.False(t, hs.IsNone())
	assert.Equal(t, "HS256", hs.String())
	alg, ok := hs.SigningAlgorithm()
	assert.True(t, ok)
	assert.Equal(t, jws.HS256, alg)

	assert.True(t, hs.Equal(jws.HS256))
	assert.False(t, hs.Equal(jws.HS384))
	assert.False(t, hs.Equal(jws.RS256))
	for _, a := range jws.SigningAlgorithms() {
		assert.False(t, jws.None.Equal(a))
	}
	assert.False(t, jws.None.Equal(0))

	a, err := jws.ParseAlgorithm("none")
	require.NoError(t, err)
	assert.True(t, a.IsNone())

	a, err = jws.ParseAlgorithm("ES384")
	require.NoError(t, err)
	assert.Equal(t, jws.Signing(jws.ES384), a)

	_, err = jws.ParseAlgorithm("None")
	assert.Error(t, err)
	_, err = jws.ParseAlgorithm("es384")
	assert.Error(t, err)
}

func TestAlgorithmJSON(t *testing.T) {
	tcases := []struct {
		alg  jws.Algorithm
		json string
	}{
		{jws.None, `"none"`},
		{jws.Signing(jws.HS256), `"HS256"`},
		{jws.Signing(jws.RS512), `"RS512"`},
		{jws.Signing(jws.ES384), `"ES384"`},
	}
	for _, tc := range tcases {
		b, err := json.Marshal(tc.alg)
		require.NoError(t, err)
		assert.Equal(t, tc.json, string(b))

		var back jws.Algorithm
		require.NoError(t, json.Unmarshal(b, &back))
		assert.Equal(t, tc.alg, back)
	}

	var a jws.Algorithm
	for _, bad := range []string{`{"Signing":"HS256"}`, `1`, `null`, `"hs256"`, `"NONE"`, `["HS256"]`} {
		assert.Error(t, json.Unmarshal([]byte(bad), &a), bad)
	}

	_, err := json.Marshal(jws.Signing(jws.SigningAlgorithm(99)))
	assert.Error(t, err)
}
