// Package jwk converts JSON Web Key sets to jws verifiers, and exports public
// keys of signers as a JWK set for publishing.
package jwk

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/alg/es"
	"github.com/effective-security/xjws/alg/hs"
	"github.com/effective-security/xjws/alg/rs"
	"github.com/effective-security/xjws/jws"
	"github.com/effective-security/xjws/keyutil"
	"github.com/effective-security/xlog"
	jose "github.com/go-jose/go-jose/v3"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xjws", "jwk")

const useSignature = "sig"

// PublicKey describes a verification key to publish
type PublicKey struct {
	// ID is the key ID
	ID string
	// Algorithm is the signing algorithm of the key
	Algorithm jws.SigningAlgorithm
	// Key is *rsa.PublicKey or *ecdsa.PublicKey
	Key crypto.PublicKey
}

// LoadKeySet returns verifiers for the JWK set file
func LoadKeySet(file string) ([]jws.Verifier, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to load JWK set")
	}
	return ParseKeySet(b)
}

// ParseKeySet returns verifiers for the JWK set.
//
// Keys with a "kid" are bound to it with jws.WithKeyID, keys without one
// are checked by algorithm only. The algorithm is taken from "alg", or
// inferred from the public key when absent. Encryption keys and key types
// without a JWS algorithm here, such as OKP, are skipped.
func ParseKeySet(data []byte) ([]jws.Verifier, error) {
	var set jose.JSONWebKeySet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, errors.WithMessagef(err, "unable to parse JWK set")
	}

	var list []jws.Verifier
	for _, key := range set.Keys {
		if key.Use != "" && key.Use != useSignature {
			logger.KV(xlog.DEBUG, "reason", "not_signature_key", "kid", key.KeyID, "use", key.Use)
			continue
		}

		v, err := NewVerifier(key)
		if errors.Is(err, errUnsupportedKey) {
			logger.KV(xlog.DEBUG, "reason", "unsupported", "kid", key.KeyID, "type", fmt.Sprintf("%T", key.Key))
			continue
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid key %q", key.KeyID)
		}
		list = append(list, v)
	}
	return list, nil
}

var errUnsupportedKey = errors.New("unsupported key type")

// NewVerifier returns verifier for the JWK
func NewVerifier(key jose.JSONWebKey) (jws.Verifier, error) {
	var pub any
	switch k := key.Key.(type) {
	case []byte:
		pub = k
	case *rsa.PrivateKey:
		pub = &k.PublicKey
	case *ecdsa.PrivateKey:
		pub = &k.PublicKey
	default:
		pub = k
	}

	var alg jws.SigningAlgorithm
	var err error
	if key.Algorithm != "" {
		alg, err = jws.ParseSigningAlgorithm(key.Algorithm)
		if err != nil {
			return nil, errors.WithStack(errUnsupportedKey)
		}
	} else {
		if _, ok := pub.([]byte); ok {
			return nil, errors.New(`"alg" is required for symmetric key`)
		}
		alg, err = keyutil.DefaultAlgorithm(pub)
		if err != nil {
			return nil, errors.WithStack(errUnsupportedKey)
		}
	}

	v, err := VerifierForKey(alg, pub)
	if err != nil {
		return nil, err
	}
	if key.KeyID == "" {
		return v, nil
	}
	return jws.NewWithKeyID(key.KeyID, v), nil
}

// VerifierForKey returns verifier for the algorithm and the key:
// []byte for HMAC, *rsa.PublicKey or *ecdsa.PublicKey
func VerifierForKey(alg jws.SigningAlgorithm, key any) (jws.Verifier, error) {
	switch k := key.(type) {
	case []byte:
		v, err := hs.New(alg, k)
		if err != nil {
			return nil, err
		}
		return v, nil
	case *rsa.PublicKey:
		v, err := rs.NewPublic(alg, k)
		if err != nil {
			return nil, err
		}
		return v, nil
	case *ecdsa.PublicKey:
		v, err := es.NewPublic(alg, k)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, errors.WithStack(errUnsupportedKey)
}

// PublicKeySet returns JWK set for the public keys
func PublicKeySet(keys ...PublicKey) (*jose.JSONWebKeySet, error) {
	set := &jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{},
	}
	for _, k := range keys {
		switch k.Key.(type) {
		case *rsa.PublicKey, *ecdsa.PublicKey:
		default:
			return nil, errors.Errorf("key %q: public key not supported: %T", k.ID, k.Key)
		}
		// validates the algorithm against the key
		if _, err := VerifierForKey(k.Algorithm, k.Key); err != nil {
			return nil, errors.WithMessagef(err, "key %q", k.ID)
		}

		set.Keys = append(set.Keys, jose.JSONWebKey{
			Key:       k.Key,
			KeyID:     k.ID,
			Algorithm: k.Algorithm.String(),
			Use:       useSignature,
		})
	}
	return set, nil
}
