// Package hs implements the HMAC with SHA-2 algorithms: HS256, HS384 and HS512.
//
// RFC 7518, section 3.2 requires the key to be at least as long as the hash
// output. This is not enforced, only empty keys are rejected; it is up to the
// caller to use keys of sufficient strength, for example from GenerateKey.
package hs

import (
	"crypto/hmac"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/jws"
)

// ErrInvalidKey is returned when the key is empty
var ErrInvalidKey = errors.New("hs: invalid key")

// Key is a symmetric key bound to an HMAC algorithm.
// It implements both jws.Signer and jws.Verifier.
type Key struct {
	alg jws.SigningAlgorithm
	key []byte
}

// New returns HMAC key for the algorithm
func New(alg jws.SigningAlgorithm, key []byte) (*Key, error) {
	if !IsHMAC(alg) {
		return nil, errors.Errorf("hs: unsupported algorithm: %s", alg)
	}
	if len(key) == 0 {
		return nil, errors.WithStack(ErrInvalidKey)
	}
	return &Key{
		alg: alg,
		key: append([]byte(nil), key...),
	}, nil
}

// NewHS256 returns HS256 key
func NewHS256(key []byte) (*Key, error) {
	return New(jws.HS256, key)
}

// NewHS384 returns HS384 key
func NewHS384(key []byte) (*Key, error) {
	return New(jws.HS384, key)
}

// NewHS512 returns HS512 key
func NewHS512(key []byte) (*Key, error) {
	return New(jws.HS512, key)
}

// GenerateKey returns a random key of the hash output size for the algorithm
func GenerateKey(rand io.Reader, alg jws.SigningAlgorithm) ([]byte, error) {
	if !IsHMAC(alg) {
		return nil, errors.Errorf("hs: unsupported algorithm: %s", alg)
	}
	key := make([]byte, alg.Hash().Size())
	if _, err := io.ReadFull(rand, key); err != nil {
		return nil, errors.WithMessage(err, "hs: unable to generate key")
	}
	return key, nil
}

// IsHMAC returns true for HS256, HS384 and HS512
func IsHMAC(alg jws.SigningAlgorithm) bool {
	switch alg {
	case jws.HS256, jws.HS384, jws.HS512:
		return alg.Available()
	}
	return false
}

// SigningAlgorithm returns the algorithm of the key
func (k *Key) SigningAlgorithm() jws.SigningAlgorithm {
	return k.alg
}

// Algorithm implements jws.HeaderRecommender
func (k *Key) Algorithm() jws.Algorithm {
	return jws.Signing(k.alg)
}

// KeyID implements jws.HeaderRecommender
func (k *Key) KeyID() string {
	return ""
}

// Sign implements jws.Signer
func (k *Key) Sign(data []byte) ([]byte, error) {
	return k.mac(data), nil
}

// CheckHeader implements jws.HeaderValidator
func (k *Key) CheckHeader(header *jws.Header) bool {
	return header.Algorithm.Equal(k.alg)
}

// VerifySignature implements jws.Verifier
func (k *Key) VerifySignature(data, signature []byte) bool {
	return hmac.Equal(k.mac(data), signature)
}

// a new MAC per call, so the key is safe for concurrent use
func (k *Key) mac(data []byte) []byte {
	h := hmac.New(k.alg.Hash().New, k.key)
	h.Write(data)
	return h.Sum(nil)
}
