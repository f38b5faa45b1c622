// Package rs implements the RSASSA-PKCS1-v1_5 algorithms: RS256, RS384 and RS512.
//
// Signer holds the private key and can both sign and verify; Verifier holds
// only the public key.
package rs

import (
	"crypto/rand"
	"crypto/rsa"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/jws"
	"github.com/effective-security/xjws/keyutil"
)

// ErrInvalidKey is returned when the key material is not a usable RSA key
var ErrInvalidKey = errors.New("rs: invalid key")

// Signer signs and verifies with an RSA private key
type Signer struct {
	Verifier
	key *rsa.PrivateKey
}

// Verifier verifies with an RSA public key
type Verifier struct {
	alg jws.SigningAlgorithm
	pub *rsa.PublicKey
}

// IsRSA returns true for RS256, RS384 and RS512
func IsRSA(alg jws.SigningAlgorithm) bool {
	switch alg {
	case jws.RS256, jws.RS384, jws.RS512:
		return alg.Available()
	}
	return false
}

// New returns Signer for the private key
func New(alg jws.SigningAlgorithm, key *rsa.PrivateKey) (*Signer, error) {
	if key == nil {
		return nil, errors.WithStack(ErrInvalidKey)
	}
	v, err := NewPublic(alg, &key.PublicKey)
	if err != nil {
		return nil, err
	}
	return &Signer{
		Verifier: *v,
		key:      key,
	}, nil
}

// NewPublic returns Verifier for the public key
func NewPublic(alg jws.SigningAlgorithm, pub *rsa.PublicKey) (*Verifier, error) {
	if !IsRSA(alg) {
		return nil, errors.Errorf("rs: unsupported algorithm: %s", alg)
	}
	if pub == nil || pub.N == nil {
		return nil, errors.WithStack(ErrInvalidKey)
	}
	return &Verifier{
		alg: alg,
		pub: pub,
	}, nil
}

// ParsePrivateKeyPEM returns Signer for PKCS#1 or PKCS#8 PEM encoded key
func ParsePrivateKeyPEM(alg jws.SigningAlgorithm, keyPEM []byte) (*Signer, error) {
	k, err := keyutil.ParsePrivateKeyPEM(keyPEM)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidKey, err.Error())
	}
	key, ok := k.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidKey, "expected RSA key, got %T", k)
	}
	return New(alg, key)
}

// ParsePublicKeyPEM returns Verifier for SPKI, PKCS#1 or certificate PEM
func ParsePublicKeyPEM(alg jws.SigningAlgorithm, keyPEM []byte) (*Verifier, error) {
	k, err := keyutil.ParsePublicKeyPEM(keyPEM)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidKey, err.Error())
	}
	pub, ok := k.(*rsa.PublicKey)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidKey, "expected RSA key, got %T", k)
	}
	return NewPublic(alg, pub)
}

// Generate returns Signer with a new random key of the specified size
func Generate(random io.Reader, alg jws.SigningAlgorithm, bits int) (*Signer, error) {
	key, err := rsa.GenerateKey(random, bits)
	if err != nil {
		return nil, errors.WithMessage(err, "rs: unable to generate key")
	}
	return New(alg, key)
}

// Public returns Verifier for the public part of the key
func (s *Signer) Public() *Verifier {
	v := s.Verifier
	return &v
}

// PrivateKey returns the private key
func (s *Signer) PrivateKey() *rsa.PrivateKey {
	return s.key
}

// PrivateKeyPEM returns the PKCS#8 PEM encoded private key
func (s *Signer) PrivateKeyPEM() ([]byte, error) {
	return keyutil.EncodePrivateKeyToPEM(s.key)
}

// Sign implements jws.Signer
func (s *Signer) Sign(data []byte) ([]byte, error) {
	hash := s.alg.Hash()
	h := hash.New()
	h.Write(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, hash, h.Sum(nil))
	if err != nil {
		return nil, errors.WithMessage(err, "rs: unable to sign")
	}
	return sig, nil
}

// SigningAlgorithm returns the algorithm
func (v *Verifier) SigningAlgorithm() jws.SigningAlgorithm {
	return v.alg
}

// PublicKey returns the public key
func (v *Verifier) PublicKey() *rsa.PublicKey {
	return v.pub
}

// PublicKeyPEM returns the SPKI PEM encoded public key
func (v *Verifier) PublicKeyPEM() ([]byte, error) {
	return keyutil.EncodePublicKeyToPEM(v.pub)
}

// Algorithm implements jws.HeaderRecommender
func (v *Verifier) Algorithm() jws.Algorithm {
	return jws.Signing(v.alg)
}

// KeyID implements jws.HeaderRecommender
func (v *Verifier) KeyID() string {
	return ""
}

// CheckHeader implements jws.HeaderValidator
func (v *Verifier) CheckHeader(header *jws.Header) bool {
	return header.Algorithm.Equal(v.alg)
}

// VerifySignature implements jws.Verifier
func (v *Verifier) VerifySignature(data, signature []byte) bool {
	hash := v.alg.Hash()
	h := hash.New()
	h.Write(data)
	return rsa.VerifyPKCS1v15(v.pub, hash, h.Sum(nil), signature) == nil
}
