// Package es implements the ECDSA algorithms: ES256, ES384 and ES512.
//
// Signatures use the JWS representation from RFC 7518, section 3.4: the R and
// S values as fixed size big-endian octet sequences, concatenated. ECDSA
// signing is randomized, so signing the same input twice yields different
// signatures.
package es

import (
	"crypto/ecdsa"
	"crypto/rand"
	"io"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/jws"
	"github.com/effective-security/xjws/keyutil"
)

// ErrInvalidKey is returned when the key material is not a usable
// ECDSA key for the algorithm
var ErrInvalidKey = errors.New("es: invalid key")

// Signer signs and verifies with an ECDSA private key
type Signer struct {
	Verifier
	key *ecdsa.PrivateKey
}

// Verifier verifies with an ECDSA public key
type Verifier struct {
	alg jws.SigningAlgorithm
	pub *ecdsa.PublicKey
}

// IsECDSA returns true for ES256, ES384 and ES512
func IsECDSA(alg jws.SigningAlgorithm) bool {
	switch alg {
	case jws.ES256, jws.ES384, jws.ES512:
		return alg.Available()
	}
	return false
}

// New returns Signer for the private key.
// The key curve must match the algorithm.
func New(alg jws.SigningAlgorithm, key *ecdsa.PrivateKey) (*Signer, error) {
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

// NewPublic returns Verifier for the public key.
// The key curve must match the algorithm.
func NewPublic(alg jws.SigningAlgorithm, pub *ecdsa.PublicKey) (*Verifier, error) {
	if !IsECDSA(alg) {
		return nil, errors.Errorf("es: unsupported algorithm: %s", alg)
	}
	if pub == nil || pub.Curve == nil {
		return nil, errors.WithStack(ErrInvalidKey)
	}
	curve, err := keyutil.Curve(alg)
	if err != nil {
		return nil, err
	}
	if pub.Curve != curve {
		return nil, errors.Wrapf(ErrInvalidKey, "%s requires %s curve, got %s",
			alg, curve.Params().Name, pub.Curve.Params().Name)
	}
	return &Verifier{
		alg: alg,
		pub: pub,
	}, nil
}

// ParsePrivateKeyPEM returns Signer for SEC 1 or PKCS#8 PEM encoded key
func ParsePrivateKeyPEM(alg jws.SigningAlgorithm, keyPEM []byte) (*Signer, error) {
	k, err := keyutil.ParsePrivateKeyPEM(keyPEM)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidKey, err.Error())
	}
	key, ok := k.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidKey, "expected ECDSA key, got %T", k)
	}
	return New(alg, key)
}

// ParsePublicKeyPEM returns Verifier for SPKI or certificate PEM
func ParsePublicKeyPEM(alg jws.SigningAlgorithm, keyPEM []byte) (*Verifier, error) {
	k, err := keyutil.ParsePublicKeyPEM(keyPEM)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidKey, err.Error())
	}
	pub, ok := k.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidKey, "expected ECDSA key, got %T", k)
	}
	return NewPublic(alg, pub)
}

// Generate returns Signer with a new random key on the algorithm's curve
func Generate(random io.Reader, alg jws.SigningAlgorithm) (*Signer, error) {
	curve, err := keyutil.Curve(alg)
	if err != nil {
		return nil, err
	}
	key, err := ecdsa.GenerateKey(curve, random)
	if err != nil {
		return nil, errors.WithMessage(err, "es: unable to generate key")
	}
	return New(alg, key)
}

// Public returns Verifier for the public part of the key
func (s *Signer) Public() *Verifier {
	v := s.Verifier
	return &v
}

// PrivateKey returns the private key
func (s *Signer) PrivateKey() *ecdsa.PrivateKey {
	return s.key
}

// PrivateKeyPEM returns the PKCS#8 PEM encoded private key
func (s *Signer) PrivateKeyPEM() ([]byte, error) {
	return keyutil.EncodePrivateKeyToPEM(s.key)
}

// Sign implements jws.Signer
func (s *Signer) Sign(data []byte) ([]byte, error) {
	r, ss, err := ecdsa.Sign(rand.Reader, s.key, s.digest(data))
	if err != nil {
		return nil, errors.WithMessage(err, "es: unable to sign")
	}
	return EncodeSignature(s.pub.Curve.Params().BitSize, r, ss), nil
}

// SigningAlgorithm returns the algorithm
func (v *Verifier) SigningAlgorithm() jws.SigningAlgorithm {
	return v.alg
}

// PublicKey returns the public key
func (v *Verifier) PublicKey() *ecdsa.PublicKey {
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
	keySize := keyBytes(v.pub.Curve.Params().BitSize)
	if len(signature) != 2*keySize {
		return false
	}
	r := new(big.Int).SetBytes(signature[:keySize])
	s := new(big.Int).SetBytes(signature[keySize:])
	return ecdsa.Verify(v.pub, v.digest(data), r, s)
}

func (v *Verifier) digest(data []byte) []byte {
	h := v.alg.Hash().New()
	h.Write(data)
	return h.Sum(nil)
}

// EncodeSignature returns R and S as big-endian byte arrays, left padded
// with zeros to the curve size, and concatenated
func EncodeSignature(curveBits int, r, s *big.Int) []byte {
	keySize := keyBytes(curveBits)
	out := make([]byte, 2*keySize)
	r.FillBytes(out[:keySize])
	s.FillBytes(out[keySize:])
	return out
}

func keyBytes(curveBits int) int {
	n := curveBits / 8
	if curveBits%8 > 0 {
		n++
	}
	return n
}
