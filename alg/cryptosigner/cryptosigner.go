// Package cryptosigner adapts a crypto.Signer, such as an in-memory private key
// or a key held by a KMS, to jws.Signer.
package cryptosigner

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/alg/es"
	"github.com/effective-security/xjws/alg/rs"
	"github.com/effective-security/xjws/jws"
	"github.com/effective-security/xjws/keyutil"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// Signer signs the JWS signing input with a crypto.Signer
type Signer struct {
	signer  crypto.Signer
	alg     jws.SigningAlgorithm
	kid     string
	keySize int
}

// AlgorithmProvider is implemented by crypto.Signer bound to a single
// signing algorithm, such as a KMS key version
type AlgorithmProvider interface {
	SigningAlgorithm() jws.SigningAlgorithm
}

// Option configures the Signer
type Option func(*Signer)

// WithAlgorithm overrides the algorithm inferred from the public key
func WithAlgorithm(alg jws.SigningAlgorithm) Option {
	return func(s *Signer) {
		s.alg = alg
	}
}

// WithKeyID sets the key ID recommended for the header
func WithKeyID(kid string) Option {
	return func(s *Signer) {
		s.kid = kid
	}
}

// New returns Signer for the crypto.Signer.
// Unless WithAlgorithm is provided or the signer implements AlgorithmProvider,
// the algorithm is chosen by keyutil.DefaultAlgorithm for the public key.
func New(signer crypto.Signer, opts ...Option) (*Signer, error) {
	s := &Signer{
		signer: signer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if ap, ok := signer.(AlgorithmProvider); ok && s.alg == 0 {
		s.alg = ap.SigningAlgorithm()
	}

	pub := signer.Public()
	if s.alg == 0 {
		alg, err := keyutil.DefaultAlgorithm(pub)
		if err != nil {
			return nil, err
		}
		s.alg = alg
	}

	switch typ := pub.(type) {
	case *rsa.PublicKey:
		s.keySize = typ.N.BitLen()
		if !rs.IsRSA(s.alg) {
			return nil, errors.Errorf("algorithm %s does not match RSA key", s.alg)
		}
	case *ecdsa.PublicKey:
		s.keySize = typ.Curve.Params().BitSize
		alg, err := keyutil.CurveAlgorithm(typ.Curve)
		if err != nil {
			return nil, err
		}
		if s.alg != alg {
			return nil, errors.Errorf("algorithm %s does not match ECDSA key on %s", s.alg, typ.Curve.Params().Name)
		}
	default:
		return nil, errors.Errorf("public key not supported: %T", typ)
	}

	if !s.alg.Available() {
		return nil, errors.Errorf("algorithm not available: %s", s.alg)
	}
	return s, nil
}

// SigningAlgorithm returns the algorithm
func (s *Signer) SigningAlgorithm() jws.SigningAlgorithm {
	return s.alg
}

// KeySize returns the size of the key in bits
func (s *Signer) KeySize() int {
	return s.keySize
}

// Algorithm implements jws.HeaderRecommender
func (s *Signer) Algorithm() jws.Algorithm {
	return jws.Signing(s.alg)
}

// KeyID implements jws.HeaderRecommender
func (s *Signer) KeyID() string {
	return s.kid
}

// Public returns the public key
func (s *Signer) Public() crypto.PublicKey {
	return s.signer.Public()
}

// Verifier returns verifier for the public key
func (s *Signer) Verifier() (jws.Verifier, error) {
	switch pub := s.signer.Public().(type) {
	case *rsa.PublicKey:
		v, err := rs.NewPublic(s.alg, pub)
		if err != nil {
			return nil, err
		}
		return v, nil
	case *ecdsa.PublicKey:
		v, err := es.NewPublic(s.alg, pub)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, errors.Errorf("public key not supported: %T", s.signer.Public())
}

// Sign implements jws.Signer
func (s *Signer) Sign(data []byte) ([]byte, error) {
	hash := s.alg.Hash()
	h := hash.New()
	h.Write(data)

	sig, err := s.signer.Sign(rand.Reader, h.Sum(nil), hash)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to sign")
	}

	if es.IsECDSA(s.alg) {
		// crypto.Signer returns ASN.1 SEQUENCE { r, s }
		return convertECDSASignature(sig, s.keySize)
	}
	return sig, nil
}

func convertECDSASignature(sig []byte, curveBits int) ([]byte, error) {
	var (
		r, s  = &big.Int{}, &big.Int{}
		inner cryptobyte.String
	)
	input := cryptobyte.String(sig)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(r) ||
		!inner.ReadASN1Integer(s) ||
		!inner.Empty() {
		return nil, errors.New("unable to decode ECDSA signature")
	}
	return es.EncodeSignature(curveBits, r, s), nil
}
