package keyutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/jws"
)

// KeyInfo provides information about the key
type KeyInfo struct {
	KeySize   int
	Type      string
	IsPrivate bool
	// Algorithm is the default signing algorithm for the key
	Algorithm jws.SigningAlgorithm
}

// NewKeyInfo returns KeyInfo for a private or public key
func NewKeyInfo(k any) (*KeyInfo, error) {
	ki := new(KeyInfo)
	pub := k

	if s, ok := k.(crypto.Signer); ok {
		ki.IsPrivate = true
		pub = s.Public()
	}

	switch typ := pub.(type) {
	case *rsa.PublicKey:
		ki.Type = "RSA"
		ki.KeySize = typ.N.BitLen()
	case *ecdsa.PublicKey:
		ki.Type = "ECDSA"
		ki.KeySize = typ.Curve.Params().BitSize
	default:
		return nil, errors.Errorf("key not supported: %T", typ)
	}

	alg, err := DefaultAlgorithm(pub)
	if err != nil {
		return nil, err
	}
	ki.Algorithm = alg
	return ki, nil
}

// DefaultAlgorithm returns the signing algorithm for the public key:
// RS512, RS384 or RS256 by RSA modulus size, and ES512, ES384 or ES256
// by the elliptic curve
func DefaultAlgorithm(pub crypto.PublicKey) (jws.SigningAlgorithm, error) {
	switch typ := pub.(type) {
	case *rsa.PublicKey:
		keySize := typ.N.BitLen()
		switch {
		case keySize >= 4096:
			return jws.RS512, nil
		case keySize >= 3072:
			return jws.RS384, nil
		default:
			return jws.RS256, nil
		}
	case *ecdsa.PublicKey:
		return CurveAlgorithm(typ.Curve)
	default:
		return 0, errors.Errorf("public key not supported: %T", typ)
	}
}

// CurveAlgorithm returns the ECDSA signing algorithm for the curve
func CurveAlgorithm(curve elliptic.Curve) (jws.SigningAlgorithm, error) {
	switch curve {
	case elliptic.P256():
		return jws.ES256, nil
	case elliptic.P384():
		return jws.ES384, nil
	case elliptic.P521():
		return jws.ES512, nil
	default:
		return 0, errors.Errorf("curve not supported: %s", curve.Params().Name)
	}
}

// Curve returns the elliptic curve for the ECDSA signing algorithm
func Curve(alg jws.SigningAlgorithm) (elliptic.Curve, error) {
	switch alg {
	case jws.ES256:
		return elliptic.P256(), nil
	case jws.ES384:
		return elliptic.P384(), nil
	case jws.ES512:
		return elliptic.P521(), nil
	default:
		return nil, errors.Errorf("not an ECDSA algorithm: %s", alg)
	}
}
