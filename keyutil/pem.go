// Package keyutil provides PEM encoding and parsing of the key material used
// by the signing algorithms.
package keyutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// PEM block types
const (
	TypePrivateKey    = "PRIVATE KEY"
	TypeRSAPrivateKey = "RSA PRIVATE KEY"
	TypeECPrivateKey  = "EC PRIVATE KEY"
	TypePublicKey     = "PUBLIC KEY"
	TypeRSAPublicKey  = "RSA PUBLIC KEY"
	TypeCertificate   = "CERTIFICATE"
	typeECParameters  = "EC PARAMETERS"
)

// LoadPrivateKey returns private key loaded from PEM file
func LoadPrivateKey(file string) (crypto.Signer, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ParsePrivateKeyPEM(b)
}

// ParsePrivateKeyPEM parses and returns a PEM-encoded private key.
// The private key may be either an unencrypted PKCS#8, PKCS#1 RSA,
// or SEC 1 elliptic curve private key.
func ParsePrivateKeyPEM(keyPEM []byte) (crypto.Signer, error) {
	block, err := decodeKeyBlock(keyPEM)
	if err != nil {
		return nil, err
	}
	if procType, ok := block.Headers["Proc-Type"]; ok && strings.Contains(procType, "ENCRYPTED") {
		return nil, errors.New("encrypted private key is not supported")
	}
	return ParsePrivateKeyDER(block.Bytes)
}

// ParsePrivateKeyDER parses a PKCS#8, PKCS#1 or SEC 1 DER-encoded private key
func ParsePrivateKeyDER(keyDER []byte) (crypto.Signer, error) {
	generalKey, err := x509.ParsePKCS8PrivateKey(keyDER)
	if err != nil {
		generalKey, err = x509.ParsePKCS1PrivateKey(keyDER)
		if err != nil {
			generalKey, err = x509.ParseECPrivateKey(keyDER)
			if err != nil {
				// the parser error is not included,
				// to avoid leaking information about the key
				return nil, errors.New("unable to parse private key")
			}
		}
	}

	switch k := generalKey.(type) {
	case *rsa.PrivateKey:
		return k, nil
	case *ecdsa.PrivateKey:
		return k, nil
	}
	return nil, errors.Errorf("unsupported private key: %T", generalKey)
}

// ParsePublicKeyPEM parses a PEM-encoded SubjectPublicKeyInfo, PKCS#1 RSA
// public key, or certificate, and returns the public key
func ParsePublicKeyPEM(keyPEM []byte) (crypto.PublicKey, error) {
	block, err := decodeKeyBlock(keyPEM)
	if err != nil {
		return nil, err
	}

	switch block.Type {
	case TypeCertificate:
		crt, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, errors.WithMessage(err, "unable to parse certificate")
		}
		return checkPublic(crt.PublicKey)
	case TypeRSAPublicKey:
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, errors.WithMessage(err, "unable to parse RSA public key")
		}
		return pub, nil
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		if rsaPub, rerr := x509.ParsePKCS1PublicKey(block.Bytes); rerr == nil {
			return rsaPub, nil
		}
		return nil, errors.WithMessage(err, "unable to parse public key")
	}
	return checkPublic(pub)
}

func checkPublic(pub any) (crypto.PublicKey, error) {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return k, nil
	case *ecdsa.PublicKey:
		return k, nil
	}
	return nil, errors.Errorf("unsupported public key: %T", pub)
}

// decodeKeyBlock returns the first PEM block, skipping EC PARAMETERS blocks
// that openssl includes by default
func decodeKeyBlock(in []byte) (*pem.Block, error) {
	for {
		var block *pem.Block
		block, in = pem.Decode(in)
		if block == nil {
			return nil, errors.New("key must be PEM encoded")
		}
		if block.Type != typeECParameters {
			return block, nil
		}
	}
}

// EncodePrivateKeyToPEM returns PKCS#8 PEM encoded private key
func EncodePrivateKeyToPEM(priv crypto.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: TypePrivateKey, Bytes: der}), nil
}

// EncodePublicKeyToPEM returns SubjectPublicKeyInfo PEM encoded public key
func EncodePublicKeyToPEM(pub crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: TypePublicKey, Bytes: der}), nil
}
