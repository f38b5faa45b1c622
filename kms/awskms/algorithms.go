package awskms

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"

	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/alg/es"
	"github.com/effective-security/xjws/alg/rs"
	"github.com/effective-security/xjws/jws"
)

type algorithm struct {
	// spec is the KMS signing algorithm
	spec types.SigningAlgorithmSpec
	// keySpec is the KMS key spec created for the algorithm,
	// RSA modulus size matches the hash strength
	keySpec types.KeySpec
}

var algorithms = map[jws.SigningAlgorithm]algorithm{
	jws.RS256: {spec: types.SigningAlgorithmSpecRsassaPkcs1V15Sha256, keySpec: types.KeySpecRsa2048},
	jws.RS384: {spec: types.SigningAlgorithmSpecRsassaPkcs1V15Sha384, keySpec: types.KeySpecRsa3072},
	jws.RS512: {spec: types.SigningAlgorithmSpecRsassaPkcs1V15Sha512, keySpec: types.KeySpecRsa4096},
	jws.ES256: {spec: types.SigningAlgorithmSpecEcdsaSha256, keySpec: types.KeySpecEccNistP256},
	jws.ES384: {spec: types.SigningAlgorithmSpecEcdsaSha384, keySpec: types.KeySpecEccNistP384},
	jws.ES512: {spec: types.SigningAlgorithmSpecEcdsaSha512, keySpec: types.KeySpecEccNistP521},
}

func keySpec(alg jws.SigningAlgorithm) (types.KeySpec, error) {
	a, ok := algorithms[alg]
	if !ok {
		return "", errors.Errorf("unsupported algorithm for KMS: %s", alg)
	}
	return a.keySpec, nil
}

// signingAlgorithm returns the JWS algorithm for the public key and
// the signer options passed to crypto.Signer
func signingAlgorithm(publicKey crypto.PublicKey, opts crypto.SignerOpts) (jws.SigningAlgorithm, error) {
	var family func(jws.SigningAlgorithm) bool
	switch publicKey.(type) {
	case *rsa.PublicKey:
		if _, ok := opts.(*rsa.PSSOptions); ok {
			return 0, errors.New("RSASSA-PSS is not supported")
		}
		family = rs.IsRSA
	case *ecdsa.PublicKey:
		family = es.IsECDSA
	default:
		return 0, errors.Errorf("unknown type of public key: %T", publicKey)
	}

	hash := opts.HashFunc()
	for alg := range algorithms {
		if family(alg) && alg.Hash() == hash {
			return alg, nil
		}
	}
	return 0, errors.Errorf("unsupported hash: %s", hash)
}
