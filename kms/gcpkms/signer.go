package gcpkms

import (
	"context"
	"crypto"
	"crypto/rsa"
	"fmt"
	"hash/crc32"
	"io"
	"time"

	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/jws"
	"github.com/effective-security/xjws/metricskey"
	"github.com/effective-security/xlog"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type signingAlgorithm struct {
	hash crypto.Hash
	pss  bool
	alg  jws.SigningAlgorithm
}

// algorithms lists supported asymmetric signing key versions
var algorithms = map[kmspb.CryptoKeyVersion_CryptoKeyVersionAlgorithm]signingAlgorithm{
	kmspb.CryptoKeyVersion_RSA_SIGN_PKCS1_2048_SHA256: {hash: crypto.SHA256, alg: jws.RS256},
	kmspb.CryptoKeyVersion_RSA_SIGN_PKCS1_3072_SHA256: {hash: crypto.SHA256, alg: jws.RS256},
	kmspb.CryptoKeyVersion_RSA_SIGN_PKCS1_4096_SHA256: {hash: crypto.SHA256, alg: jws.RS256},
	kmspb.CryptoKeyVersion_RSA_SIGN_PKCS1_4096_SHA512: {hash: crypto.SHA512, alg: jws.RS512},
	kmspb.CryptoKeyVersion_RSA_SIGN_PSS_2048_SHA256:   {hash: crypto.SHA256, pss: true},
	kmspb.CryptoKeyVersion_RSA_SIGN_PSS_3072_SHA256:   {hash: crypto.SHA256, pss: true},
	kmspb.CryptoKeyVersion_RSA_SIGN_PSS_4096_SHA256:   {hash: crypto.SHA256, pss: true},
	kmspb.CryptoKeyVersion_RSA_SIGN_PSS_4096_SHA512:   {hash: crypto.SHA512, pss: true},
	kmspb.CryptoKeyVersion_EC_SIGN_P256_SHA256:        {hash: crypto.SHA256, alg: jws.ES256},
	kmspb.CryptoKeyVersion_EC_SIGN_P384_SHA384:        {hash: crypto.SHA384, alg: jws.ES384},
}

var crc32c = crc32.MakeTable(crc32.Castagnoli)

func checksum(b []byte) int64 {
	return int64(crc32.Checksum(b, crc32c))
}

// Signer implements crypto.Signer interface
type Signer struct {
	keyID     string
	algorithm kmspb.CryptoKeyVersion_CryptoKeyVersionAlgorithm
	sa        signingAlgorithm
	pubKey    crypto.PublicKey
	kmsClient KmsClient
}

// NewSigner creates new signer for the key version
func NewSigner(keyID string, algorithm kmspb.CryptoKeyVersion_CryptoKeyVersionAlgorithm, publicKey crypto.PublicKey, kmsClient KmsClient) (*Signer, error) {
	sa, ok := algorithms[algorithm]
	if !ok {
		return nil, errors.Errorf("key is not for signing, id=%s, algorithm=%s", keyID, algorithm)
	}

	logger.KV(xlog.DEBUG, "id", keyID, "algorithm", algorithm)
	return &Signer{
		keyID:     keyID,
		algorithm: algorithm,
		sa:        sa,
		pubKey:    publicKey,
		kmsClient: kmsClient,
	}, nil
}

// KeyID returns the resource name of the key version
func (s *Signer) KeyID() string {
	return s.keyID
}

// Algorithm returns the KMS algorithm of the key version
func (s *Signer) Algorithm() kmspb.CryptoKeyVersion_CryptoKeyVersionAlgorithm {
	return s.algorithm
}

// SigningAlgorithm returns the JWS algorithm matching the key version,
// or zero for RSA-PSS keys which have no JWS algorithm here
func (s *Signer) SigningAlgorithm() jws.SigningAlgorithm {
	return s.sa.alg
}

// Public returns public key for the signer
func (s *Signer) Public() crypto.PublicKey {
	return s.pubKey
}

func (s *Signer) String() string {
	return fmt.Sprintf("id=%s, algorithm=%s", s.keyID, s.algorithm)
}

// Sign implements signing operation.
// The hash in opts must match the hash of the key version algorithm.
func (s *Signer) Sign(_ io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	defer metricskey.PerfKMSOperation.MeasureSince(time.Now(), ProviderName, "sign")

	_, pss := opts.(*rsa.PSSOptions)
	if opts.HashFunc() != s.sa.hash || pss != s.sa.pss {
		return nil, errors.Errorf("key %s with algorithm %s does not support %s signature", s.keyID, s.algorithm, opts.HashFunc())
	}

	d := &kmspb.Digest{}
	switch s.sa.hash {
	case crypto.SHA256:
		d.Digest = &kmspb.Digest_Sha256{Sha256: digest}
	case crypto.SHA384:
		d.Digest = &kmspb.Digest_Sha384{Sha384: digest}
	case crypto.SHA512:
		d.Digest = &kmspb.Digest_Sha512{Sha512: digest}
	}

	req := &kmspb.AsymmetricSignRequest{
		Name:         s.keyID,
		Digest:       d,
		DigestCrc32C: wrapperspb.Int64(checksum(digest)),
	}
	resp, err := s.kmsClient.AsymmetricSign(context.Background(), req)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to sign")
	}
	if !resp.VerifiedDigestCrc32C {
		return nil, errors.New("digest corrupted in transit")
	}
	if resp.SignatureCrc32C == nil || resp.SignatureCrc32C.Value != checksum(resp.Signature) {
		return nil, errors.New("signature corrupted in transit")
	}
	return resp.Signature, nil
}
