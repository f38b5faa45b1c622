package awskms

import (
	"context"
	"crypto"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/metricskey"
	"github.com/effective-security/xlog"
)

// Signer implements crypto.Signer interface
type Signer struct {
	keyID             string
	label             string
	signingAlgorithms []types.SigningAlgorithmSpec
	pubKey            crypto.PublicKey
	kmsClient         KmsClient
}

// NewSigner creates new signer
func NewSigner(keyID string, label string, signingAlgorithms []types.SigningAlgorithmSpec, publicKey crypto.PublicKey, kmsClient KmsClient) *Signer {
	logger.KV(xlog.DEBUG, "id", keyID, "label", label, "algos", signingAlgorithms)
	return &Signer{
		keyID:             keyID,
		label:             label,
		signingAlgorithms: signingAlgorithms,
		pubKey:            publicKey,
		kmsClient:         kmsClient,
	}
}

// KeyID returns key id of the signer
func (s *Signer) KeyID() string {
	return s.keyID
}

// Label returns key label of the signer
func (s *Signer) Label() string {
	return s.label
}

// Public returns public key for the signer
func (s *Signer) Public() crypto.PublicKey {
	return s.pubKey
}

func (s *Signer) String() string {
	return fmt.Sprintf("id=%s, label=%s",
		s.KeyID(),
		s.Label(),
	)
}

// Sign implements signing operation.
// ECDSA signatures are returned ASN.1 encoded, as by crypto/ecdsa.
func (s *Signer) Sign(_ io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	defer metricskey.PerfKMSOperation.MeasureSince(time.Now(), ProviderName, "sign")

	alg, err := signingAlgorithm(s.pubKey, opts)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to determine signature algorithm")
	}
	algo := algorithms[alg].spec
	if !s.supports(algo) {
		return nil, errors.Errorf("signing algorithm %s is not supported by key %s", algo, s.keyID)
	}

	req := &kms.SignInput{
		KeyId:            &s.keyID,
		Message:          digest,
		MessageType:      types.MessageTypeDigest,
		SigningAlgorithm: algo,
	}
	resp, err := s.kmsClient.Sign(context.Background(), req)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to sign")
	}
	return resp.Signature, nil
}

// supports returns true if KMS reported the algorithm for the key,
// or did not report any
func (s *Signer) supports(algo types.SigningAlgorithmSpec) bool {
	if len(s.signingAlgorithms) == 0 {
		return true
	}
	for _, a := range s.signingAlgorithms {
		if a == algo {
			return true
		}
	}
	return false
}
