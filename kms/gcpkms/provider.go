// Package gcpkms provides crypto.Signer for asymmetric keys in Google Cloud KMS.
//
// Importing the package registers the "gcpkms" scheme with kms.NewSigner,
// the key ID is the resource name of the key version:
//
//	gcpkms://projects/p/locations/global/keyRings/r/cryptoKeys/k/cryptoKeyVersions/1
//
// The "endpoint" attribute overrides the API endpoint, and "insecure=true"
// disables authentication, for example for a local emulator.
package gcpkms

import (
	"context"
	"crypto"
	"net/url"
	"strconv"
	"time"

	kms "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/keyutil"
	xkms "github.com/effective-security/xjws/kms"
	"github.com/effective-security/xjws/metricskey"
	"github.com/effective-security/xlog"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xjws", "gcpkms")

const (
	// Scheme is the key URI scheme
	Scheme = "gcpkms"
	// ProviderName specifies a provider name
	ProviderName = "GCPKMS"
)

func init() {
	_ = xkms.Register(Scheme, func(ctx context.Context, keyID string, attrs url.Values) (crypto.Signer, error) {
		s, err := Load(ctx, keyID, attrs)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// KmsClient interface
type KmsClient interface {
	GetPublicKey(ctx context.Context, req *kmspb.GetPublicKeyRequest, opts ...gax.CallOption) (*kmspb.PublicKey, error)
	AsymmetricSign(ctx context.Context, req *kmspb.AsymmetricSignRequest, opts ...gax.CallOption) (*kmspb.AsymmetricSignResponse, error)
	Close() error
}

// KmsClientFactory override for unittest
var KmsClientFactory = func(ctx context.Context, opts ...option.ClientOption) (KmsClient, error) {
	return kms.NewKeyManagementClient(ctx, opts...)
}

// Config for the provider
type Config struct {
	// Endpoint overrides KMS API endpoint
	Endpoint string
	// Insecure disables authentication
	Insecure bool
}

// Provider loads KMS keys
type Provider struct {
	kmsClient KmsClient
	endpoint  string
}

// New returns Provider
func New(ctx context.Context, cfg Config) (*Provider, error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, option.WithoutAuthentication())
	}

	client, err := KmsClientFactory(ctx, opts...)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create KMS client")
	}

	logger.KV(xlog.DEBUG, "endpoint", cfg.Endpoint, "insecure", cfg.Insecure)
	return &Provider{
		kmsClient: client,
		endpoint:  cfg.Endpoint,
	}, nil
}

// Load returns Signer for the key version, with "endpoint" and "insecure"
// provider attributes
func Load(ctx context.Context, keyID string, attrs url.Values) (*Signer, error) {
	cfg := Config{
		Endpoint: attrs.Get("endpoint"),
	}
	if v := attrs.Get("insecure"); v != "" {
		insecure, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.Errorf("invalid insecure attribute: %q", v)
		}
		cfg.Insecure = insecure
	}

	p, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return p.GetKey(ctx, keyID)
}

// Close releases the KMS client
func (p *Provider) Close() error {
	return p.kmsClient.Close()
}

// GetKey returns Signer for the key version
func (p *Provider) GetKey(ctx context.Context, keyID string) (*Signer, error) {
	defer metricskey.PerfKMSOperation.MeasureSince(time.Now(), ProviderName, "getkey")

	resp, err := p.kmsClient.GetPublicKey(ctx, &kmspb.GetPublicKeyRequest{Name: keyID})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to get public key, id=%s", keyID)
	}
	if resp.PemCrc32C != nil && resp.PemCrc32C.Value != checksum([]byte(resp.Pem)) {
		return nil, errors.Errorf("public key checksum mismatch, id=%s", keyID)
	}

	pub, err := keyutil.ParsePublicKeyPEM([]byte(resp.Pem))
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to parse public key, id=%s", keyID)
	}

	return NewSigner(keyID, resp.Algorithm, pub, p.kmsClient)
}
