// Package awskms provides crypto.Signer for asymmetric keys in AWS KMS.
//
// Importing the package registers the "awskms" scheme with kms.NewSigner:
//
//	awskms://<key-id-or-arn>?region=us-west-2&endpoint=http://localhost:4566
//
// Credentials are taken from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
// AWS_SESSION_TOKEN when set, otherwise from the default AWS credential chain.
package awskms

import (
	"context"
	"crypto"
	"crypto/x509"
	"net/url"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/jws"
	xkms "github.com/effective-security/xjws/kms"
	"github.com/effective-security/xjws/metricskey"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xjws", "awskms")

const (
	// Scheme is the key URI scheme
	Scheme = "awskms"
	// ProviderName specifies a provider name
	ProviderName = "AWSKMS"
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
	CreateKey(context.Context, *kms.CreateKeyInput, ...func(*kms.Options)) (*kms.CreateKeyOutput, error)
	DescribeKey(context.Context, *kms.DescribeKeyInput, ...func(*kms.Options)) (*kms.DescribeKeyOutput, error)
	GetPublicKey(context.Context, *kms.GetPublicKeyInput, ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	Sign(context.Context, *kms.SignInput, ...func(*kms.Options)) (*kms.SignOutput, error)
}

// KmsClientFactory override for unittest
var KmsClientFactory = func(cfg aws.Config, optFns ...func(*kms.Options)) KmsClient {
	return kms.NewFromConfig(cfg, optFns...)
}

// Config for the provider
type Config struct {
	// Region is AWS region, the default region is used if empty
	Region string
	// Endpoint overrides KMS endpoint, for example for a local emulator
	Endpoint string
}

// Provider creates and loads KMS keys
type Provider struct {
	kmsClient KmsClient
	endpoint  string
	region    string
}

// New returns Provider
func New(ctx context.Context, cfg Config) (*Provider, error) {
	p := &Provider{
		endpoint: cfg.Endpoint,
		region:   cfg.Region,
	}

	var awsops []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		awsops = append(awsops, awsconfig.WithRegion(cfg.Region))
	}

	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	token := os.Getenv("AWS_SESSION_TOKEN")
	if id != "" && secret != "" {
		awsops = append(awsops, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(id, secret, token)))
	}

	awscfg, err := awsconfig.LoadDefaultConfig(ctx, awsops...)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var kmsops []func(*kms.Options)
	if cfg.Endpoint != "" {
		kmsops = append(kmsops, func(o *kms.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	p.kmsClient = KmsClientFactory(awscfg, kmsops...)

	logger.KV(xlog.DEBUG, "region", p.region, "endpoint", p.endpoint)
	return p, nil
}

// Load returns Signer for the key, with "region" and "endpoint"
// provider attributes
func Load(ctx context.Context, keyID string, attrs url.Values) (*Signer, error) {
	p, err := New(ctx, Config{
		Region:   attrs.Get("region"),
		Endpoint: attrs.Get("endpoint"),
	})
	if err != nil {
		return nil, err
	}
	return p.GetKey(ctx, keyID)
}

// GetKey returns Signer for the key
func (p *Provider) GetKey(ctx context.Context, keyID string) (*Signer, error) {
	defer metricskey.PerfKMSOperation.MeasureSince(time.Now(), ProviderName, "getkey")

	ki, err := p.kmsClient.DescribeKey(ctx, &kms.DescribeKeyInput{KeyId: &keyID})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to describe key, id=%s", keyID)
	}
	if ki.KeyMetadata.KeyUsage != types.KeyUsageTypeSignVerify {
		return nil, errors.Errorf("key is not for signing, id=%s, usage=%s", keyID, ki.KeyMetadata.KeyUsage)
	}

	return p.newSigner(ctx, keyID, aws.ToString(ki.KeyMetadata.Description))
}

// GenerateKey creates a signing key in KMS for the algorithm
func (p *Provider) GenerateKey(ctx context.Context, alg jws.SigningAlgorithm, label string) (*Signer, error) {
	defer metricskey.PerfKMSOperation.MeasureSince(time.Now(), ProviderName, "genkey")

	spec, err := keySpec(alg)
	if err != nil {
		return nil, err
	}

	resp, err := p.kmsClient.CreateKey(ctx, &kms.CreateKeyInput{
		KeySpec:     spec,
		KeyUsage:    types.KeyUsageTypeSignVerify,
		Description: &label,
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create key with label: %q", label)
	}

	keyID := aws.ToString(resp.KeyMetadata.KeyId)
	logger.KV(xlog.INFO, "arn", aws.ToString(resp.KeyMetadata.Arn), "id", keyID, "label", label, "alg", alg)

	return p.newSigner(ctx, keyID, label)
}

func (p *Provider) newSigner(ctx context.Context, keyID, label string) (*Signer, error) {
	resp, err := p.kmsClient.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: &keyID})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to get public key, id=%s", keyID)
	}

	pub, err := x509.ParsePKIXPublicKey(resp.PublicKey)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to parse public key, id=%s", keyID)
	}
	return NewSigner(keyID, label, resp.SigningAlgorithms, pub, p.kmsClient), nil
}
