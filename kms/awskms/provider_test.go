package awskms_test

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/alg/cryptosigner"
	"github.com/effective-security/xjws/jws"
	xkms "github.com/effective-security/xjws/kms"
	"github.com/effective-security/xjws/kms/awskms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_KmsProvider(t *testing.T) {
	mock := setupMock(t)

	ctx := context.Background()
	prov, err := awskms.New(ctx, awskms.Config{
		Region:   "eu-west-2",
		Endpoint: "http://localhost:14556",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:14556", mock.endpoint)

	algs := []jws.SigningAlgorithm{
		jws.RS256,
		jws.ES256,
		jws.ES384,
		jws.ES512,
	}
	for _, alg := range algs {
		t.Run(alg.String(), func(t *testing.T) {
			label := fmt.Sprintf("test_%s", alg)
			s, err := prov.GenerateKey(ctx, alg, label)
			require.NoError(t, err)
			assert.Equal(t, label, s.Label())
			assert.NotEmpty(t, s.KeyID())
			assert.Equal(t, fmt.Sprintf("id=%s, label=%s", s.KeyID(), label), s.String())

			loaded, err := prov.GetKey(ctx, s.KeyID())
			require.NoError(t, err)
			assert.Equal(t, label, loaded.Label())

			js, err := cryptosigner.New(loaded, cryptosigner.WithKeyID(s.KeyID()))
			require.NoError(t, err)
			assert.Equal(t, alg, js.SigningAlgorithm())

			token, err := jws.New(jws.Signing(alg), map[string]string{"sub": "kms"}).
				ApplyRecommendation(js).
				SignWith(js)
			require.NoError(t, err)

			v, err := js.Verifier()
			require.NoError(t, err)
			raw, err := jws.Decode(token)
			require.NoError(t, err)
			assert.Equal(t, s.KeyID(), raw.Header.KeyID)
			assert.True(t, raw.VerifySignature(v))
		})
	}

	_, err = prov.GenerateKey(ctx, jws.HS256, "hmac")
	assert.EqualError(t, err, "unsupported algorithm for KMS: HS256")

	_, err = prov.GetKey(ctx, "missing")
	assert.EqualError(t, err, "failed to describe key, id=missing: key not found: missing")

	encKey := mock.addKey(&mockKey{id: "enc", usage: types.KeyUsageTypeEncryptDecrypt})
	_, err = prov.GetKey(ctx, encKey)
	assert.EqualError(t, err, "key is not for signing, id=enc, usage=ENCRYPT_DECRYPT")
}

func Test_NewSignerURI(t *testing.T) {
	mock := setupMock(t)

	pvk, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	keyID := mock.addKey(&mockKey{
		id:    "arn:aws:kms:us-west-2:111122223333:key/1234abcd",
		label: "uri",
		usage: types.KeyUsageTypeSignVerify,
		pvk:   pvk,
	})

	assert.Contains(t, xkms.Registered(), awskms.Scheme)

	signer, err := xkms.NewSigner(context.Background(), "awskms://"+keyID+"?region=us-west-2&endpoint=http://localhost:4566")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4566", mock.endpoint)
	assert.True(t, pvk.PublicKey.Equal(signer.Public()))

	kmsSigner := signer.(*awskms.Signer)
	assert.Equal(t, keyID, kmsSigner.KeyID())
	assert.Equal(t, "uri", kmsSigner.Label())

	_, err = xkms.NewSigner(context.Background(), "awskms://notfound")
	assert.Error(t, err)
}

func Test_SignErrors(t *testing.T) {
	mock := setupMock(t)
	ctx := context.Background()

	prov, err := awskms.New(ctx, awskms.Config{})
	require.NoError(t, err)

	s, err := prov.GenerateKey(ctx, jws.ES256, "errors")
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("data"))

	_, err = s.Sign(rand.Reader, digest[:], crypto.SHA1)
	assert.EqualError(t, err, "unable to determine signature algorithm: unsupported hash: SHA-1")

	_, err = s.Sign(rand.Reader, digest[:], crypto.SHA384)
	assert.EqualError(t, err, "signing algorithm ECDSA_SHA_384 is not supported by key "+s.KeyID())

	mock.signErr = errors.New("throttled")
	_, err = s.Sign(rand.Reader, digest[:], crypto.SHA256)
	assert.EqualError(t, err, "unable to sign: throttled")

	rsaSigner := awskms.NewSigner("rsa", "", nil, &rsa.PublicKey{}, mock)
	mock.signErr = nil
	_, err = rsaSigner.Sign(rand.Reader, digest[:], &rsa.PSSOptions{Hash: crypto.SHA256})
	assert.EqualError(t, err, "unable to determine signature algorithm: RSASSA-PSS is not supported")

	_, err = rsaSigner.Sign(rand.Reader, digest[:], crypto.SHA512)
	require.Error(t, err)
	assert.Equal(t, types.SigningAlgorithmSpecRsassaPkcs1V15Sha512, mock.lastAlgo)

	unknown := awskms.NewSigner("x", "", nil, "key", mock)
	_, err = unknown.Sign(rand.Reader, digest[:], crypto.SHA256)
	assert.EqualError(t, err, "unable to determine signature algorithm: unknown type of public key: string")
}

func setupMock(t *testing.T) *mockKMS {
	t.Setenv("AWS_ACCESS_KEY_ID", "notusedbyemulator")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "notusedbyemulator")
	t.Setenv("AWS_DEFAULT_REGION", "us-west-2")

	mock := &mockKMS{keys: map[string]*mockKey{}}

	saved := awskms.KmsClientFactory
	awskms.KmsClientFactory = func(cfg aws.Config, optFns ...func(*kms.Options)) awskms.KmsClient {
		o := kms.Options{}
		for _, fn := range optFns {
			fn(&o)
		}
		mock.endpoint = aws.ToString(o.BaseEndpoint)
		return mock
	}
	t.Cleanup(func() {
		awskms.KmsClientFactory = saved
	})
	return mock
}

type mockKey struct {
	id    string
	label string
	usage types.KeyUsageType
	pvk   crypto.Signer
}

// mockKMS implements awskms.KmsClient with in-memory keys
type mockKMS struct {
	lock     sync.Mutex
	keys     map[string]*mockKey
	endpoint string
	signErr  error
	lastAlgo types.SigningAlgorithmSpec
}

func (m *mockKMS) addKey(k *mockKey) string {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.keys[k.id] = k
	return k.id
}

func (m *mockKMS) key(id string) (*mockKey, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	k, ok := m.keys[id]
	if !ok {
		return nil, errors.Errorf("key not found: %s", id)
	}
	return k, nil
}

func (m *mockKMS) CreateKey(_ context.Context, in *kms.CreateKeyInput, _ ...func(*kms.Options)) (*kms.CreateKeyOutput, error) {
	var pvk crypto.Signer
	var err error
	switch in.KeySpec {
	case types.KeySpecRsa2048:
		pvk, err = rsa.GenerateKey(rand.Reader, 2048)
	case types.KeySpecEccNistP256:
		pvk, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case types.KeySpecEccNistP384:
		pvk, err = ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	case types.KeySpecEccNistP521:
		pvk, err = ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	default:
		err = errors.Errorf("unsupported key spec: %s", in.KeySpec)
	}
	if err != nil {
		return nil, err
	}

	id := fmt.Sprintf("key-%d", len(m.keys)+1)
	m.addKey(&mockKey{
		id:    id,
		label: aws.ToString(in.Description),
		usage: in.KeyUsage,
		pvk:   pvk,
	})
	return &kms.CreateKeyOutput{
		KeyMetadata: &types.KeyMetadata{
			KeyId: aws.String(id),
			Arn:   aws.String("arn:aws:kms:us-west-2:111122223333:key/" + id),
		},
	}, nil
}

func (m *mockKMS) DescribeKey(_ context.Context, in *kms.DescribeKeyInput, _ ...func(*kms.Options)) (*kms.DescribeKeyOutput, error) {
	k, err := m.key(aws.ToString(in.KeyId))
	if err != nil {
		return nil, err
	}
	return &kms.DescribeKeyOutput{
		KeyMetadata: &types.KeyMetadata{
			KeyId:       aws.String(k.id),
			Description: aws.String(k.label),
			KeyUsage:    k.usage,
		},
	}, nil
}

func (m *mockKMS) GetPublicKey(_ context.Context, in *kms.GetPublicKeyInput, _ ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error) {
	k, err := m.key(aws.ToString(in.KeyId))
	if err != nil {
		return nil, err
	}
	der, err := x509.MarshalPKIXPublicKey(k.pvk.Public())
	if err != nil {
		return nil, err
	}

	var algs []types.SigningAlgorithmSpec
	switch pub := k.pvk.Public().(type) {
	case *rsa.PublicKey:
		algs = []types.SigningAlgorithmSpec{
			types.SigningAlgorithmSpecRsassaPkcs1V15Sha256,
			types.SigningAlgorithmSpecRsassaPkcs1V15Sha384,
			types.SigningAlgorithmSpecRsassaPkcs1V15Sha512,
		}
	case *ecdsa.PublicKey:
		switch pub.Curve {
		case elliptic.P256():
			algs = []types.SigningAlgorithmSpec{types.SigningAlgorithmSpecEcdsaSha256}
		case elliptic.P384():
			algs = []types.SigningAlgorithmSpec{types.SigningAlgorithmSpecEcdsaSha384}
		default:
			algs = []types.SigningAlgorithmSpec{types.SigningAlgorithmSpecEcdsaSha512}
		}
	}

	return &kms.GetPublicKeyOutput{
		KeyId:             aws.String(k.id),
		PublicKey:         der,
		SigningAlgorithms: algs,
	}, nil
}

func (m *mockKMS) Sign(_ context.Context, in *kms.SignInput, _ ...func(*kms.Options)) (*kms.SignOutput, error) {
	m.lastAlgo = in.SigningAlgorithm
	if m.signErr != nil {
		return nil, m.signErr
	}
	if in.MessageType != types.MessageTypeDigest {
		return nil, errors.Errorf("unexpected message type: %s", in.MessageType)
	}
	k, err := m.key(aws.ToString(in.KeyId))
	if err != nil {
		return nil, err
	}

	var hash crypto.Hash
	switch in.SigningAlgorithm {
	case types.SigningAlgorithmSpecRsassaPkcs1V15Sha256, types.SigningAlgorithmSpecEcdsaSha256:
		hash = crypto.SHA256
	case types.SigningAlgorithmSpecRsassaPkcs1V15Sha384, types.SigningAlgorithmSpecEcdsaSha384:
		hash = crypto.SHA384
	case types.SigningAlgorithmSpecRsassaPkcs1V15Sha512, types.SigningAlgorithmSpecEcdsaSha512:
		hash = crypto.SHA512
	default:
		return nil, errors.Errorf("unsupported signing algorithm: %s", in.SigningAlgorithm)
	}

	// both RSA PKCS#1 v1.5 and ECDSA private keys produce
	// the same encoding as KMS
	sig, err := k.pvk.Sign(rand.Reader, in.Message, hash)
	if err != nil {
		return nil, err
	}
	return &kms.SignOutput{
		KeyId:            aws.String(k.id),
		Signature:        sig,
		SigningAlgorithm: in.SigningAlgorithm,
	}, nil
}
