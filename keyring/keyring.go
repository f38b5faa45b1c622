// Package keyring signs and verifies tokens with a configured set of keys.
//
// Keys are held in memory, or in a KMS referenced by URI. Every verifier is
// bound to its key ID, so a token is checked only by the key it names.
package keyring

import (
	"bytes"
	"context"
	"crypto"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/alg/cryptosigner"
	"github.com/effective-security/xjws/alg/hs"
	"github.com/effective-security/xjws/jwk"
	"github.com/effective-security/xjws/jws"
	"github.com/effective-security/xjws/keyutil"
	"github.com/effective-security/xjws/kms"
	"github.com/effective-security/xjws/metricskey"
	"github.com/effective-security/xlog"
	jose "github.com/go-jose/go-jose/v3"

	// register KMS providers
	_ "github.com/effective-security/xjws/kms/awskms"
	_ "github.com/effective-security/xjws/kms/gcpkms"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xjws", "keyring")

var (
	// ErrInvalidSignature is returned when no key accepts the token
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrNoSigningKey is returned by Sign when the signing key is not configured
	ErrNoSigningKey = errors.New("signing key not configured")
	// ErrUnsupportedExtension is returned for tokens that require header extensions
	ErrUnsupportedExtension = errors.New("unsupported critical header extension")
)

type signer interface {
	jws.Signer
	jws.HeaderRecommender
}

// Keyring holds signing and verification keys
type Keyring struct {
	issuer    string
	kid       string
	signer    signer
	verifiers []jws.Verifier
	public    []jwk.PublicKey
}

// Load returns Keyring for the configuration file
func Load(ctx context.Context, file string) (*Keyring, error) {
	cfg, err := LoadConfig(file)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg)
}

// New returns Keyring.
// If the signing key ID is not configured, the last key that can sign is used.
func New(ctx context.Context, cfg *Config) (*Keyring, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	k := &Keyring{
		issuer: cfg.Issuer,
	}

	signers := map[string]signer{}
	var lastSigner string

	for _, kc := range cfg.Keys {
		alg, err := jws.ParseSigningAlgorithm(kc.Algorithm)
		if err != nil {
			return nil, errors.WithMessagef(err, "key %s", kc.ID)
		}

		s, v, pub, err := loadKey(ctx, kc, alg)
		if err != nil {
			return nil, errors.WithMessagef(err, "unable to load key %s", kc.ID)
		}

		if cfg.AcceptMissingKeyID {
			k.verifiers = append(k.verifiers, jws.NewWithKeyIDAcceptMissing(kc.ID, v))
		} else {
			k.verifiers = append(k.verifiers, jws.NewWithKeyID(kc.ID, v))
		}
		if pub != nil {
			k.public = append(k.public, jwk.PublicKey{ID: kc.ID, Algorithm: alg, Key: pub})
		}
		if s != nil {
			signers[kc.ID] = jws.NewWithKeyID(kc.ID, s)
			lastSigner = kc.ID
		}
		logger.KV(xlog.DEBUG, "kid", kc.ID, "alg", alg, "signer", s != nil)
	}

	if cfg.JWKS != "" {
		verifiers, err := jwk.LoadKeySet(strings.TrimPrefix(cfg.JWKS, fileSchema))
		if err != nil {
			return nil, err
		}
		k.verifiers = append(k.verifiers, verifiers...)
	}

	k.kid = cfg.KeyID
	if k.kid == "" {
		k.kid = lastSigner
	}
	if k.kid != "" {
		s, ok := signers[k.kid]
		if !ok {
			return nil, errors.Errorf("key can not sign: %s", k.kid)
		}
		k.signer = s
	}

	return k, nil
}

// loadKey returns signer, if the key is private, verifier,
// and public key, if the key is asymmetric
func loadKey(ctx context.Context, kc *KeyConfig, alg jws.SigningAlgorithm) (jws.Signer, jws.Verifier, crypto.PublicKey, error) {
	switch {
	case kc.Secret != "":
		secret, err := resolve(kc.Secret)
		if err != nil {
			return nil, nil, nil, err
		}
		key, err := hs.New(alg, bytes.TrimSpace(secret))
		if err != nil {
			return nil, nil, nil, err
		}
		return key, key, nil, nil

	case kc.PublicKey != "":
		pem, err := resolve(kc.PublicKey)
		if err != nil {
			return nil, nil, nil, err
		}
		pub, err := keyutil.ParsePublicKeyPEM(pem)
		if err != nil {
			return nil, nil, nil, err
		}
		v, err := jwk.VerifierForKey(alg, pub)
		if err != nil {
			return nil, nil, nil, err
		}
		return nil, v, pub, nil
	}

	var cs crypto.Signer
	var err error
	if kc.KMS != "" {
		cs, err = kms.NewSigner(ctx, kc.KMS)
	} else {
		var pem []byte
		pem, err = resolve(kc.PrivateKey)
		if err == nil {
			cs, err = keyutil.ParsePrivateKeyPEM(pem)
		}
	}
	if err != nil {
		return nil, nil, nil, err
	}

	s, err := cryptosigner.New(cs, cryptosigner.WithAlgorithm(alg))
	if err != nil {
		return nil, nil, nil, err
	}
	v, err := s.Verifier()
	if err != nil {
		return nil, nil, nil, err
	}
	return s, v, s.Public(), nil
}

// Issuer returns the configured issuer
func (k *Keyring) Issuer() string {
	return k.issuer
}

// KeyID returns ID of the signing key, or empty string if the keyring
// can only verify
func (k *Keyring) KeyID() string {
	return k.kid
}

// Verifiers returns verifiers for all keys
func (k *Keyring) Verifiers() []jws.Verifier {
	return k.verifiers
}

// PublicKeySet returns JWK set for asymmetric keys
func (k *Keyring) PublicKeySet() (*jose.JSONWebKeySet, error) {
	return jwk.PublicKeySet(k.public...)
}

// Sign returns token for the claims signed by the current key,
// with "alg" and "kid" headers
func (k *Keyring) Sign(claims any) (string, error) {
	if k.signer == nil {
		return "", errors.WithStack(ErrNoSigningKey)
	}

	alg := k.signer.Algorithm()
	defer metricskey.PerfSign.MeasureSince(time.Now(), alg.String(), k.kid)

	token, err := jws.New(alg, claims).
		ApplyRecommendation(k.signer).
		SignWith(k.signer)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Verify decodes the token and verifies its signature
func (k *Keyring) Verify(token string) (*jws.Raw, error) {
	started := time.Now()

	raw, err := jws.Decode(token)
	if err != nil {
		metricskey.PerfVerify.MeasureSince(started, "", "malformed")
		return nil, errors.WithMessagef(err, "unable to decode token")
	}

	alg := raw.Header.Algorithm.String()
	if len(raw.Header.RequiredExtensions) > 0 {
		metricskey.PerfVerify.MeasureSince(started, alg, "invalid")
		logger.KV(xlog.DEBUG, "reason", "crit", "kid", raw.Header.KeyID, "crit", raw.Header.RequiredExtensions)
		return nil, errors.WithStack(ErrUnsupportedExtension)
	}

	if !raw.VerifySignatureMulti(k.verifiers...) {
		metricskey.PerfVerify.MeasureSince(started, alg, "invalid")
		logger.KV(xlog.DEBUG, "reason", "invalid_signature", "alg", alg, "kid", raw.Header.KeyID)
		return nil, errors.WithStack(ErrInvalidSignature)
	}

	metricskey.PerfVerify.MeasureSince(started, alg, "ok")
	return raw, nil
}

// Parse verifies the token and decodes its claims into the value
// pointed to by claims
func (k *Keyring) Parse(token string, claims any) (*jws.Header, error) {
	raw, err := k.Verify(token)
	if err != nil {
		return nil, err
	}
	if err = raw.Claims(claims); err != nil {
		return nil, errors.WithMessagef(err, "unable to decode claims")
	}
	return raw.Header, nil
}
