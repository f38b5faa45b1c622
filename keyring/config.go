package keyring

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/internal/fileutil"
	"gopkg.in/yaml.v3"
)

const fileSchema = "file://"

// KeyConfig describes a key.
// Exactly one of Secret, PrivateKey, PublicKey or KMS must be set.
type KeyConfig struct {
	// ID of the key, used as "kid" header
	ID string `json:"id" yaml:"id"`
	// Algorithm is JWS signing algorithm of the key
	Algorithm string `json:"alg" yaml:"alg"`
	// Secret is HMAC key, the value may have env:// or file:// schema
	Secret string `json:"secret,omitempty" yaml:"secret,omitempty"`
	// PrivateKey is PEM encoded private key, the value may have env:// or file:// schema
	PrivateKey string `json:"private_key,omitempty" yaml:"private_key,omitempty"`
	// PublicKey is PEM encoded public key for verification only,
	// the value may have env:// or file:// schema
	PublicKey string `json:"public_key,omitempty" yaml:"public_key,omitempty"`
	// KMS is the key URI, like awskms://<id>?region=us-west-2
	KMS string `json:"kms,omitempty" yaml:"kms,omitempty"`
}

// Config provides keyring configuration
type Config struct {
	// Issuer is informational
	Issuer string `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	// KeyID specifies ID of the signing key
	KeyID string `json:"kid,omitempty" yaml:"kid,omitempty"`
	// AcceptMissingKeyID allows to verify tokens without "kid" header
	AcceptMissingKeyID bool `json:"accept_missing_kid,omitempty" yaml:"accept_missing_kid,omitempty"`
	// Keys specifies list of keys
	Keys []*KeyConfig `json:"keys" yaml:"keys"`
	// JWKS specifies JWK set file with additional verification keys
	JWKS string `json:"jwks,omitempty" yaml:"jwks,omitempty"`
}

// LoadConfig returns configuration loaded from a file.
// Relative file:// references are resolved against the folder of the file.
func LoadConfig(file string) (*Config, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var config Config
	if strings.HasSuffix(file, ".json") {
		err = json.Unmarshal(raw, &config)
		if err != nil {
			return nil, errors.WithMessagef(err, "unable to unmarshal JSON: %q", file)
		}
	} else {
		err = yaml.Unmarshal(raw, &config)
		if err != nil {
			return nil, errors.WithMessagef(err, "unable to unmarshal YAML: %q", file)
		}
	}

	dir := filepath.Dir(file)
	for _, key := range config.Keys {
		key.Secret = resolvePath(dir, key.Secret)
		key.PrivateKey = resolvePath(dir, key.PrivateKey)
		key.PublicKey = resolvePath(dir, key.PublicKey)
	}
	config.JWKS = resolvePath(dir, config.JWKS)

	if err = config.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "invalid configuration: %q", file)
	}
	return &config, nil
}

// Validate returns error if the configuration is not valid
func (c *Config) Validate() error {
	if len(c.Keys) == 0 && c.JWKS == "" {
		return errors.New("missing keys")
	}

	ids := map[string]bool{}
	for _, key := range c.Keys {
		if key.ID == "" {
			return errors.New("missing key id")
		}
		if ids[key.ID] {
			return errors.Errorf("duplicate key id: %s", key.ID)
		}
		ids[key.ID] = true

		if key.Algorithm == "" {
			return errors.Errorf("missing alg: %s", key.ID)
		}

		count := 0
		for _, v := range []string{key.Secret, key.PrivateKey, key.PublicKey, key.KMS} {
			if v != "" {
				count++
			}
		}
		if count != 1 {
			return errors.Errorf("exactly one of secret, private_key, public_key or kms must be specified: %s", key.ID)
		}
	}

	if c.KeyID != "" && !ids[c.KeyID] {
		return errors.Errorf("signing key not found: %s", c.KeyID)
	}
	return nil
}

// resolvePath makes relative file:// reference or path relative to dir
func resolvePath(dir, val string) string {
	if val == "" {
		return val
	}
	if strings.HasPrefix(val, fileSchema) {
		name := strings.TrimPrefix(val, fileSchema)
		if !filepath.IsAbs(name) {
			name = filepath.Join(dir, name)
		}
		return fileSchema + name
	}
	return val
}

// resolve loads the value with env:// or file:// schema
func resolve(val string) ([]byte, error) {
	s, err := fileutil.LoadConfigWithSchema(val)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return []byte(s), nil
}
