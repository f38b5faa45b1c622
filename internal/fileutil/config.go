package fileutil

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// FileSchema is the prefix of a value loaded from a file
	FileSchema = "file://"
	// EnvSchema is the prefix of a value loaded from an environment variable
	EnvSchema = "env://"
)

// LoadConfigWithSchema returns a configuration value.
// The value with file:// prefix is loaded from the file,
// the value with env:// prefix is loaded from the environment variable,
// otherwise it is returned as is.
func LoadConfigWithSchema(config string) (string, error) {
	switch {
	case strings.HasPrefix(config, FileSchema):
		fn := strings.TrimPrefix(config, FileSchema)
		if fn == "" {
			return "", errors.Errorf("missing file name: %q", config)
		}
		b, err := os.ReadFile(fn)
		if err != nil {
			return "", errors.WithStack(err)
		}
		return string(b), nil

	case strings.HasPrefix(config, EnvSchema):
		name := strings.TrimPrefix(config, EnvSchema)
		val, ok := os.LookupEnv(name)
		if !ok {
			return "", errors.Errorf("environment variable not set: %s", name)
		}
		return val, nil
	}
	return config, nil
}
