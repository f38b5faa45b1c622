// Package repr provides the base64url and JSON representation helpers used by
// the JWS compact serialization.
//
// Encoding follows RFC 7515 section 2: the URL and filename safe alphabet of
// RFC 4648 section 5, with trailing '=' characters omitted and without line
// breaks, whitespace or other additional characters.
package repr

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind identifies the stage of decoding that failed
type Kind int

const (
	// Base64 indicates that the input is not valid unpadded base64url
	Base64 Kind = iota + 1
	// JSON indicates that the decoded bytes are not valid JSON,
	// or do not match the target type
	JSON
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case Base64:
		return "base64"
	case JSON:
		return "json"
	default:
		return "unknown"
	}
}

// DecodeError is returned when a base64url segment can not be decoded
type DecodeError struct {
	Kind Kind
	Err  error
}

func (e *DecodeError) Error() string {
	return "invalid " + e.Kind.String() + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsKind returns true if err is a DecodeError of the specified kind
func IsKind(err error, kind Kind) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == kind
}

var encoding = base64.RawURLEncoding.Strict()

// EncodeBytes returns unpadded base64url encoding of b
func EncodeBytes(b []byte) string {
	return encoding.EncodeToString(b)
}

// DecodeBytes decodes unpadded base64url text.
// Padding, line breaks and characters outside of the URL safe alphabet are rejected.
func DecodeBytes(s string) ([]byte, error) {
	// the decoder silently skips CR and LF
	if strings.ContainsAny(s, "\r\n") {
		return nil, &DecodeError{Kind: Base64, Err: errors.New("illegal line break in input")}
	}
	b, err := encoding.DecodeString(s)
	if err != nil {
		return nil, &DecodeError{Kind: Base64, Err: errors.WithStack(err)}
	}
	return b, nil
}

// EncodeValue serializes value to JSON and returns its base64url encoding
func EncodeValue(value any) (string, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return EncodeBytes(b), nil
}

// DecodeValue decodes base64url JSON from s into the value pointed to by v
func DecodeValue(s string, v any) error {
	b, err := DecodeBytes(s)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(b, v); err != nil {
		return &DecodeError{Kind: JSON, Err: errors.WithStack(err)}
	}
	return nil
}

// Decode returns value of type T decoded from base64url JSON
func Decode[T any](s string) (T, error) {
	var v T
	err := DecodeValue(s, &v)
	return v, err
}
