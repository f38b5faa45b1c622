package jws

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/repr"
)

// ErrInvalidFormat is returned when the token is not three
// segments separated by dots
var ErrInvalidFormat = errors.New("the token is formatted incorrectly (not 3 parts separated by dots)")

// EncodeError is returned when the header or claims can not be serialized
type EncodeError struct {
	// Part is "header" or "claims"
	Part string
	Err  error
}

func (e *EncodeError) Error() string {
	return "could not encode " + e.Part + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *EncodeError) Unwrap() error {
	return e.Err
}

// SignError is returned when the signer fails
type SignError struct {
	Err error
}

func (e *SignError) Error() string {
	return "could not sign: " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *SignError) Unwrap() error {
	return e.Err
}

// IsMalformed returns true if err indicates that the token could not be decoded:
// wrong number of segments, invalid base64url, or invalid header JSON
func IsMalformed(err error) bool {
	if err == nil {
		return false
	}
	var de *repr.DecodeError
	var ue *UnrecognizedAlgorithmError
	return errors.Is(err, ErrInvalidFormat) || errors.As(err, &de) || errors.As(err, &ue)
}
