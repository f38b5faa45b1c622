package jws

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/repr"
)

var errMissingHeader = errors.New("missing header")

// Data is a header and claims pair, before signing or after parsing.
// Claims can be any type that encodes to JSON.
type Data[C any] struct {
	Header *Header
	Claims C
}

// New returns Data with a new header for the algorithm
func New[C any](alg Algorithm, claims C) *Data[C] {
	return &Data[C]{
		Header: NewHeader(alg),
		Claims: claims,
	}
}

// ApplyRecommendation sets the algorithm and key ID in the header
// to the values recommended by r. An empty recommended key ID leaves
// the header key ID unchanged.
func (d *Data[C]) ApplyRecommendation(r HeaderRecommender) *Data[C] {
	if d.Header == nil {
		d.Header = NewHeader(None)
	}
	d.Header.Algorithm = r.Algorithm()
	if kid := r.KeyID(); kid != "" {
		d.Header.KeyID = kid
	}
	return d
}

// SigningInput returns the JWS signing input:
// base64url(header) || '.' || base64url(claims)
func (d *Data[C]) SigningInput() (string, error) {
	if d.Header == nil {
		return "", &EncodeError{Part: "header", Err: errMissingHeader}
	}
	header, err := repr.EncodeValue(d.Header)
	if err != nil {
		return "", &EncodeError{Part: "header", Err: err}
	}
	payload, err := repr.EncodeValue(d.Claims)
	if err != nil {
		return "", &EncodeError{Part: "claims", Err: err}
	}

	var b strings.Builder
	b.Grow(len(header) + len(payload) + 1)
	b.WriteString(header)
	b.WriteByte('.')
	b.WriteString(payload)
	return b.String(), nil
}

// SignWith returns the compact serialization of the token signed by signer
func (d *Data[C]) SignWith(signer Signer) (string, error) {
	input, err := d.SigningInput()
	if err != nil {
		return "", err
	}

	sig, err := signer.Sign([]byte(input))
	if err != nil {
		return "", &SignError{Err: err}
	}

	return input + "." + repr.EncodeBytes(sig), nil
}
