package jws

import "github.com/cockroachdb/errors"

var errNotSigner = errors.New("inner value does not implement Signer")

// WithKeyID wraps a signer or verifier, binding it to a key ID.
//
// As a verifier it accepts only headers whose "kid" equals ID, in addition
// to the checks of the inner verifier. An empty "kid" is the same as a
// missing one: it is accepted only with AcceptMissingKeyID, even when ID is
// empty. Signing is delegated unchanged; the key ID is reported through
// HeaderRecommender, so it can be put in the header with
// Data.ApplyRecommendation.
type WithKeyID[T any] struct {
	// ID is the expected key ID
	ID string
	// Inner is the wrapped Signer and/or Verifier
	Inner T
	// AcceptMissingKeyID allows headers without "kid",
	// still subject to the inner verifier's header check
	AcceptMissingKeyID bool
}

// NewWithKeyID returns WithKeyID that requires the key ID to be present.
// With an empty kid the verifier never accepts a header.
func NewWithKeyID[T any](kid string, inner T) *WithKeyID[T] {
	return &WithKeyID[T]{
		ID:    kid,
		Inner: inner,
	}
}

// NewWithKeyIDAcceptMissing returns WithKeyID that accepts headers without key ID
func NewWithKeyIDAcceptMissing[T any](kid string, inner T) *WithKeyID[T] {
	return &WithKeyID[T]{
		ID:                 kid,
		Inner:              inner,
		AcceptMissingKeyID: true,
	}
}

// CheckHeader implements HeaderValidator.
// It returns false if Inner is not a HeaderValidator.
func (w *WithKeyID[T]) CheckHeader(header *Header) bool {
	if header.KeyID == "" {
		if !w.AcceptMissingKeyID {
			return false
		}
	} else if header.KeyID != w.ID {
		return false
	}

	v, ok := any(w.Inner).(HeaderValidator)
	return ok && v.CheckHeader(header)
}

// VerifySignature implements Verifier.
// It returns false if Inner is not a Verifier.
func (w *WithKeyID[T]) VerifySignature(data, signature []byte) bool {
	v, ok := any(w.Inner).(Verifier)
	return ok && v.VerifySignature(data, signature)
}

// Sign implements Signer
func (w *WithKeyID[T]) Sign(data []byte) ([]byte, error) {
	s, ok := any(w.Inner).(Signer)
	if !ok {
		return nil, errors.WithStack(errNotSigner)
	}
	return s.Sign(data)
}

// Algorithm implements HeaderRecommender, returning the inner recommendation,
// or None if Inner does not recommend one
func (w *WithKeyID[T]) Algorithm() Algorithm {
	if r, ok := any(w.Inner).(HeaderRecommender); ok {
		return r.Algorithm()
	}
	return None
}

// KeyID implements HeaderRecommender
func (w *WithKeyID[T]) KeyID() string {
	return w.ID
}
