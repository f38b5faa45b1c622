package jws

import (
	"strings"

	"github.com/effective-security/xjws/repr"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xjws", "jws")

// Raw is a decoded, but not verified token.
//
// The payload is kept base64url encoded, so it can be decoded into
// different claims types with ParseClaims or Claims.
type Raw struct {
	// HeaderAndPayload is the exact signing input from the token
	HeaderAndPayload string
	// Header is the decoded header
	Header *Header
	// Payload is the base64url encoded claims
	Payload string
	// Signature is the decoded signature
	Signature []byte
}

// Decode splits the token and decodes its header and signature.
// The signature is not verified.
func Decode(token string) (*Raw, error) {
	headerAndPayload, signature, header, payload, ok := split(token)
	if !ok {
		logger.KV(xlog.TRACE, "reason", "invalid_format")
		return nil, ErrInvalidFormat
	}

	h := new(Header)
	if err := repr.DecodeValue(header, h); err != nil {
		logger.KV(xlog.TRACE, "reason", "header", "err", err.Error())
		return nil, err
	}

	sig, err := repr.DecodeBytes(signature)
	if err != nil {
		logger.KV(xlog.TRACE, "reason", "signature", "err", err.Error())
		return nil, err
	}

	return &Raw{
		HeaderAndPayload: headerAndPayload,
		Header:           h,
		Payload:          payload,
		Signature:        sig,
	}, nil
}

// split takes the signature after the last dot,
// then splits the rest on the first dot
func split(token string) (headerAndPayload, signature, header, payload string, ok bool) {
	i := strings.LastIndexByte(token, '.')
	if i < 0 {
		return
	}
	headerAndPayload, signature = token[:i], token[i+1:]

	j := strings.IndexByte(headerAndPayload, '.')
	if j < 0 {
		return
	}
	header, payload = headerAndPayload[:j], headerAndPayload[j+1:]
	ok = true
	return
}

// Claims decodes the payload into the value pointed to by claims
func (r *Raw) Claims(claims any) error {
	return repr.DecodeValue(r.Payload, claims)
}

// ParseClaims decodes the payload of the raw token into Data.
// The header is copied, so the returned Data does not share state with r.
func ParseClaims[C any](r *Raw) (*Data[C], error) {
	claims, err := repr.Decode[C](r.Payload)
	if err != nil {
		return nil, err
	}
	return &Data[C]{
		Header: r.Header.Clone(),
		Claims: claims,
	}, nil
}

// VerifySignature checks that the header is accepted by the verifier,
// and then that the signature is valid for the signing input
func (r *Raw) VerifySignature(verifier Verifier) bool {
	if !verifier.CheckHeader(r.Header) {
		logger.KV(xlog.TRACE, "reason", "header_rejected", "alg", r.Header.Algorithm, "kid", r.Header.KeyID)
		return false
	}
	return verifier.VerifySignature([]byte(r.HeaderAndPayload), r.Signature)
}

// VerifySignatureMulti verifies the token with the first verifier that
// accepts the header. Verifiers rejecting the header are skipped, and if none
// accepts it the verification fails.
func (r *Raw) VerifySignatureMulti(verifiers ...Verifier) bool {
	for _, verifier := range verifiers {
		if !verifier.CheckHeader(r.Header) {
			continue
		}
		return verifier.VerifySignature([]byte(r.HeaderAndPayload), r.Signature)
	}
	logger.KV(xlog.TRACE, "reason", "no_verifier", "alg", r.Header.Algorithm, "kid", r.Header.KeyID)
	return false
}
