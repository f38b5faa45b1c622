// Package jws implements the JSON Web Signature (RFC 7515) compact
// serialization: building the signing input from a header and claims, signing
// it with a pluggable Signer, and decoding and verifying existing tokens
// against one or more Verifiers.
//
// Verification is a two step protocol. A Verifier must first accept the header
// with CheckHeader, which confirms that the algorithm declared by the token is
// the one the verifier implements, and only then is the signature checked with
// VerifySignature. VerifySignature and VerifySignatureMulti always follow this
// order; callers driving verifiers directly must do the same to avoid
// algorithm confusion.
//
// The concrete algorithms live in the alg/hs, alg/rs, alg/es and
// alg/cryptosigner packages.
package jws
