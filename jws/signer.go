package jws

// Signer creates signatures over the JWS signing input.
//
// Sign does not see the header: the signature is a function of the data and
// of the key material held by the signer. Implementations must be safe for
// concurrent use.
type Signer interface {
	// Sign returns the signature for data
	Sign(data []byte) ([]byte, error)
}

// HeaderValidator checks that a header is acceptable
type HeaderValidator interface {
	// CheckHeader returns true if the header applies to this verifier:
	// the declared algorithm is the one implemented, and any other
	// constraints, such as the key ID, hold.
	CheckHeader(header *Header) bool
}

// Verifier verifies signatures over the JWS signing input.
//
// CheckHeader must return true before VerifySignature is relied upon:
// VerifySignature is a cryptographic check only, and says nothing about the
// algorithm claimed by the token. Implementations must be safe for concurrent
// use.
type Verifier interface {
	HeaderValidator

	// VerifySignature returns true if signature is valid for data.
	// It does not check the header.
	VerifySignature(data, signature []byte) bool
}

// HeaderRecommender is implemented by signers that can suggest
// header parameters for the tokens they sign
type HeaderRecommender interface {
	// Algorithm returns the algorithm the signer implements
	Algorithm() Algorithm
	// KeyID returns the key ID to put in the header, or empty string
	KeyID() string
}

// SignerFunc is an adapter to use an ordinary function as Signer
type SignerFunc func(data []byte) ([]byte, error)

// Sign calls f(data)
func (f SignerFunc) Sign(data []byte) ([]byte, error) {
	return f(data)
}

// HeaderValidatorFunc is an adapter to use an ordinary function as HeaderValidator
type HeaderValidatorFunc func(header *Header) bool

// CheckHeader calls f(header)
func (f HeaderValidatorFunc) CheckHeader(header *Header) bool {
	return f(header)
}

// VerifierFuncs combines header check and signature verification functions
// into a Verifier. Both functions must be provided.
type VerifierFuncs struct {
	Header    func(header *Header) bool
	Signature func(data, signature []byte) bool
}

// CheckHeader calls v.Header
func (v VerifierFuncs) CheckHeader(header *Header) bool {
	return v.Header(header)
}

// VerifySignature calls v.Signature
func (v VerifierFuncs) VerifySignature(data, signature []byte) bool {
	return v.Signature(data, signature)
}

// AlgorithmChecker returns HeaderValidator that accepts headers
// declaring the specified algorithm
func AlgorithmChecker(alg SigningAlgorithm) HeaderValidator {
	return HeaderValidatorFunc(func(header *Header) bool {
		return header.Algorithm.Equal(alg)
	})
}

// CheckAndVerify performs the two step verification of the signature:
// the header is checked first, and the signature only if the header is accepted
func CheckAndVerify(v Verifier, header *Header, data, signature []byte) bool {
	if !v.CheckHeader(header) {
		return false
	}
	return v.VerifySignature(data, signature)
}
