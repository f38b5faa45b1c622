package jws

import (
	"crypto"
	_ "crypto/sha256" // register hashes used by the algorithms
	_ "crypto/sha512"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// SigningAlgorithm identifies a JWS digital signature or MAC algorithm,
// as registered in RFC 7518, section 3.1.
//
// The zero value is not a valid algorithm.
type SigningAlgorithm uint8

// Signing algorithms.
// Availability of a family depends on the build tags,
// see SigningAlgorithms for the list compiled into the current build.
const (
	// HS256 is HMAC using SHA-256
	HS256 SigningAlgorithm = iota + 1
	// HS384 is HMAC using SHA-384
	HS384
	// HS512 is HMAC using SHA-512
	HS512
	// RS256 is RSASSA-PKCS1-v1_5 using SHA-256
	RS256
	// RS384 is RSASSA-PKCS1-v1_5 using SHA-384
	RS384
	// RS512 is RSASSA-PKCS1-v1_5 using SHA-512
	RS512
	// ES256 is ECDSA using P-256 and SHA-256
	ES256
	// ES384 is ECDSA using P-384 and SHA-384
	ES384
	// ES512 is ECDSA using P-521 and SHA-512
	ES512
)

type algorithmEntry struct {
	alg     SigningAlgorithm
	name    string
	hash    crypto.Hash
	enabled bool
}

// algorithms is the single source of truth for names, hashes and availability.
// Adding an algorithm is one row here plus a constant above.
var algorithms = []algorithmEntry{
	{HS256, "HS256", crypto.SHA256, featureHMAC},
	{HS384, "HS384", crypto.SHA384, featureHMAC},
	{HS512, "HS512", crypto.SHA512, featureHMAC},
	{RS256, "RS256", crypto.SHA256, featureRSA},
	{RS384, "RS384", crypto.SHA384, featureRSA},
	{RS512, "RS512", crypto.SHA512, featureRSA},
	{ES256, "ES256", crypto.SHA256, featureECDSA},
	{ES384, "ES384", crypto.SHA384, featureECDSA},
	{ES512, "ES512", crypto.SHA512, featureECDSA},
}

var (
	byName  = map[string]SigningAlgorithm{}
	byAlg   = map[SigningAlgorithm]*algorithmEntry{}
	enabled []SigningAlgorithm
	names   []string
)

func init() {
	for i := range algorithms {
		e := &algorithms[i]
		byAlg[e.alg] = e
		if e.enabled {
			byName[e.name] = e.alg
			enabled = append(enabled, e.alg)
			names = append(names, e.name)
		}
	}
}

// SigningAlgorithms returns the algorithms available in this build
func SigningAlgorithms() []SigningAlgorithm {
	return append([]SigningAlgorithm(nil), enabled...)
}

// SigningAlgorithmNames returns the names of the algorithms available in this build
func SigningAlgorithmNames() []string {
	return append([]string(nil), names...)
}

// UnrecognizedAlgorithmError is returned when a name does not match
// any algorithm compiled into the build
type UnrecognizedAlgorithmError struct {
	Name     string
	Accepted []string
}

func (e *UnrecognizedAlgorithmError) Error() string {
	return "unrecognized algorithm " + strconv.Quote(e.Name) + ", expected one of: " + strings.Join(e.Accepted, ", ")
}

// ParseSigningAlgorithm returns the algorithm with the exact, case-sensitive name
func ParseSigningAlgorithm(name string) (SigningAlgorithm, error) {
	if alg, ok := byName[name]; ok {
		return alg, nil
	}
	return 0, &UnrecognizedAlgorithmError{Name: name, Accepted: SigningAlgorithmNames()}
}

// String returns the registered name of the algorithm
func (a SigningAlgorithm) String() string {
	if e, ok := byAlg[a]; ok {
		return e.name
	}
	return "SigningAlgorithm(" + strconv.Itoa(int(a)) + ")"
}

// Available returns true if the algorithm is compiled into the build
func (a SigningAlgorithm) Available() bool {
	e, ok := byAlg[a]
	return ok && e.enabled
}

// Hash returns the digest function used by the algorithm
func (a SigningAlgorithm) Hash() crypto.Hash {
	if e, ok := byAlg[a]; ok {
		return e.hash
	}
	return 0
}

// MarshalText implements encoding.TextMarshaler
func (a SigningAlgorithm) MarshalText() ([]byte, error) {
	if !a.Available() {
		return nil, errors.Errorf("unsupported algorithm: %s", a.String())
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *SigningAlgorithm) UnmarshalText(text []byte) error {
	alg, err := ParseSigningAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = alg
	return nil
}

// Algorithm is the value of the "alg" header parameter:
// either "none", or one of the signing algorithms.
//
// The zero value is None.
type Algorithm struct {
	signing SigningAlgorithm
}

// None is the "none" algorithm, used for unsecured tokens
var None = Algorithm{}

const noneName = "none"

// Signing returns Algorithm for the signing algorithm
func Signing(alg SigningAlgorithm) Algorithm {
	return Algorithm{signing: alg}
}

// IsNone returns true for the "none" algorithm
func (a Algorithm) IsNone() bool {
	return a.signing == 0
}

// SigningAlgorithm returns the signing algorithm, and false for "none"
func (a Algorithm) SigningAlgorithm() (SigningAlgorithm, bool) {
	return a.signing, a.signing != 0
}

// Equal returns true if the header algorithm is the signing algorithm.
// None never equals any signing algorithm.
func (a Algorithm) Equal(alg SigningAlgorithm) bool {
	return a.signing != 0 && a.signing == alg
}

// String returns the value as it appears in the "alg" header parameter
func (a Algorithm) String() string {
	if a.IsNone() {
		return noneName
	}
	return a.signing.String()
}

// ParseAlgorithm parses the "alg" header parameter value
func ParseAlgorithm(name string) (Algorithm, error) {
	if name == noneName {
		return None, nil
	}
	alg, err := ParseSigningAlgorithm(name)
	if err != nil {
		return None, err
	}
	return Signing(alg), nil
}

// MarshalJSON writes the algorithm as a bare JSON string
func (a Algorithm) MarshalJSON() ([]byte, error) {
	if !a.IsNone() && !a.signing.Available() {
		return nil, errors.Errorf("unsupported algorithm: %s", a.signing.String())
	}
	return json.Marshal(a.String())
}

// UnmarshalJSON reads the algorithm from a bare JSON string
func (a *Algorithm) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return errors.WithMessage(err, "alg must be a string")
	}
	alg, err := ParseAlgorithm(name)
	if err != nil {
		return err
	}
	*a = alg
	return nil
}
