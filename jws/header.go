package jws

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Header is the JWS Protected Header.
//
// See RFC 7515, section 4.1.
type Header struct {
	// Algorithm is the algorithm the token is, or will be, signed with.
	// Corresponds to the "alg" header parameter.
	Algorithm Algorithm `json:"alg"`

	// KeyID is a hint indicating which key was used to secure the JWS.
	// Corresponds to the "kid" header parameter, empty when absent.
	KeyID string `json:"kid,omitempty"`

	// ObjType is the media type of the complete JWS.
	// Corresponds to the "typ" header parameter, empty when absent.
	ObjType string `json:"typ,omitempty"`

	// RequiredExtensions lists the extension header parameters that must be
	// understood and processed. Corresponds to the "crit" header parameter,
	// nil when absent.
	//
	// Use SupportsRequiredExtensions to check it.
	RequiredExtensions []string `json:"crit"`
}

// NewHeader returns a header for the algorithm, with no optional parameters
func NewHeader(alg Algorithm) *Header {
	return &Header{
		Algorithm: alg,
	}
}

// SupportsRequiredExtensions reports whether the extensions listed in "crit"
// are supported.
//
// This is a simplification: it returns true when the "crit" parameter is
// present, without checking the listed names. An empty list is forbidden for
// producers, and the names defined by RFC 7515 and RFC 7518 are handled by this
// package. Callers must not rely on it to validate extension semantics.
func (h *Header) SupportsRequiredExtensions() bool {
	return h.RequiredExtensions != nil
}

// Clone returns a deep copy of the header
func (h *Header) Clone() *Header {
	c := *h
	if h.RequiredExtensions != nil {
		c.RequiredExtensions = append([]string{}, h.RequiredExtensions...)
	}
	return &c
}

// MarshalJSON encodes the header, omitting absent optional parameters.
// A present but empty "crit" list is kept.
func (h Header) MarshalJSON() ([]byte, error) {
	out := struct {
		Algorithm          Algorithm `json:"alg"`
		KeyID              string    `json:"kid,omitempty"`
		ObjType            string    `json:"typ,omitempty"`
		RequiredExtensions *[]string `json:"crit,omitempty"`
	}{
		Algorithm: h.Algorithm,
		KeyID:     h.KeyID,
		ObjType:   h.ObjType,
	}
	if h.RequiredExtensions != nil {
		out.RequiredExtensions = &h.RequiredExtensions
	}
	return json.Marshal(out)
}

type headerJSON struct {
	Algorithm          *Algorithm `json:"alg"`
	KeyID              string     `json:"kid"`
	ObjType            string     `json:"typ"`
	RequiredExtensions []string   `json:"crit"`
}

// UnmarshalJSON decodes the header, requiring the "alg" parameter.
// Unknown parameters are ignored.
func (h *Header) UnmarshalJSON(b []byte) error {
	var raw headerJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Algorithm == nil {
		return errors.New("missing alg header parameter")
	}
	*h = Header{
		Algorithm:          *raw.Algorithm,
		KeyID:              raw.KeyID,
		ObjType:            raw.ObjType,
		RequiredExtensions: raw.RequiredExtensions,
	}
	return nil
}
