package cli

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/alg/es"
	"github.com/effective-security/xjws/alg/hs"
	"github.com/effective-security/xjws/alg/rs"
	"github.com/effective-security/xjws/jws"
	"github.com/effective-security/xjws/repr"
)

// GenKeyCmd generates a key for the algorithm
type GenKeyCmd struct {
	Alg    string `required:"" help:"signing algorithm, like HS256, RS256 or ES256"`
	Bits   int    `help:"RSA key size" default:"2048"`
	Public bool   `help:"print the public key after the private key"`
}

// Run the command
func (a *GenKeyCmd) Run(ctx *Cli) error {
	alg, err := jws.ParseSigningAlgorithm(a.Alg)
	if err != nil {
		return err
	}

	w := ctx.Writer()
	switch {
	case hs.IsHMAC(alg):
		key, err := hs.GenerateKey(rand.Reader, alg)
		if err != nil {
			return err
		}
		// printed as base64url, to be used as the secret as is
		fmt.Fprintln(w, repr.EncodeBytes(key))
		return nil

	case rs.IsRSA(alg):
		s, err := rs.Generate(rand.Reader, alg, a.Bits)
		if err != nil {
			return err
		}
		return writeKeyPair(w, s, s.Public(), a.Public)

	case es.IsECDSA(alg):
		s, err := es.Generate(rand.Reader, alg)
		if err != nil {
			return err
		}
		return writeKeyPair(w, s, s.Public(), a.Public)
	}
	return errors.Errorf("unsupported algorithm: %s", alg)
}

type privatePEM interface {
	PrivateKeyPEM() ([]byte, error)
}

type publicPEM interface {
	PublicKeyPEM() ([]byte, error)
}

func writeKeyPair(w io.Writer, priv privatePEM, pub publicPEM, withPublic bool) error {
	pem, err := priv.PrivateKeyPEM()
	if err != nil {
		return err
	}
	_, _ = w.Write(pem)

	if withPublic {
		pem, err = pub.PublicKeyPEM()
		if err != nil {
			return err
		}
		_, _ = w.Write(pem)
	}
	return nil
}
