package cli

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjws/jws"
)

// SignCmd signs claims with the current key of the keyring
type SignCmd struct {
	Claims string `kong:"arg" required:"" help:"JSON claims file, or - for stdin"`
}

// Run the command
func (a *SignCmd) Run(ctx *Cli) error {
	kr, err := ctx.Keyring()
	if err != nil {
		return err
	}

	claims, err := ctx.ReadFile(a.Claims)
	if err != nil {
		return errors.WithMessage(err, "unable to load claims")
	}
	if !json.Valid(claims) {
		return errors.New("claims must be valid JSON")
	}

	token, err := kr.Sign(json.RawMessage(claims))
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.Writer(), token)
	return nil
}

// VerifyCmd verifies the token with the keyring
type VerifyCmd struct {
	Token string `kong:"arg" required:"" help:"token, or - for stdin"`
}

// Run the command
func (a *VerifyCmd) Run(ctx *Cli) error {
	kr, err := ctx.Keyring()
	if err != nil {
		return err
	}

	token, err := ctx.ReadToken(a.Token)
	if err != nil {
		return err
	}

	raw, err := kr.Verify(token)
	if err != nil {
		return err
	}
	return printRaw(ctx, raw, true)
}

// DecodeCmd prints the header and claims without verifying the signature
type DecodeCmd struct {
	Token string `kong:"arg" required:"" help:"token, or - for stdin"`
}

// Run the command
func (a *DecodeCmd) Run(ctx *Cli) error {
	token, err := ctx.ReadToken(a.Token)
	if err != nil {
		return err
	}

	raw, err := jws.Decode(token)
	if err != nil {
		return errors.WithMessage(err, "unable to decode token")
	}
	return printRaw(ctx, raw, false)
}

func printRaw(ctx *Cli, raw *jws.Raw, verified bool) error {
	var claims json.RawMessage
	if err := raw.Claims(&claims); err != nil {
		return errors.WithMessage(err, "unable to decode claims")
	}

	return ctx.WriteJSON(map[string]any{
		"header":   raw.Header,
		"claims":   claims,
		"verified": verified,
	})
}

// JwksCmd prints JWK set of the public keys in the keyring
type JwksCmd struct{}

// Run the command
func (a *JwksCmd) Run(ctx *Cli) error {
	kr, err := ctx.Keyring()
	if err != nil {
		return err
	}

	set, err := kr.PublicKeySet()
	if err != nil {
		return err
	}
	return ctx.WriteJSON(set)
}

// AlgsCmd prints the signing algorithms of the build
type AlgsCmd struct{}

// Run the command
func (a *AlgsCmd) Run(ctx *Cli) error {
	for _, name := range jws.SigningAlgorithmNames() {
		fmt.Fprintln(ctx.Writer(), name)
	}
	return nil
}
