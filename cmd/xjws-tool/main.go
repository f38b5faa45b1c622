package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/effective-security/x/ctl"
	"github.com/effective-security/xjws/cmd/xjws-tool/cli"
	"github.com/effective-security/xjws/internal/version"
)

type app struct {
	cli.Cli

	Sign   cli.SignCmd   `cmd:"" help:"sign JSON claims with the current key"`
	Verify cli.VerifyCmd `cmd:"" help:"verify token and print its header and claims"`
	Decode cli.DecodeCmd `cmd:"" help:"print token header and claims without verifying"`
	Genkey cli.GenKeyCmd `cmd:"" help:"generate a key"`
	Jwks   cli.JwksCmd   `cmd:"" help:"print JWK set of public keys"`
	Algs   cli.AlgsCmd   `cmd:"" help:"list supported algorithms"`
}

func main() {
	realMain(os.Args, os.Stdout, os.Stderr, os.Exit)
}

func realMain(args []string, out io.Writer, errout io.Writer, exit func(int)) {
	cl := app{
		Cli: cli.Cli{},
	}
	cl.Cli.WithErrWriter(errout).
		WithWriter(out)

	parser, err := kong.New(&cl,
		kong.Name("xjws-tool"),
		kong.Description("CLI tool to sign and verify JWS tokens"),
		kong.Writers(out, errout),
		kong.Exit(exit),
		ctl.BoolPtrMapper,
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version.Current().String(),
		})
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args[1:])
	parser.FatalIfErrorf(err)

	if ctx != nil {
		if cl.Debug {
			// in DEBUG more print command line
			_, _ = fmt.Fprintf(ctx.Stdout, "#\n# %s\n#\n", strings.Join(args, " "))
		}
		err = ctx.Run(&cl.Cli)
		ctx.FatalIfErrorf(err)
	}
}
