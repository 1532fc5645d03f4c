// idtoken issues identity tokens signed with IDENTITY_JWT_SECRET so the API
// can be exercised locally without the identity provider.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/spec-kit/hotel-requests/internal/auth"
	"github.com/spec-kit/hotel-requests/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var identity string
	ttl := cfg.Identity.TokenTTLMinutes

	flagSet := pflag.NewFlagSet("idtoken", pflag.ContinueOnError)
	flagSet.StringVarP(&identity, "identity", "i", "", "identity (token subject) to issue for")
	flagSet.IntVar(&ttl, "ttl", ttl, "token lifetime in minutes")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if identity == "" && flagSet.NArg() > 0 {
		identity = flagSet.Arg(0)
	}
	if identity == "" {
		return fmt.Errorf("identity is required")
	}

	tokens := auth.NewTokenManager(cfg.Identity.JWTSecret, cfg.Identity.Issuer, ttl)
	token, expiresAt, err := tokens.GenerateToken(identity)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Println(token)
	return nil
}
