package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/TwigBush/kmpolicy/internal/token"
)

func cmdToken() *cobra.Command {
	c := &cobra.Command{
		Use:   "token",
		Short: "Make and inspect tokens for trying out a policy",
	}
	c.AddCommand(cmdTokenMint(), cmdTokenOpaque(), cmdTokenClaims())
	return c
}

func cmdTokenMint() *cobra.Command {
	var claimArgs []string
	var secret string
	var ttl time.Duration

	c := &cobra.Command{
		Use:   "mint",
		Short: "Sign a test JWT with the given claims",
		Example: `  kmpolicy token mint --claim scope=read:data --claim aud='["rs-1"]' --ttl 1h
  kmpolicy check --token "$(kmpolicy token mint --claim scope=read:data)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := parseClaimArgs(claimArgs)
			if err != nil {
				return err
			}
			tok, err := token.Mint(claims, token.MintOptions{Secret: []byte(secret), TTL: ttl})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	c.Flags().StringArrayVar(&claimArgs, "claim", nil, "claim as name=value; JSON values are decoded, anything else is a string")
	c.Flags().StringVar(&secret, "secret", "", "sign with HS256 and this secret instead of a throwaway ES384 key")
	c.Flags().DurationVar(&ttl, "ttl", 0, "set exp this far in the future")
	return c
}

func cmdTokenOpaque() *cobra.Command {
	return &cobra.Command{
		Use:   "opaque",
		Short: "Print a random opaque token",
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := token.NewOpaque()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
}

func cmdTokenClaims() *cobra.Command {
	var tok string

	c := &cobra.Command{
		Use:   "claims",
		Short: "Print the claim set of a JWT without verifying it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tok == "" {
				return fmt.Errorf("--token is required")
			}
			claims, err := token.ParseClaims(tok)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), claims)
		},
	}
	c.Flags().StringVar(&tok, "token", "", "JWT to decode")
	return c
}

func parseClaimArgs(args []string) (map[string]any, error) {
	claims := make(map[string]any, len(args))
	for _, a := range args {
		name, raw, ok := strings.Cut(a, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("claim %q: want name=value", a)
		}
		claims[name] = claimValue(raw)
	}
	return claims, nil
}

func claimValue(raw string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}
