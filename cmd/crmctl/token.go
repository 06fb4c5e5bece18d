package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/licensing-crm-backend/internal/pkg/envutil"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

// tokenCmd mints an HS256 service token signed with MCP_JWT_SECRET, for
// callers such as n8n or the voice agent that should not share the static token.
func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for MCP and internal webhooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Nop()
			authn := services.NewTokenAuthenticator(log, services.AuthConfig{
				JWTSecret: envutil.String("MCP_JWT_SECRET", "", log),
			})
			tok, err := authn.Mint(tokenSubject, tokenTTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&tokenSubject, "subject", "", "caller name stored in the token subject")
	cmd.Flags().DurationVar(&tokenTTL, "ttl", 30*24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
