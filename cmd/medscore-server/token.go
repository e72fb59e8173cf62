package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LzzJustBeYou/MedScore/internal/config"
	"github.com/LzzJustBeYou/MedScore/internal/platform/auth"
)

func tokenCmd() *cobra.Command {
	var (
		subject string
		roles   []string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 bearer token with AUTH_SIGNING_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.AuthSigningKey == "" {
				return fmt.Errorf("AUTH_SIGNING_KEY is not set")
			}
			key, err := cfg.SigningKey()
			if err != nil {
				return err
			}
			for _, r := range roles {
				if !auth.HasAnyRole([]string{r}, auth.ClinicalRoles...) {
					return fmt.Errorf("unknown role %q", r)
				}
			}
			tok, err := auth.IssueToken(key, cfg.AuthIssuer, cfg.AuthAudience, subject, roles, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "token subject (user id)")
	cmd.Flags().StringSliceVar(&roles, "role", []string{auth.RolePhysician}, "role to grant, may be repeated")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
