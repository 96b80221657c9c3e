package cli

import (
	"fmt"
	"time"

	"taskboard-be/internal/services"
	"taskboard-be/internal/utils"

	"github.com/spf13/cobra"
)

type tokenOptions struct {
	*RootOptions
	Email string
	TTL   time.Duration
}

// NewTokenCommand mints a bearer token for a registered user.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &tokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "token",
		Short:   "Mint a bearer token for a registered user",
		Example: `  boardctl token --email ada@example.com --ttl 1h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl := opts.TTL
			if ttl <= 0 {
				ttl = opts.cfg.JWTAccessExpiration
			}
			return opts.withServices(cmd.Context(), func(svc *services.Services) error {
				user, err := svc.Identity.FindUser(cmd.Context(), opts.Email)
				if err != nil {
					return err
				}
				token, err := utils.GenerateAccessToken(user.ID, user.Email, opts.cfg.JWTSecret, ttl)
				if err != nil {
					return fmt.Errorf("sign token: %w", err)
				}
				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), map[string]any{
						"accessToken": token,
						"expiresIn":   int(ttl.Seconds()),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "user email (required)")
	_ = cmd.MarkFlagRequired("email")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 0, "token lifetime (defaults to JWT_ACCESS_EXPIRATION)")

	return cmd
}
