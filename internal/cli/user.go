package cli

import (
	"fmt"

	"taskboard-be/internal/services"

	"github.com/spf13/cobra"
)

type userCreateOptions struct {
	*RootOptions
	Email string
	Name  string
}

// NewUserCommand groups user provisioning.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage registered users",
	}
	cmd.AddCommand(newUserCreateCommand(rootOpts))
	return cmd
}

func newUserCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &userCreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Register a user so they can be invited and issued tokens",
		Example: `  boardctl user create --email ada@example.com --name "Ada Lovelace"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(cmd.Context(), func(svc *services.Services) error {
				user, err := svc.Identity.RegisterUser(cmd.Context(), opts.Email, opts.Name)
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), user)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.ID, user.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "user email (required)")
	_ = cmd.MarkFlagRequired("email")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")

	return cmd
}
