// Package cli implements boardctl, the operator command line: user
// provisioning, development tokens, position repair and audit export.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"taskboard-be/config"
	"taskboard-be/internal/services"

	"github.com/spf13/cobra"
)

// Opener connects to the stores and returns the services with a function
// that releases them.
type Opener func(ctx context.Context, cfg *config.Config) (*services.Services, func(), error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"

	cfg  *config.Config
	open Opener
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for boardctl.
func NewRootCommand(cfg *config.Config, open Opener) *cobra.Command {
	opts := &RootOptions{cfg: cfg, open: open}

	cmd := &cobra.Command{
		Use:   "boardctl",
		Short: "boardctl - taskboard operator tool",
		Long:  "Operator commands for the taskboard API: register users, mint tokens, repair board positions and export the audit trail.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewRepairCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// withServices opens the stores for the duration of fn.
func (o *RootOptions) withServices(ctx context.Context, fn func(svc *services.Services) error) error {
	svc, closeFn, err := o.open(ctx, o.cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(svc)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
