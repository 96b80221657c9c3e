package cli

import (
	"fmt"
	"sort"
	"time"

	"taskboard-be/internal/models"
	"taskboard-be/internal/services"

	"github.com/spf13/cobra"
)

type auditOptions struct {
	*RootOptions
	BoardID  string
	Entity   string
	EntityID string
	Limit    int
}

// NewAuditCommand exports audit entries as a timeline.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &auditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Export audit entries, oldest first",
		Example: `  boardctl audit --board 5d1c...
  boardctl audit --entity task --entity-id 9f2e... --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(cmd.Context(), func(svc *services.Services) error {
				entries, err := svc.Audit.Export(cmd.Context(), models.AuditFilter{
					Entity:   models.EntityKind(opts.Entity),
					EntityID: opts.EntityID,
					BoardID:  opts.BoardID,
					Limit:    opts.Limit,
				})
				if err != nil {
					return err
				}
				// The store returns newest first; a timeline reads the other way.
				sort.Slice(entries, func(i, j int) bool {
					if !entries[i].Ts.Equal(entries[j].Ts) {
						return entries[i].Ts.Before(entries[j].Ts)
					}
					return entries[i].ID < entries[j].ID
				})

				if opts.Format == "json" {
					if entries == nil {
						entries = []models.AuditEntry{}
					}
					return writeJSON(cmd.OutOrStdout(), entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No audit entries found")
					return nil
				}
				for _, e := range entries {
					fmt.Fprintf(out, "%s  %-22s %-12s %s  by %s\n",
						e.Ts.Format(time.RFC3339), e.Action, e.Entity, e.EntityID, e.Actor)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.BoardID, "board", "", "only entries of this board")
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "entity kind (board, column, task, ticket, label, boardMember, boardInvite)")
	cmd.Flags().StringVar(&opts.EntityID, "entity-id", "", "only entries about this entity")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "max entries (default 500)")

	return cmd
}
