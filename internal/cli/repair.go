package cli

import (
	"fmt"

	"taskboard-be/internal/services"

	"github.com/spf13/cobra"
)

type repairOptions struct {
	*RootOptions
	BoardID string
}

// NewRepairCommand renormalizes the positions of one board.
func NewRepairCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &repairOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Rewrite column and task positions of a board to 1..N",
		Long: `Reassign dense positions to the columns of a board and to the tasks of
each column, keeping their current relative order. The change is recorded
in the audit trail as BOARD_RENORMALIZED by the system actor.

Tasks pointing at a column that no longer exists are listed, not modified.`,
		Example: `  boardctl repair --board 5d1c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(cmd.Context(), func(svc *services.Services) error {
				report, err := svc.Boards.Repair(cmd.Context(), services.SystemActor, opts.BoardID)
				if err != nil && services.KindOf(err) != services.KindAuditWrite {
					return err
				}
				if opts.Format == "json" {
					if werr := writeJSON(cmd.OutOrStdout(), report); werr != nil {
						return werr
					}
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "board %s: %d column(s) and %d task(s) repositioned\n",
					report.BoardID, report.ColumnsChanged, report.TasksChanged)
				for _, id := range report.OrphanTaskIDs {
					fmt.Fprintf(out, "  orphan task %s (column missing)\n", id)
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&opts.BoardID, "board", "", "board id (required)")
	_ = cmd.MarkFlagRequired("board")

	return cmd
}
