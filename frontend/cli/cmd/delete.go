package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/furisto/debrief/backend/debrief"
	"github.com/furisto/debrief/backend/share"
)

type deleteOptions struct {
	Force bool
}

func NewDeleteCmd() *cobra.Command {
	var options deleteOptions

	cmd := &cobra.Command{
		Use:     "delete <id>... [flags]",
		Short:   "Delete one or more debriefs",
		Aliases: []string{"rm"},
		Example: `  # Delete a debrief after confirming
  debrief delete 3f2a

  # Delete several without confirmation
  debrief delete 3f2a 9bc0 --force`,
		Args:    cobra.MinimumNArgs(1),
		GroupID: "resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			records := make([]debrief.Record, 0, len(args))
			titles := make([]string, 0, len(args))
			for _, arg := range args {
				record, err := findRecord(cmd.Context(), arg)
				if err != nil {
					return err
				}
				records = append(records, record)
				titles = append(titles, fmt.Sprintf("%q", share.Title(record)))
			}

			s, err := newSession(cmd.Context())
			if err != nil {
				return err
			}

			confirmed := options.Force || confirmDeletion(cmd.InOrStdin(), cmd.OutOrStdout(), "debrief", titles)
			for _, record := range records {
				deleted, err := s.Delete(record.ID, func() bool { return confirmed })
				if err != nil {
					return fmt.Errorf("failed to delete debrief %s: %w", shortID(record.ID), err)
				}
				if deleted {
					fmt.Fprintf(cmd.OutOrStdout(), "Debrief %q deleted\n", share.Title(record))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&options.Force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}
