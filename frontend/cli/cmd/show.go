package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/furisto/debrief/frontend/cli/pkg/terminal"
)

type showOptions struct {
	Raw bool
}

func NewShowCmd() *cobra.Command {
	var options showOptions

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a debrief",
		Example: `  # Render a debrief in the terminal
  debrief show 3f2a

  # Print the markdown source
  debrief show 3f2a --raw > review.md`,
		Args:    cobra.ExactArgs(1),
		GroupID: "resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := findRecord(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			markdown := terminal.RecordMarkdown(record)
			if options.Raw {
				fmt.Fprint(cmd.OutOrStdout(), markdown)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), terminal.RenderMarkdown(markdown, 100))
			return nil
		},
	}

	cmd.Flags().BoolVar(&options.Raw, "raw", false, "print markdown without terminal styling")
	return cmd
}
