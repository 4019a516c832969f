package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type exportOptions struct {
	File string
}

func NewExportCmd() *cobra.Command {
	var options exportOptions

	cmd := &cobra.Command{
		Use:   "export [flags]",
		Short: "Export the archive as JSON",
		Example: `  # Print the archive
  debrief export

  # Write it to a file
  debrief export --file backup.json`,
		Args:    cobra.NoArgs,
		GroupID: "resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			records := getArchive(cmd.Context()).Load()
			data, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode archive: %w", err)
			}
			data = append(data, '\n')

			if options.File == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			if err := getFileSystem(cmd.Context()).WriteFile(options.File, data, 0600); err != nil {
				return fmt.Errorf("failed to write %s: %w", options.File, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d debriefs to %s\n", len(records), options.File)
			return nil
		},
	}

	cmd.Flags().StringVarP(&options.File, "file", "f", "", "write to file instead of stdout")
	return cmd
}
