package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/furisto/debrief/backend/analytics"
	"github.com/furisto/debrief/backend/share"
	"github.com/furisto/debrief/frontend/cli/pkg/fail"
)

func NewAttachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach <id> <image>",
		Short: "Attach an image to a debrief",
		Example: `  # Attach a whiteboard photo
  debrief attach 3f2a whiteboard.jpg`,
		Args:    cobra.ExactArgs(2),
		GroupID: "resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			record, err := findRecord(ctx, args[0])
			if err != nil {
				return err
			}

			data, err := getFileSystem(ctx).ReadFile(args[1])
			if err != nil {
				return fail.EnhanceError(fmt.Errorf("failed to read %s: %w", args[1], err), map[string]any{"path": args[1]})
			}

			s, err := newSession(ctx)
			if err != nil {
				return err
			}
			if err := s.SelectExisting(record.ID); err != nil {
				return err
			}
			if err := s.AttachImage(data); err != nil {
				return err
			}
			if err := s.SaveDraft(); err != nil {
				return err
			}

			mediaType := mimetype.Detect(data).String()
			analytics.EmitImageAttached(getAnalytics(ctx), mediaType)

			fmt.Fprintf(cmd.OutOrStdout(), "Attached %s (%s, %s) to %q\n", args[1], mediaType, humanize.Bytes(uint64(len(data))), share.Title(record))
			return nil
		},
	}

	return cmd
}
