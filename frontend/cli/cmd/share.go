package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/furisto/debrief/backend/analytics"
	"github.com/furisto/debrief/backend/share"
)

type shareOptions struct {
	Channel string
	Print   bool
}

func NewShareCmd() *cobra.Command {
	options := shareOptions{Channel: "native"}

	cmd := &cobra.Command{
		Use:   "share <id> [flags]",
		Short: "Share a debrief summary",
		Long: `Share a plain text summary of a debrief.

Channels:
  whatsapp  open a WhatsApp message with the summary
  email     open a new mail with the summary
  native    copy the summary to the clipboard`,
		Example: `  # Copy the summary to the clipboard
  debrief share 3f2a

  # Send it by mail
  debrief share 3f2a --channel email

  # Just print it
  debrief share 3f2a --print`,
		Args:    cobra.ExactArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := findRecord(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if options.Print {
				fmt.Fprintln(cmd.OutOrStdout(), share.Digest(record))
				return nil
			}

			channel, ok := share.Channels(getShareOpener(cmd.Context()), getShareCopier(cmd.Context()))[options.Channel]
			if !ok {
				return fmt.Errorf("unknown channel %q: must be one of %s", options.Channel, strings.Join(share.ChannelNames(), ", "))
			}

			if err := share.Send(cmd.Context(), channel, record); err != nil {
				return err
			}
			analytics.EmitDebriefShared(getAnalytics(cmd.Context()), channel.Name())

			fmt.Fprintf(cmd.OutOrStdout(), "Shared %q via %s\n", share.Title(record), channel.Name())
			return nil
		},
	}

	cmd.Flags().StringVarP(&options.Channel, "channel", "c", options.Channel, "share channel ("+strings.Join(share.ChannelNames(), ", ")+")")
	cmd.Flags().BoolVar(&options.Print, "print", false, "print the summary instead of sharing it")
	_ = cmd.RegisterFlagCompletionFunc("channel", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return slices.Clone(share.ChannelNames()), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
