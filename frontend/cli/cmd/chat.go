package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/furisto/debrief/backend/analytics"
	"github.com/furisto/debrief/backend/gateway"
	"github.com/furisto/debrief/backend/share"
)

var (
	userLabel      = color.New(color.FgCyan, color.Bold)
	assistantLabel = color.New(color.FgGreen, color.Bold)
)

func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [id]",
		Short: "Talk a debrief through with the assistant",
		Long: `Start a conversation with the debrief assistant.

When an id is given the debrief summary is shared with the assistant as
context for the first question. Type exit or quit, or press ctrl+d, to end
the conversation.`,
		Example: `  # Ask general questions
  debrief chat

  # Discuss a specific debrief
  debrief chat 3f2a`,
		Args:    cobra.MaximumNArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var preamble string
			if len(args) == 1 {
				record, err := findRecord(ctx, args[0])
				if err != nil {
					return err
				}
				preamble = "This is the debrief we are discussing:\n\n" + share.Digest(record) + "\n\n"
				fmt.Fprintf(cmd.OutOrStdout(), "Discussing %q. Type exit to leave.\n", share.Title(record))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Ask the debrief assistant. Type exit to leave.")
			}

			credential, err := resolveCredential(ctx)
			if err != nil {
				return err
			}
			gw := newGateway(ctx, credential)

			var history []gateway.Message
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				userLabel.Fprint(cmd.OutOrStdout(), "you> ")
				if !scanner.Scan() {
					fmt.Fprintln(cmd.OutOrStdout())
					return scanner.Err()
				}

				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "":
					continue
				case "exit", "quit":
					return nil
				}

				message := line
				if len(history) == 0 {
					message = preamble + line
				}

				reply, err := gw.Converse(ctx, history, message)
				analytics.EmitChatTurn(getAnalytics(ctx), err == nil)

				assistantLabel.Fprint(cmd.OutOrStdout(), "assistant> ")
				fmt.Fprintln(cmd.OutOrStdout(), reply)

				if isMissingCredential(err) {
					return nil
				}
				if err != nil {
					slog.Warn("chat turn failed", "error", err)
					continue
				}
				history = append(history,
					gateway.Message{Role: gateway.RoleUser, Content: message},
					gateway.Message{Role: gateway.RoleAssistant, Content: reply},
				)
			}
		},
	}

	return cmd
}
