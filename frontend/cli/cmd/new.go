package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/furisto/debrief/backend/secret"
	"github.com/furisto/debrief/backend/session"
	"github.com/furisto/debrief/backend/share"
	"github.com/furisto/debrief/frontend/cli/pkg/terminal"
)

func NewNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new debrief",
		Long: `Start a new debrief in the interactive wizard.

The wizard walks through three steps: what was planned and what happened,
the gaps between the two, and the root causes and conclusions. Gaps and
conclusions are suggested by the assistant and can be edited freely.`,
		Example: `  # Start a new debrief
  debrief new

  # Open the dashboard instead
  debrief`,
		Args:    cobra.NoArgs,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newWizardSession(cmd.Context())
			if err != nil {
				return err
			}
			return runWizard(cmd, s, func(s *session.Session) error {
				return s.StartNew()
			})
		},
	}

	return cmd
}

func NewEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <id>",
		Short:   "Open an archived debrief in the wizard",
		Aliases: []string{"open"},
		Example: `  # Continue a draft
  debrief edit 3f2a`,
		Args:    cobra.ExactArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := findRecord(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			s, err := newWizardSession(cmd.Context())
			if err != nil {
				return err
			}
			return runWizard(cmd, s, func(s *session.Session) error {
				return s.SelectExisting(record.ID)
			})
		},
	}

	return cmd
}

// runWizard runs the full screen program over s. open moves the session
// to the state the command asks for; on the setup screen it runs once a
// key has been provided.
func runWizard(cmd *cobra.Command, s *session.Session, open func(s *session.Session) error) error {
	ctx := cmd.Context()

	if open != nil && s.State() != session.Setup {
		if err := open(s); err != nil {
			return err
		}
		open = nil
	}

	opts := []terminal.Option{
		terminal.WithClock(getClock(ctx)),
		terminal.WithFileSystem(getFileSystem(ctx).Fs),
		terminal.WithShareChannel(share.Channels(getShareOpener(ctx), getShareCopier(ctx))["native"]),
		terminal.WithCredentialStore(func(key string) error {
			return storeCredential(ctx, key)
		}),
		terminal.WithAfterSetup(open),
	}

	app := terminal.NewApp(ctx, s, opts...)
	return getProgramRunner(ctx)(ctx, app, cmd.InOrStdin(), cmd.OutOrStdout())
}

func storeCredential(ctx context.Context, key string) error {
	store, err := getSecretStore(ctx)
	if err != nil {
		return err
	}
	return store.Set(secret.CredentialKey, key)
}
