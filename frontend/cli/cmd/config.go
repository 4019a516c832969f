package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/furisto/debrief/shared/config"
)

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and change settings",
		Long: `Read and change settings stored in the configuration file.

Every key can be overridden with an environment variable named after it,
for example DEBRIEF_MODELS_DEEP for models.deep.`,
		GroupID: "system",
	}

	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigUnsetCmd())
	cmd.AddCommand(newConfigListCmd())
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "get <key>",
		Short:             "Print the effective value of a setting",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeConfigKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := getConfigStore(cmd.Context()).Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting",
		Example: `  # Use the SQLite archive
  debrief config set archive.backend sqlite

  # Pick another analysis model
  debrief config set models.deep gemini-2.5-pro`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeConfigKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := getConfigStore(cmd.Context())
			if err := store.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s set to %q\n", args[0], args[1])
			if env := config.EnvName(args[0]); os.Getenv(env) != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s is set and overrides the stored value\n", env)
			}
			return nil
		},
	}
}

func newConfigUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "unset <key>",
		Short:             "Remove a setting from the configuration file",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeConfigKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := getConfigStore(cmd.Context()).Set(args[0], ""); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s unset\n", args[0])
			return nil
		},
	}
}

func newConfigListCmd() *cobra.Command {
	var options RenderOptions

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List all settings and where their values come from",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return getRenderer(cmd.Context()).Render(getConfigStore(cmd.Context()).List(), &options)
		},
	}

	addRenderOptions(cmd, &options)
	return cmd
}

func completeConfigKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return config.Keys(), cobra.ShellCompDirectiveNoFileComp
}
