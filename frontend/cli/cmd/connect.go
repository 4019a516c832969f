package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/furisto/debrief/backend/secret"
)

type connectOptions struct {
	Key string
}

func NewConnectCmd() *cobra.Command {
	var options connectOptions

	cmd := &cobra.Command{
		Use:   "connect [flags]",
		Short: "Store the Gemini API key",
		Long: `Store the Gemini API key used for suggestions, analysis and chat.

The key is kept in the credential store selected by credential.store
(the system keyring by default). DEBRIEF_API_KEY and GEMINI_API_KEY take
precedence over the stored key.`,
		Example: `  # Enter the key interactively
  debrief connect

  # Pass the key on the command line
  debrief connect --key AIza...`,
		Args:    cobra.NoArgs,
		GroupID: "system",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(options.Key)
			if key == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Enter Gemini API key: ")
				read, err := readSecret(cmd.InOrStdin())
				fmt.Fprintln(cmd.OutOrStdout())
				if err != nil {
					return fmt.Errorf("failed to read API key: %w", err)
				}
				key = strings.TrimSpace(read)
			}
			if key == "" {
				return fmt.Errorf("API key cannot be empty")
			}

			if err := storeCredential(cmd.Context(), key); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "API key %s stored in %s\n", secret.Mask(key), credentialStoreName(cmd))
			return nil
		},
	}

	cmd.Flags().StringVar(&options.Key, "key", "", "API key to store")
	return cmd
}

func NewDisconnectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "disconnect",
		Short:   "Remove the stored Gemini API key",
		Args:    cobra.NoArgs,
		GroupID: "system",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := getSecretStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Delete(secret.CredentialKey); err != nil {
				return fmt.Errorf("failed to remove API key: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "API key removed from %s\n", credentialStoreName(cmd))
			for _, name := range secret.CredentialEnvVars {
				if strings.TrimSpace(os.Getenv(name)) != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s is still set and will be used\n", name)
				}
			}
			return nil
		},
	}

	return cmd
}

// readSecret reads a line without echo when in is a terminal.
func readSecret(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return line, nil
}

func credentialStoreName(cmd *cobra.Command) string {
	if store := getConfig(cmd.Context()).Credential.Store; store != "" {
		return store
	}
	return string(secret.StoreKeyring)
}
