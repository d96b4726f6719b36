package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqreport/go/internal/keyring"
)

// ErrCancelled indicates the user declined a confirmation
var ErrCancelled = errors.New("cancelled")

func newKeyringCmd(a *app) *cobra.Command {
	var force bool

	keyringCmd := &cobra.Command{
		Use:   "keyring",
		Short: "Manage tokens stored in the system keyring",
		Long: `Store SonarQube tokens in the system keyring, one per server URL.

A token argument of "-" looks the token up in SQREPORT_TOKEN first, then in
the keyring entry for <baseURL>, then prompts for it.`,
	}

	statusCmd := &cobra.Command{
		Use:   "status <baseURL>",
		Short: "Show keyring status for a server",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			km := a.keyring
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Keyring Status:")
			fmt.Fprintf(out, "  Service: %s\n", km.GetServiceName())
			fmt.Fprintf(out, "  Server: %s\n", keyring.ServerKey(args[0]))
			fmt.Fprintf(out, "  Enabled: %t\n", km.IsEnabled())
			fmt.Fprintf(out, "  Has Stored Token: %t\n", km.HasToken(args[0]))
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <baseURL>",
		Short: "Save a token for a server",
		Long: `Save a SonarQube token for <baseURL> to the system keyring. The token is
read without echo on a terminal, or as one line from stdin otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			km := a.keyring
			server := args[0]

			if !km.IsEnabled() {
				return keyring.ErrKeyringDisabled
			}
			if km.HasToken(server) && !force {
				if err := a.confirm(cmd, "Token already stored. Overwrite? (y/N): "); err != nil {
					return err
				}
			}

			token, err := a.prompt(cmd, fmt.Sprintf("Token for %s: ", server))
			if err != nil {
				return fmt.Errorf("failed to read token: %w", err)
			}
			if token == "" {
				return ErrNoToken
			}

			if err := km.SaveToken(server, token); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token saved to keyring successfully")
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear <baseURL>",
		Short: "Remove the token stored for a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			km := a.keyring
			server := args[0]

			if !km.HasToken(server) {
				fmt.Fprintln(cmd.OutOrStdout(), "No token stored in keyring")
				return nil
			}
			if !force {
				if err := a.confirm(cmd, "Remove token from keyring? (y/N): "); err != nil {
					return err
				}
			}

			if err := km.DeleteToken(server); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token removed from keyring successfully")
			return nil
		},
	}

	setCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite without confirmation")
	clearCmd.Flags().BoolVarP(&force, "force", "f", false, "Remove without confirmation")

	keyringCmd.AddCommand(statusCmd, setCmd, clearCmd)
	return keyringCmd
}

// confirm asks a yes/no question. It refuses when stdin is not a terminal.
func (a *app) confirm(cmd *cobra.Command, question string) error {
	if !a.isTerminal() {
		return fmt.Errorf("%w: use --force to skip confirmation", ErrCancelled)
	}
	fmt.Fprint(cmd.ErrOrStderr(), question)
	answer, err := readLine(cmd.InOrStdin())
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") {
		return ErrCancelled
	}
	return nil
}
