// Package cmd (root.go) defines the root command for the office365-client
// CLI. It sets up global flags, persistent pre-run checks for authentication,
// and registers subcommands.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/office365go/office365-client/internal/app"
	"github.com/office365go/office365-client/pkg/office365"
)

var rootCmd = &cobra.Command{
	Use:   "office365-client",
	Short: "A CLI client for Microsoft 365 mail and SharePoint sites",
	Long: `office365-client is a command-line interface for Microsoft 365.
It lets you read and send mail, manage attachments, and provision
SharePoint team sites from the terminal.

Current capabilities include:
  - Authentication management (login, logout, status)
  - Listing, reading, sending, replying to and forwarding messages
  - Moving and deleting messages, downloading raw MIME content
  - Uploading and listing attachments, with resumable large file uploads
  - Creating group-connected SharePoint sites and tracking provisioning`,
	// Most commands require authentication; the 'auth' command group is
	// exempt since it establishes it.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Parent() != nil && cmd.Parent().Name() == "auth" {
			return nil
		}

		_, err := app.NewApp(cmd)
		if err != nil {
			if errors.Is(err, app.ErrLoginPending) {
				// The error message carries the "go to URL" instructions.
				fmt.Println(err.Error())
				return app.ErrLoginPending
			}
			// Without a token, individual commands surface the reauth
			// requirement themselves.
			if errors.Is(err, office365.ErrReauthRequired) {
				return nil
			}
			return err
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// ErrLoginPending was already explained to the user in the pre-run.
		if !errors.Is(err, app.ErrLoginPending) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging for SDK and internal operations")
}
