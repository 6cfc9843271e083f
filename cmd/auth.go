// Package cmd (auth.go) defines the authentication commands: 'auth login',
// 'auth logout' and 'auth status'. Login uses the OAuth device code flow;
// the pending state is stored by the session package until the user finishes
// signing in from a browser.
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/office365go/office365-client/internal/app"
	"github.com/office365go/office365-client/internal/config"
	"github.com/office365go/office365-client/internal/session"
	"github.com/office365go/office365-client/pkg/office365"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication with Microsoft 365",
	Long:  `Provides subcommands to initiate login, clear the current session (logout), and check authentication status.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Microsoft 365 using the device code flow",
	Long: `Starts the authentication process. You will be prompted to visit a URL
in a web browser and enter a unique code to authorize this application.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrCreate()
		if err != nil {
			return fmt.Errorf("loading configuration for login: %w", err)
		}

		if cfg.Token.AccessToken != "" {
			fmt.Println("You are already logged in. To switch accounts or re-authenticate, please run 'office365-client auth logout' first.")
			return nil
		}

		sessionMgr, err := session.NewManager()
		if err != nil {
			return fmt.Errorf("creating session manager: %w", err)
		}

		pending, err := sessionMgr.LoadAuthState()
		if err != nil {
			return fmt.Errorf("checking for pending login: %w", err)
		}
		if pending != nil {
			fmt.Println("A login attempt is already pending. Please complete it by visiting the previously provided URL and entering the code.")
			fmt.Println("Alternatively, run 'office365-client auth logout' to cancel the pending attempt and start over.")
			return nil
		}

		debug, _ := cmd.Flags().GetBool("debug")
		deviceCodeResp, err := office365.InitiateDeviceCodeFlow(config.ClientID, debug)
		if err != nil {
			return fmt.Errorf("login initiation failed: %w", err)
		}

		authState := &session.AuthState{
			DeviceCode:      deviceCodeResp.DeviceCode,
			VerificationURI: deviceCodeResp.VerificationURI,
			UserCode:        deviceCodeResp.UserCode,
			Interval:        deviceCodeResp.Interval,
		}
		if err := sessionMgr.SaveAuthState(authState); err != nil {
			return fmt.Errorf("saving auth session state failed: %w", err)
		}

		fmt.Printf("To complete authentication, please open a web browser and go to: \n%s\n", deviceCodeResp.VerificationURI)
		fmt.Printf("Then, enter the following code: %s\n\n", deviceCodeResp.UserCode)
		fmt.Printf("This code will expire in approximately %d minutes.\n", deviceCodeResp.ExpiresIn/60)
		fmt.Println(deviceCodeResp.Message)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the current user session and log out",
	Long:  `Removes the stored authentication token and any pending login state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrCreate()
		if err != nil {
			return fmt.Errorf("loading configuration for logout: %w", err)
		}
		if err := app.Logout(cfg); err != nil {
			return fmt.Errorf("logout failed: %w", err)
		}
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display the current authentication status",
	Long:  `Checks if you are currently logged in. If authenticated, it displays your user information. If a login is pending, it provides instructions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd)
		if err != nil {
			if errors.Is(err, app.ErrLoginPending) {
				fmt.Println(err.Error())
				return nil
			}
			if errors.Is(err, office365.ErrReauthRequired) {
				fmt.Println("You are not logged in. Please run 'office365-client auth login'.")
				return nil
			}
			return fmt.Errorf("checking authentication status: %w", err)
		}

		user, err := a.GetMe(cmd.Context())
		if err != nil {
			return fmt.Errorf("could not retrieve user information: %w", err)
		}
		fmt.Printf("You are logged in as: %s (%s)\n", user.DisplayName, user.UserPrincipalName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
}
