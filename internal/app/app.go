// Package app wires the CLI together: it loads configuration, completes
// pending device code logins, builds the authenticated client and exposes
// the SDK surface to the command layer.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/office365go/office365-client/internal/config"
	"github.com/office365go/office365-client/internal/logger"
	"github.com/office365go/office365-client/internal/session"
	"github.com/office365go/office365-client/internal/ui"
	"github.com/office365go/office365-client/pkg/office365"
)

// ErrLoginPending indicates a device code login was started but the user has
// not yet finished signing in from their browser.
var ErrLoginPending = errors.New("login pending")

// App is the assembled application state handed to command logic.
type App struct {
	Config *config.Configuration
	Logger logger.Logger
	Client *office365.Client
	SDK    SDK
}

// NewApp loads configuration, resolves any pending login and builds the
// authenticated client and SDK. It returns ErrLoginPending (with user
// instructions in the message) while a device code login awaits the user,
// and office365.ErrReauthRequired when no credentials exist at all.
func NewApp(cmd *cobra.Command) (*App, error) {
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}

	app := &App{
		Config: cfg,
		Logger: logger.NewDefaultLogger(cfg.Debug),
	}

	if err := app.initializeClient(cmd.Context()); err != nil {
		if errors.Is(err, ErrLoginPending) {
			return nil, err
		}
		if errors.Is(err, office365.ErrReauthRequired) {
			return nil, err
		}
		return nil, fmt.Errorf("initializing client: %w", err)
	}

	return app, nil
}

func (a *App) initializeClient(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	sessions, err := session.NewManager()
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}

	// A pending device code login takes priority: try to complete it.
	pendingAuth, err := sessions.LoadAuthState()
	if err != nil {
		return fmt.Errorf("could not load auth state: %w", err)
	}

	if pendingAuth != nil {
		token, err := office365.VerifyDeviceCode(config.ClientID, pendingAuth.DeviceCode, a.Config.Debug)
		if err != nil {
			if errors.Is(err, office365.ErrAuthorizationPending) {
				return fmt.Errorf("%w: Please go to %s and enter code %s", ErrLoginPending, pendingAuth.VerificationURI, pendingAuth.UserCode)
			}
			// The code expired or the user declined; the pending session
			// is now useless.
			_ = sessions.DeleteAuthState()
			return fmt.Errorf("authentication failed. Your login code may have expired. Please try again: %w", err)
		}

		a.Config.Token = *token
		if err := a.Config.Save(); err != nil {
			return fmt.Errorf("saving token: %w", err)
		}
		if err := sessions.DeleteAuthState(); err != nil {
			log.Printf("Warning: could not delete auth session file: %v", err)
		}
		fmt.Println("Login successful!")
	}

	if a.Config.Token.AccessToken == "" {
		return office365.ErrReauthRequired
	}

	a.Client = office365.NewClient(ctx, &a.Config.Token, config.ClientID,
		func(token *office365.Token) error {
			return a.Config.UpdateToken(*token)
		},
		a.Logger,
	)
	a.SDK = NewSDK(a.Client, sessions)
	return nil
}

// GetMe fetches the signed-in user's profile.
func (a *App) GetMe(ctx context.Context) (office365.User, error) {
	return a.SDK.GetMe(ctx)
}

// Logout clears the stored credentials and any pending login session.
func Logout(cfg *config.Configuration) error {
	cfg.Token = office365.Token{}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("could not clear token: %w", err)
	}

	sessions, err := session.NewManager()
	if err == nil {
		if err := sessions.DeleteAuthState(); err != nil {
			log.Printf("Warning: could not delete auth session file during logout: %v", err)
		}
	}
	ui.Success("You have been logged out.")
	return nil
}
