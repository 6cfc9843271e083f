// Package session (auth.go) manages the state file used during the OAuth
// device code flow. The device code, user code and verification URI are
// stored on disk while the user signs in from a browser, so a later CLI
// invocation can complete the login.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const authSessionFile = "auth_session.json"

// AuthState is the state of a pending device code login.
type AuthState struct {
	DeviceCode      string `json:"device_code"`
	VerificationURI string `json:"verification_uri"`
	UserCode        string `json:"user_code"`
	Interval        int    `json:"interval"`
}

func (m *Manager) getAuthSessionFilePath() string {
	return filepath.Join(m.getSessionDir(), authSessionFile)
}

// SaveAuthState persists a pending login. A file lock prevents concurrent
// CLI instances from corrupting the session file.
func (m *Manager) SaveAuthState(state *AuthState) error {
	sessionDir := m.getSessionDir()
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return fmt.Errorf("creating session directory '%s' for auth state: %w", sessionDir, err)
	}

	filePath := m.getAuthSessionFilePath()

	fileLock := flock.New(filePath + ".lock")
	locked, err := fileLock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring file lock for auth session '%s': %w", filePath, err)
	}
	if !locked {
		return errors.New("could not acquire file lock for auth session, another instance may be running")
	}
	defer fileLock.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling auth session state: %w", err)
	}
	return os.WriteFile(filePath, data, 0600)
}

// LoadAuthState retrieves a pending login, or (nil, nil) when none exists.
func (m *Manager) LoadAuthState() (*AuthState, error) {
	filePath := m.getAuthSessionFilePath()

	sessionDir := m.getSessionDir()
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return nil, fmt.Errorf("creating session directory '%s' for loading auth state: %w", sessionDir, err)
	}

	fileLock := flock.New(filePath + ".lock")
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring file lock for reading auth session '%s': %w", filePath, err)
	}
	if !locked {
		return nil, errors.New("could not acquire file lock for reading auth session, another instance may be active")
	}
	defer fileLock.Unlock()

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading auth session file '%s': %w", filePath, err)
	}

	var state AuthState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshalling auth session state from '%s': %w", filePath, err)
	}
	return &state, nil
}

// DeleteAuthState removes the pending login state. Deleting a state that
// does not exist is not an error.
func (m *Manager) DeleteAuthState() error {
	filePath := m.getAuthSessionFilePath()

	sessionDir := m.getSessionDir()
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return fmt.Errorf("creating session directory '%s' for deleting auth state: %w", sessionDir, err)
	}

	fileLock := flock.New(filePath + ".lock")
	locked, err := fileLock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring file lock for deleting auth session '%s': %w", filePath, err)
	}
	if !locked {
		return errors.New("could not acquire file lock for deleting auth session, another instance may be active")
	}
	defer fileLock.Unlock()

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting auth session file '%s': %w", filePath, err)
	}
	return nil
}
