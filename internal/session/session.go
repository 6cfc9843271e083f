// Package session persists transient state between CLI invocations: pending
// device code logins and in-flight attachment uploads. State files live in a
// sessions directory under the application config directory and every access
// goes through a file lock, since several CLI instances may run at once.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// UploadState tracks an attachment upload in progress, so an interrupted
// transfer can be reported and cleaned up on the next run.
type UploadState struct {
	UploadURL          string    `json:"uploadUrl"`
	ExpirationDateTime time.Time `json:"expirationDateTime"`
	LocalPath          string    `json:"localPath"`
	MessageID          string    `json:"messageId"`
	TotalBytes         int64     `json:"totalBytes"`
	CompletedBytes     int64     `json:"completedBytes"`
}

// Manager handles session file operations with a configurable directory.
type Manager struct {
	configDir string
}

// NewManager creates a session manager rooted at the default config
// directory.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("could not get user config directory: %w", err)
	}
	return &Manager{
		configDir: filepath.Join(configDir, "office365-client"),
	}, nil
}

// NewManagerWithConfigDir creates a session manager with a custom config
// directory, used by tests.
func NewManagerWithConfigDir(configDir string) *Manager {
	return &Manager{configDir: configDir}
}

func (m *Manager) getSessionDir() string {
	return filepath.Join(m.configDir, "sessions")
}

// GetUploadStateFilePath returns the path for an upload state file. The name
// is a deterministic hash of the message and local file, so repeated runs
// find the same state.
func (m *Manager) GetUploadStateFilePath(messageID, localPath string) string {
	hash := sha256.New()
	hash.Write([]byte(messageID + ":" + localPath))
	filename := hex.EncodeToString(hash.Sum(nil)) + ".json"
	return filepath.Join(m.getSessionDir(), filename)
}

// SaveUploadState persists the state of an attachment upload.
func (m *Manager) SaveUploadState(state *UploadState) error {
	sessionDir := m.getSessionDir()
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return fmt.Errorf("could not create session directory: %w", err)
	}

	filePath := m.GetUploadStateFilePath(state.MessageID, state.LocalPath)

	lock := flock.New(filePath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("could not acquire file lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("could not acquire file lock, another instance may be running")
	}
	defer lock.Unlock()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("could not marshal upload state: %w", err)
	}
	return os.WriteFile(filePath, data, 0600)
}

// LoadUploadState retrieves the state of an attachment upload. It returns
// (nil, nil) when no state exists; expired state is cleaned up and treated
// the same way.
func (m *Manager) LoadUploadState(messageID, localPath string) (*UploadState, error) {
	filePath := m.GetUploadStateFilePath(messageID, localPath)

	// The lock file lives next to the state file, so the directory must
	// exist before locking.
	if err := os.MkdirAll(m.getSessionDir(), 0755); err != nil {
		return nil, fmt.Errorf("could not create session directory: %w", err)
	}

	lock := flock.New(filePath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("could not acquire file lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("could not acquire file lock, another instance may be running")
	}
	defer lock.Unlock()

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read upload state file: %w", err)
	}

	var state UploadState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("could not unmarshal upload state: %w", err)
	}

	if !state.ExpirationDateTime.IsZero() && time.Now().After(state.ExpirationDateTime) {
		_ = m.DeleteUploadState(messageID, localPath)
		return nil, nil
	}

	return &state, nil
}

// DeleteUploadState removes an upload state file. Deleting state that does
// not exist is not an error.
func (m *Manager) DeleteUploadState(messageID, localPath string) error {
	filePath := m.GetUploadStateFilePath(messageID, localPath)

	if err := os.MkdirAll(m.getSessionDir(), 0755); err != nil {
		return fmt.Errorf("could not create session directory: %w", err)
	}

	lock := flock.New(filePath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("could not acquire file lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("could not acquire file lock, another instance may be running")
	}
	defer lock.Unlock()

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete upload state file: %w", err)
	}
	return nil
}
