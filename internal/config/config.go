// Package config persists the application's settings: the OAuth token, the
// debug flag and the default SharePoint site. The configuration lives as JSON
// under the user's config directory and writes are guarded by a file lock so
// concurrent CLI invocations cannot corrupt it.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/office365go/office365-client/pkg/office365"
)

const appDirName = "office365-client"
const configFile = "config.json"

// ClientID is the Azure application (client) ID used for all OAuth flows.
const ClientID = "8f8b7f64-29d3-4a12-b81d-3c5ee1f9a742"

// Configuration holds all persisted settings.
type Configuration struct {
	Token   office365.Token `json:"token"`
	Debug   bool            `json:"debug"`
	SiteURL string          `json:"site_url,omitempty"`

	mu sync.RWMutex
}

// GetConfigDir returns the directory holding the configuration and session
// files, creating nothing.
func GetConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config directory: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

func configFilePath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Save persists the configuration to disk. The write is serialized through a
// file lock shared with other CLI instances.
func (c *Configuration) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

func (c *Configuration) saveLocked() error {
	jsonData, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling config to JSON: %w", err)
	}

	filePath, err := configFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	lock := flock.New(filePath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring config file lock: %w", err)
	}
	if !locked {
		return errors.New("could not acquire config file lock, another instance may be running")
	}
	defer lock.Unlock()

	if err := os.WriteFile(filePath, jsonData, 0600); err != nil {
		return fmt.Errorf("writing configuration file: %w", err)
	}
	return nil
}

// UpdateToken stores a refreshed token and persists the configuration. It is
// used as the client's token persistence callback.
func (c *Configuration) UpdateToken(token office365.Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Token = token
	return c.saveLocked()
}

// Load reads the configuration from disk.
func Load() (*Configuration, error) {
	filePath, err := configFilePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	config := &Configuration{}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return config, nil
}

// LoadOrCreate loads the configuration, returning an empty one when no
// configuration file exists yet.
func LoadOrCreate() (*Configuration, error) {
	config, err := Load()
	if err != nil {
		if os.IsNotExist(err) {
			return &Configuration{}, nil
		}
		return nil, err
	}
	return config, nil
}
