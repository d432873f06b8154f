// Package auth resolves and stores the x.com session token. Protected
// accounts need the auth_token cookie of a logged-in session; public
// accounts work without one.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Credential is the stored session token
type Credential struct {
	AuthToken    string    `json:"auth_token"`
	LastModified time.Time `json:"last_modified"`
}

// TokenStore is the interface for persisting the session token
type TokenStore interface {
	// Store saves the credential
	Store(cred *Credential) error

	// Retrieve gets the stored credential
	Retrieve() (*Credential, error)

	// Delete removes the stored credential
	Delete() error

	// Exists checks if a credential is stored
	Exists() bool
}

// Manager handles token storage with fallback mechanisms
type Manager struct {
	stores []TokenStore
}

// NewManager creates a token manager with the available storage backends:
// system keychain when present, encrypted file as fallback, environment
// variables read-only last.
func NewManager() (*Manager, error) {
	var stores []TokenStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "token.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over an explicit store chain
func NewManagerWithStores(stores ...TokenStore) *Manager {
	return &Manager{stores: stores}
}

// Resolve returns the token to use for a run. A non-empty flag value wins;
// otherwise the store chain is consulted in order (environment variables,
// including values loaded from .env, sit at the end of the chain built by
// NewManager but are checked first here to match the documented precedence).
// An empty result is not an error: it means an anonymous run.
func (m *Manager) Resolve(flagToken string) string {
	if token := strings.TrimSpace(flagToken); token != "" {
		return token
	}

	if token := tokenFromEnv(); token != "" {
		return token
	}

	for _, store := range m.stores {
		if cred, err := store.Retrieve(); err == nil && cred != nil && cred.AuthToken != "" {
			return cred.AuthToken
		}
	}

	return ""
}

// Store saves the token using the first store that accepts it
func (m *Manager) Store(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("auth token is required")
	}

	cred := &Credential{
		AuthToken:    token,
		LastModified: time.Now(),
	}

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(cred); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return errors.New("no available token stores")
}

// Retrieve gets the stored credential from the first store that has one
func (m *Manager) Retrieve() (*Credential, error) {
	for _, store := range m.stores {
		if cred, err := store.Retrieve(); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, ErrTokenNotFound
}

// Delete removes the token from every store that holds it
func (m *Manager) Delete() error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete token: %w", lastErr)
	}
	if !deleted {
		return ErrTokenNotFound
	}

	return nil
}

// Exists checks whether any store holds a token
func (m *Manager) Exists() bool {
	for _, store := range m.stores {
		if store.Exists() {
			return true
		}
	}
	return false
}

// tokenFromEnv reads the token from the environment. AUTH_TOKEN is the name
// .env files conventionally use; XDL_AUTH_TOKEN wins when both are set.
func tokenFromEnv() string {
	if token := os.Getenv("XDL_AUTH_TOKEN"); token != "" {
		return token
	}
	return os.Getenv("AUTH_TOKEN")
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "xdl")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "xdl")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "xdl")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "xdl")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// MaskToken masks all but the first 4 and last 4 characters of a token
func MaskToken(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrTokenNotFound    = errors.New("auth token not found")
	ErrInvalidToken     = errors.New("invalid auth token")
	ErrStoreUnavailable = errors.New("token store unavailable")
)
