package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	// keychainService is the service name used for keychain entries.
	keychainService = appName

	// APIKeySecret is the keychain entry holding the model API key.
	APIKeySecret = "model_api_key"
)

// ErrNoAPIKey indicates no API key could be found in config, env, or keychain.
var ErrNoAPIKey = errors.New("API key is required")

// ResolveAPIKey returns the model API key from, in order, the config file,
// the configured environment variable, and the system keychain.
func (m ModelConfig) ResolveAPIKey() (string, error) {
	if m.APIKey != "" {
		return m.APIKey, nil
	}
	if m.APIKeyEnvVar != "" {
		if v := os.Getenv(m.APIKeyEnvVar); v != "" {
			return v, nil
		}
	}

	value, err := keyring.Get(keychainService, APIKeySecret)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w: set %s or run 'toolchat auth set-key'", ErrNoAPIKey, m.APIKeyEnvVar)
		}
		return "", fmt.Errorf("keychain error: %w", err)
	}
	return value, nil
}

// StoreAPIKey saves the model API key in the system keychain.
func StoreAPIKey(value string) error {
	if err := keyring.Set(keychainService, APIKeySecret, value); err != nil {
		return fmt.Errorf("keychain error: %w", err)
	}
	return nil
}

// DeleteAPIKey removes the model API key from the system keychain.
func DeleteAPIKey() error {
	if err := keyring.Delete(keychainService, APIKeySecret); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("keychain error: %w", err)
	}
	return nil
}
