package host

import (
	"errors"
	"fmt"

	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/zalando/go-keyring"
)

// LoadToken returns the access token stored for baseURL in the OS keyring.
// A missing entry is not an error: the host may accept anonymous reads.
func LoadToken(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}
	token, err := keyring.Get(config.KeyringService, baseURL)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrTokenLoad, err)
	}
	return token, nil
}

// SaveToken stores the access token for baseURL. An empty token deletes the entry.
func SaveToken(baseURL, token string) error {
	if baseURL == "" {
		return ErrHostURLEmpty
	}
	if token == "" {
		if err := keyring.Delete(config.KeyringService, baseURL); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%s: %w", config.ErrTokenSave, err)
		}
		return nil
	}
	if err := keyring.Set(config.KeyringService, baseURL, token); err != nil {
		return fmt.Errorf("%s: %w", config.ErrTokenSave, err)
	}
	return nil
}
