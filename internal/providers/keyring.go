package providers

import (
	"context"
	"errors"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the keyring service that secrets are stored under.
const DefaultKeyringService = "unisecret"

// KeyringBackend reads secrets from the OS keyring (macOS Keychain, Secret
// Service on Linux, Windows Credential Manager). The secret key is the account.
type KeyringBackend struct {
	service string
}

// NewKeyringBackend creates a keyring backend for service.
// An empty service selects DefaultKeyringService.
func NewKeyringBackend(service string) *KeyringBackend {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringBackend{service: service}
}

// Type returns the backend type
func (k *KeyringBackend) Type() string {
	return "keyring"
}

// Service returns the keyring service name.
func (k *KeyringBackend) Service() string {
	return k.service
}

type keyringResult struct {
	value string
	err   error
}

// Fetch looks up key as an account under the configured service.
//
// The keyring API is not context-aware, so the lookup runs in its own
// goroutine and Fetch returns as soon as ctx is done.
func (k *KeyringBackend) Fetch(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	done := make(chan keyringResult, 1)
	go func() {
		value, err := keyring.Get(k.service, key)
		done <- keyringResult{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case res := <-done:
		if errors.Is(res.err, keyring.ErrNotFound) {
			return "", false, nil
		}
		if res.err != nil {
			return "", false, &KeyringError{Service: k.service, Err: res.err}
		}
		return res.value, true, nil
	}
}
