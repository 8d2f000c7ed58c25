package resolve

import (
	"errors"
	"fmt"

	"github.com/systmms/unisecret/internal/logging"
)

var (
	// ErrInvalidKey is returned for an empty secret name.
	ErrInvalidKey = errors.New("resolve: secret key must not be empty")

	// ErrClosed is returned by a Resolver after Close.
	ErrClosed = errors.New("resolve: resolver is closed")
)

// SecretNotFoundError reports that neither the cache nor any provider had Key.
type SecretNotFoundError struct {
	Key string
}

func (e *SecretNotFoundError) Error() string {
	return fmt.Sprintf("secret not found: %s", logging.RedactKey(e.Key))
}

// IsNotFound reports whether err is a *SecretNotFoundError.
func IsNotFound(err error) bool {
	var notFound *SecretNotFoundError
	return errors.As(err, &notFound)
}
