package providers

import (
	"context"
	"os"
	"time"

	"github.com/systmms/unisecret/pkg/provider"
)

// LookupFunc reads an environment variable. os.Getenv by default.
type LookupFunc func(name string) string

// EnvProvider reads the process environment variable named by the key.
// A variable that is unset or empty is a miss.
type EnvProvider struct {
	getenv LookupFunc
	now    func() time.Time
}

// NewEnvProvider creates an environment provider. A nil getenv uses os.Getenv.
func NewEnvProvider(getenv LookupFunc) *EnvProvider {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &EnvProvider{getenv: getenv, now: time.Now}
}

// Name returns the provider name
func (e *EnvProvider) Name() string {
	return provider.OriginEnv
}

// Get looks up key in the environment
func (e *EnvProvider) Get(ctx context.Context, key string) (provider.ResolvedSecret, bool, error) {
	return lookupEnv(ctx, e.getenv, e.now, key, key, provider.OriginEnv)
}

// lookupEnv is shared by every provider that reads the environment.
// name is the variable to read; key is the logical secret name reported back.
func lookupEnv(ctx context.Context, getenv LookupFunc, now func() time.Time, name, key, origin string) (provider.ResolvedSecret, bool, error) {
	if err := ctx.Err(); err != nil {
		return provider.ResolvedSecret{}, false, &provider.TransportError{Provider: origin, Err: err}
	}

	value := getenv(name)
	if value == "" {
		return provider.ResolvedSecret{}, false, nil
	}

	return provider.ResolvedSecret{
		Key:       key,
		Value:     value,
		Origin:    origin,
		FetchedAt: now(),
	}, true, nil
}
