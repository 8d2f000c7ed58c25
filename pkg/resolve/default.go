package resolve

import (
	"os"
	"sync"

	"github.com/systmms/unisecret/internal/config"
	"github.com/systmms/unisecret/internal/logging"
	"github.com/systmms/unisecret/internal/providers"
)

// NewFromConfig builds the standard provider chain and a resolver from a
// loaded configuration. opts are applied after the configured values.
func NewFromConfig(def *config.Definition, opts ...Option) (*Resolver, error) {
	if def == nil {
		def = &config.Definition{}
	}

	ttl, err := def.TTL()
	if err != nil {
		return nil, err
	}
	key, err := def.KeyBytes()
	if err != nil {
		return nil, err
	}
	vault, err := providers.BuildVaultConfig(def.Vault)
	if err != nil {
		return nil, err
	}

	chain := providers.BuildRegistry(providers.RegistryOptions{
		CIMarker:       def.CIMarkerOrDefault(),
		PlatformPrefix: def.PlatformPrefixOrDefault(),
		Bindings:       def.Bindings,
		Vault:          vault,
	})

	base := []Option{
		WithDefaultTTL(ttl),
		WithProviderTimeout(def.ProviderTimeout()),
		WithSeed(def.Seed),
		WithSingleflight(def.Singleflight),
	}
	if key != nil {
		base = append(base, WithKey(key))
	}
	return New(chain, append(base, opts...)...)
}

var (
	defaultOnce     sync.Once
	defaultResolver *Resolver
	defaultErr      error
)

// Default returns the process-wide resolver, created on first use from
// unisecret.yaml (if present in the working directory) and UNISECRET_*
// environment overrides. Later calls return the same resolver or error.
func Default() (*Resolver, error) {
	defaultOnce.Do(func() {
		cfg := &config.Config{}
		if defaultErr = cfg.Load(); defaultErr != nil {
			return
		}
		logger := logging.New(os.Getenv("UNISECRET_DEBUG") != "", false)
		defaultResolver, defaultErr = NewFromConfig(cfg.Definition, WithLogger(logger))
	})
	return defaultResolver, defaultErr
}
