package providers

import (
	"context"
	"fmt"
	"sort"

	"github.com/systmms/unisecret/internal/config"
	"github.com/systmms/unisecret/pkg/provider"
)

// RegistryOptions configures the fixed provider chain.
type RegistryOptions struct {
	Getenv         LookupFunc // os.Getenv when nil
	CIMarker       string
	PlatformPrefix string
	Bindings       map[string]string
	Vault          *VaultConfig // nil disables the external-vault provider
}

// BuildRegistry returns the providers in precedence order:
// environment, CI context, platform bindings, external vault.
func BuildRegistry(opts RegistryOptions) []provider.Provider {
	return []provider.Provider{
		NewEnvProvider(opts.Getenv),
		NewCIProvider(opts.CIMarker, opts.Getenv),
		NewPlatformProvider(opts.Bindings, opts.PlatformPrefix, opts.Getenv),
		NewVaultProvider(opts.Vault),
	}
}

// BackendFactory creates a vault backend from configuration
type BackendFactory func(cfg config.VaultConfig) (VaultBackend, error)

var backendFactories = map[string]BackendFactory{
	"literal":            newLiteralBackendFactory,
	"keyring":            newKeyringBackendFactory,
	"aws-secretsmanager": newAWSSecretsManagerBackendFactory,
}

// SupportedBackends returns the vault backend types in sorted order
func SupportedBackends() []string {
	types := make([]string, 0, len(backendFactories))
	for t := range backendFactories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// BuildVaultBackend creates the backend selected by cfg.Type
func BuildVaultBackend(cfg config.VaultConfig) (VaultBackend, error) {
	factory, exists := backendFactories[cfg.Type]
	if !exists {
		return nil, fmt.Errorf("unknown vault backend type: %s", cfg.Type)
	}
	return factory(cfg)
}

// BuildVaultConfig turns the optional vault section into a provider config.
// A nil section yields nil, which leaves the vault provider inactive.
func BuildVaultConfig(cfg *config.VaultConfig) (*VaultConfig, error) {
	if cfg == nil {
		return nil, nil
	}
	backend, err := BuildVaultBackend(*cfg)
	if err != nil {
		return nil, err
	}
	return &VaultConfig{Name: cfg.Name, Backend: backend}, nil
}

func newLiteralBackendFactory(cfg config.VaultConfig) (VaultBackend, error) {
	return NewLiteralBackend(cfg.Values), nil
}

func newKeyringBackendFactory(cfg config.VaultConfig) (VaultBackend, error) {
	return NewKeyringBackend(cfg.Service), nil
}

func newAWSSecretsManagerBackendFactory(cfg config.VaultConfig) (VaultBackend, error) {
	backend, err := NewAWSSecretsManagerBackend(context.Background(), AWSSecretsManagerOptions{
		Region:   cfg.Region,
		Endpoint: cfg.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	return backend, nil
}
