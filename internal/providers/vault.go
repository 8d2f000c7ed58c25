package providers

import (
	"context"
	"time"

	"github.com/systmms/unisecret/pkg/provider"
)

// VaultBackend is the pluggable connector behind the external-vault provider.
// Fetch reports a miss as found=false with a nil error.
type VaultBackend interface {
	Type() string
	Fetch(ctx context.Context, key string) (value string, found bool, err error)
}

// VaultConfig enables the external-vault provider.
type VaultConfig struct {
	// Name is the origin tag for hits. Defaults to "vault:<backend type>".
	Name    string
	Backend VaultBackend
}

// VaultProvider queries an external secret store.
// Constructed with a nil config (or nil backend) it is inactive and every
// lookup is a miss.
type VaultProvider struct {
	name    string
	backend VaultBackend
	now     func() time.Time
}

// NewVaultProvider creates an external-vault provider.
func NewVaultProvider(cfg *VaultConfig) *VaultProvider {
	p := &VaultProvider{name: "vault", now: time.Now}
	if cfg == nil || cfg.Backend == nil {
		return p
	}

	p.backend = cfg.Backend
	p.name = cfg.Name
	if p.name == "" {
		p.name = "vault:" + cfg.Backend.Type()
	}
	return p
}

// Name returns the provider name
func (v *VaultProvider) Name() string {
	return v.name
}

// Active reports whether a backend is configured.
func (v *VaultProvider) Active() bool {
	return v.backend != nil
}

// Get fetches key from the backend
func (v *VaultProvider) Get(ctx context.Context, key string) (provider.ResolvedSecret, bool, error) {
	if v.backend == nil {
		return provider.ResolvedSecret{}, false, nil
	}
	if err := ctx.Err(); err != nil {
		return provider.ResolvedSecret{}, false, &provider.TransportError{Provider: v.name, Err: err}
	}

	value, found, err := v.backend.Fetch(ctx, key)
	if err != nil {
		return provider.ResolvedSecret{}, false, &provider.TransportError{Provider: v.name, Err: err}
	}
	if !found {
		return provider.ResolvedSecret{}, false, nil
	}

	return provider.ResolvedSecret{
		Key:       key,
		Value:     value,
		Origin:    v.name,
		FetchedAt: v.now(),
	}, true, nil
}
