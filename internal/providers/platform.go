package providers

import (
	"context"
	"os"
	"time"

	"github.com/systmms/unisecret/pkg/provider"
)

// DefaultPlatformPrefix namespaces platform environment variables.
const DefaultPlatformPrefix = "PLATFORM_"

// PlatformProvider answers from runtime bindings injected by the hosting
// platform, then from namespaced environment variables.
//
// A key found in the bindings map is tagged "bindings". Otherwise the
// variable <prefix><key> is read and a hit is tagged "platform-env".
type PlatformProvider struct {
	bindings map[string]string
	prefix   string
	getenv   LookupFunc
	now      func() time.Time
}

// NewPlatformProvider creates a platform-bindings provider. bindings is copied.
// An empty prefix selects DefaultPlatformPrefix; a nil getenv uses os.Getenv.
func NewPlatformProvider(bindings map[string]string, prefix string, getenv LookupFunc) *PlatformProvider {
	if prefix == "" {
		prefix = DefaultPlatformPrefix
	}
	if getenv == nil {
		getenv = os.Getenv
	}

	copied := make(map[string]string, len(bindings))
	for k, v := range bindings {
		copied[k] = v
	}

	return &PlatformProvider{
		bindings: copied,
		prefix:   prefix,
		getenv:   getenv,
		now:      time.Now,
	}
}

// Name returns the provider name
func (p *PlatformProvider) Name() string {
	return "platform"
}

// Prefix returns the environment namespace prefix.
func (p *PlatformProvider) Prefix() string {
	return p.prefix
}

// Get checks the bindings map, then the namespaced environment variable
func (p *PlatformProvider) Get(ctx context.Context, key string) (provider.ResolvedSecret, bool, error) {
	if err := ctx.Err(); err != nil {
		return provider.ResolvedSecret{}, false, &provider.TransportError{Provider: p.Name(), Err: err}
	}

	if value, ok := p.bindings[key]; ok && value != "" {
		return provider.ResolvedSecret{
			Key:       key,
			Value:     value,
			Origin:    provider.OriginBindings,
			FetchedAt: p.now(),
		}, true, nil
	}

	return lookupEnv(ctx, p.getenv, p.now, p.prefix+key, key, provider.OriginPlatformEnv)
}
