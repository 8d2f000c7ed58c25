package providers

import (
	"context"
	"os"
	"time"

	"github.com/systmms/unisecret/pkg/provider"
)

// DefaultCIMarker is the variable whose presence signals a CI run.
const DefaultCIMarker = "CI"

// CIProvider reads secrets exposed by a CI runner as environment variables.
//
// It is only active when the marker variable is non-empty. While inactive it
// reports a miss for every key without reading anything else.
type CIProvider struct {
	marker string
	getenv LookupFunc
	now    func() time.Time
}

// NewCIProvider creates a CI-context provider. An empty marker selects
// DefaultCIMarker; a nil getenv uses os.Getenv.
func NewCIProvider(marker string, getenv LookupFunc) *CIProvider {
	if marker == "" {
		marker = DefaultCIMarker
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	return &CIProvider{marker: marker, getenv: getenv, now: time.Now}
}

// Name returns the provider name
func (c *CIProvider) Name() string {
	return provider.OriginCI
}

// Marker returns the CI marker variable name.
func (c *CIProvider) Marker() string {
	return c.marker
}

// Active reports whether the CI marker is present.
func (c *CIProvider) Active() bool {
	return c.getenv(c.marker) != ""
}

// Get looks up key when running under CI
func (c *CIProvider) Get(ctx context.Context, key string) (provider.ResolvedSecret, bool, error) {
	if !c.Active() {
		return provider.ResolvedSecret{}, false, nil
	}
	return lookupEnv(ctx, c.getenv, c.now, key, key, provider.OriginCI)
}
