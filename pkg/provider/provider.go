package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/systmms/unisecret/internal/logging"
)

// Origin tags attached to resolved secrets.
const (
	OriginEnv         = "env"
	OriginCI          = "ci"
	OriginBindings    = "bindings"
	OriginPlatformEnv = "platform-env"
	OriginCache       = "cache"
)

// Provider answers "does this secret exist, and what is it" for a single source.
//
// Implementations are consulted by the resolver in a fixed precedence order.
// A miss is reported as found=false with a nil error; an error is returned only
// when the source itself could not be reached (transport failure, timeout,
// permission problem). The resolver treats any error as "this provider failed,
// try the next one".
//
// Implementations must be safe for concurrent use: the resolver never holds a
// lock across a provider call, so Get may run concurrently for different keys.
//
// Example:
//
//	secret, found, err := p.Get(ctx, "DB_PASS")
//	if err != nil {
//	    // transport failure, skip this provider
//	}
//	if !found {
//	    // try the next provider
//	}
type Provider interface {
	// Name returns a stable, lowercase identifier used in logs and stats.
	Name() string

	// Get looks up key. It must honour ctx cancellation and deadlines.
	Get(ctx context.Context, key string) (ResolvedSecret, bool, error)
}

// ResolvedSecret is the result of a successful resolution, either from a
// provider or from the cache.
//
// Value holds the plaintext. It is never included in String or GoString output
// so that accidental %v / %#v formatting cannot leak it.
type ResolvedSecret struct {
	// Key is the logical secret name that was resolved.
	Key string

	// Value is the secret payload. Never log it.
	Value string

	// Origin names where the value came from (provider origin tag or "cache").
	Origin string

	// FetchedAt is when the value was obtained from its provider.
	FetchedAt time.Time

	// TTL is how long the value stays fresh. Zero means unset, in which case
	// the secret never expires on its own.
	TTL time.Duration
}

// IsExpired reports whether the secret has outlived its TTL.
func (s ResolvedSecret) IsExpired() bool {
	return s.ExpiredAt(time.Now())
}

// ExpiredAt reports whether the secret is expired as of now.
// Secrets without a TTL never expire.
func (s ResolvedSecret) ExpiredAt(now time.Time) bool {
	if s.TTL <= 0 {
		return false
	}
	return now.Sub(s.FetchedAt) > s.TTL
}

// String implements fmt.Stringer without exposing the value.
func (s ResolvedSecret) String() string {
	return fmt.Sprintf("ResolvedSecret{origin=%s, fetched_at=%s, ttl=%s, value=%s}",
		s.Origin, s.FetchedAt.Format(time.RFC3339), s.TTL, logging.Secret(s.Value))
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s ResolvedSecret) GoString() string {
	return s.String()
}

// TransportError indicates that a provider could not be reached or did not
// answer in time. It is internal to a single provider call: the resolver logs
// it and falls through to the next provider.
//
// Example:
//
//	if err != nil {
//	    return provider.ResolvedSecret{}, false, &provider.TransportError{
//	        Provider: p.Name(),
//	        Err:      err,
//	    }
//	}
type TransportError struct {
	// Provider is the name of the provider that failed.
	Provider string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Err == nil {
		return "transport failure in " + e.Provider
	}
	return "transport failure in " + e.Provider + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}
