package resolve

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/systmms/unisecret/internal/cache"
	"github.com/systmms/unisecret/internal/cipherbox"
	uerrors "github.com/systmms/unisecret/internal/errors"
	"github.com/systmms/unisecret/internal/logging"
	"github.com/systmms/unisecret/internal/metrics"
	"github.com/systmms/unisecret/pkg/provider"
)

// Defaults used when the corresponding option is not given.
const (
	DefaultTTL             = 5 * time.Minute
	DefaultProviderTimeout = 5 * time.Second
)

// Resolver resolves secret names through an encrypted cache and an ordered
// provider chain. Safe for concurrent use.
type Resolver struct {
	providers       []provider.Provider
	defaultTTL      time.Duration
	providerTimeout time.Duration
	now             func() time.Time
	logger          *logging.Logger

	// mu guards the cache map and the metrics counters. It is never held
	// across a provider call.
	mu      sync.Mutex
	box     *cipherbox.Box
	cache   *cache.Store
	metrics *metrics.Collector

	group  *singleflight.Group
	closed atomic.Bool
}

type options struct {
	defaultTTL      time.Duration
	providerTimeout time.Duration
	key             []byte
	seed            string
	logger          *logging.Logger
	registerer      prometheus.Registerer
	now             func() time.Time
	singleflight    bool
}

// Option configures a Resolver.
type Option func(*options)

// WithDefaultTTL sets the ttl given to provider results that have no override.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.defaultTTL = ttl
	}
}

// WithProviderTimeout bounds each provider call.
func WithProviderTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.providerTimeout = timeout
	}
}

// WithKey sets the 32-byte cache encryption key. It takes precedence over
// WithSeed. The key is copied; the caller may wipe its slice afterwards.
func WithKey(key []byte) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithSeed derives the cache key from seed. Weak unless the seed is private.
func WithSeed(seed string) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetricsRegisterer mirrors resolver metrics into Prometheus.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithClock overrides the time source for cache timestamps and latency.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithSingleflight collapses concurrent cache misses for the same key and ttl
// into a single provider walk. Off by default.
func WithSingleflight(enabled bool) Option {
	return func(o *options) {
		o.singleflight = enabled
	}
}

// New creates a resolver over providers, consulted in slice order.
// The slice is copied.
func New(providers []provider.Provider, opts ...Option) (*Resolver, error) {
	o := options{
		defaultTTL:      DefaultTTL,
		providerTimeout: DefaultProviderTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.defaultTTL <= 0 {
		return nil, fmt.Errorf("resolve: default ttl must be positive, got %s", o.defaultTTL)
	}
	if o.providerTimeout <= 0 {
		return nil, fmt.Errorf("resolve: provider timeout must be positive, got %s", o.providerTimeout)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}

	box, err := newBox(o)
	if err != nil {
		return nil, err
	}

	r := &Resolver{
		providers:       append([]provider.Provider(nil), providers...),
		defaultTTL:      o.defaultTTL,
		providerTimeout: o.providerTimeout,
		now:             o.now,
		logger:          o.logger,
		box:             box,
	}
	r.cache = cache.New(box, cache.WithLocker(&r.mu), cache.WithClock(o.now))
	r.metrics = metrics.New(metrics.WithLocker(&r.mu), metrics.WithRegisterer(o.registerer))
	if o.singleflight {
		r.group = &singleflight.Group{}
	}

	r.logger.Debug("Resolver ready with %d providers: %s", len(r.providers), strings.Join(r.ProviderNames(), ", "))
	return r, nil
}

func newBox(o options) (*cipherbox.Box, error) {
	if o.key != nil {
		box, err := cipherbox.New(o.key)
		if err != nil {
			return nil, fmt.Errorf("resolve: %w", err)
		}
		return box, nil
	}

	if o.seed == "" || o.seed == cipherbox.DefaultSeed {
		o.logger.Warn("Cache key derived from the built-in default seed; set an explicit key or a private seed in production")
	}
	box, err := cipherbox.NewFromSeed(o.seed)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	return box, nil
}

type resolveOptions struct {
	ttl time.Duration
}

// ResolveOption adjusts a single Resolve call.
type ResolveOption func(*resolveOptions)

// WithTTL overrides the cache ttl for this resolution. Non-positive values
// are ignored.
func WithTTL(ttl time.Duration) ResolveOption {
	return func(o *resolveOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// Resolve returns the current value of key.
func (r *Resolver) Resolve(ctx context.Context, key string, opts ...ResolveOption) (string, error) {
	secret, err := r.ResolveSecret(ctx, key, opts...)
	if err != nil {
		return "", err
	}
	return secret.Value, nil
}

// ResolveSecret returns key's value together with its origin and timestamps.
//
// A cancelled ctx makes every provider fail, so the result is a
// *SecretNotFoundError unless the cache already holds key.
func (r *Resolver) ResolveSecret(ctx context.Context, key string, opts ...ResolveOption) (provider.ResolvedSecret, error) {
	if key == "" {
		return provider.ResolvedSecret{}, ErrInvalidKey
	}
	if r.closed.Load() {
		return provider.ResolvedSecret{}, ErrClosed
	}

	ro := resolveOptions{ttl: r.defaultTTL}
	for _, opt := range opts {
		opt(&ro)
	}

	log := r.logger.With(logging.F("key", logging.Key(key)))
	start := r.now()

	if secret, ok := r.cache.Get(key); ok {
		r.metrics.RecordCacheHit()
		r.metrics.RecordResolution(provider.OriginCache, 0, r.now().Sub(start))
		log.Debug("Cache hit")
		return secret, nil
	}
	r.metrics.RecordCacheMiss()
	log.Debug("Cache miss")

	var (
		res fetchResult
		err error
	)
	if r.group != nil {
		var v interface{}
		v, err, _ = r.group.Do(key+"\x00"+ro.ttl.String(), func() (interface{}, error) {
			return r.fetch(ctx, key, ro.ttl, log)
		})
		res, _ = v.(fetchResult)
	} else {
		res, err = r.fetch(ctx, key, ro.ttl, log)
	}

	if err != nil {
		r.metrics.RecordNotFound()
		log.Debug("Secret not found in any provider")
		return provider.ResolvedSecret{}, err
	}

	r.metrics.RecordResolution(res.secret.Origin, res.depth, r.now().Sub(start))
	log.Debug("Resolved from %s (depth %d)", res.secret.Origin, res.depth)
	return res.secret, nil
}

type fetchResult struct {
	secret provider.ResolvedSecret
	depth  int
}

// fetch walks the providers in order and caches the first hit.
func (r *Resolver) fetch(ctx context.Context, key string, ttl time.Duration, log *logging.Logger) (fetchResult, error) {
	for i, p := range r.providers {
		name := p.Name()

		pctx, cancel := withProviderTimeout(ctx, r.providerTimeout)
		secret, found, err := p.Get(pctx, key)
		cancel()

		if err != nil {
			r.metrics.RecordProviderError(name)
			r.logProviderError(log, name, key, err)
			continue
		}
		if !found {
			continue
		}

		secret.Key = key
		secret.TTL = ttl
		if secret.FetchedAt.IsZero() {
			secret.FetchedAt = r.now()
		}

		if err := r.cache.Put(secret); err != nil && !r.closed.Load() {
			log.Warn("Failed to cache secret: %v", err)
		}
		return fetchResult{secret: secret, depth: i + 1}, nil
	}

	return fetchResult{}, &SecretNotFoundError{Key: key}
}

// logProviderError writes one warn line per failure. The operator hint goes
// to a separate debug line.
func (r *Resolver) logProviderError(log *logging.Logger, name, key string, err error) {
	described := describeProviderError(err, name, r.providerTimeout)
	plog := log.With(logging.F("provider", name), logging.F("retryable", uerrors.IsRetryable(err)))
	plog.Warn("Provider failed, trying next: %s", logging.RedactKeys(described.Summary(), key))
	if described.Suggestion != "" {
		plog.Debug("Try: %s", described.Suggestion)
	}
}

// Exists reports whether key resolves. It never returns an error.
func (r *Resolver) Exists(ctx context.Context, key string) bool {
	_, err := r.ResolveSecret(ctx, key)
	return err == nil
}

// Invalidate drops key from the cache.
func (r *Resolver) Invalidate(key string) {
	r.cache.Invalidate(key)
	r.logger.Debug("Invalidated %s", logging.Key(key))
}

// InvalidateAll clears the cache.
func (r *Resolver) InvalidateAll() {
	r.cache.Clear()
	r.logger.Debug("Invalidated all cached secrets")
}

// Purge removes expired cache entries and returns how many were dropped.
func (r *Resolver) Purge() int {
	return r.cache.Purge()
}

// ProviderNames returns provider names in precedence order.
func (r *Resolver) ProviderNames() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// Providers returns a copy of the provider chain.
func (r *Resolver) Providers() []provider.Provider {
	return append([]provider.Provider(nil), r.providers...)
}

// Stats is the introspection payload. It never holds secret values; cached
// key names are redacted.
type Stats struct {
	Size       int              `json:"size"`
	Encrypted  bool             `json:"encrypted"`
	TTLSeconds int64            `json:"ttl_seconds"`
	CachedKeys []string         `json:"cached_keys"`
	Metrics    metrics.Snapshot `json:"metrics"`
	Providers  []string         `json:"providers"`
}

// GetCacheStats returns cache and metrics counters. It does not evict.
func (r *Resolver) GetCacheStats() Stats {
	keys := r.cache.Keys()
	for i, k := range keys {
		keys[i] = logging.RedactKey(k)
	}

	return Stats{
		Size:       len(keys),
		Encrypted:  true,
		TTLSeconds: int64(r.defaultTTL / time.Second),
		CachedKeys: keys,
		Metrics:    r.metrics.Snapshot(),
		Providers:  r.ProviderNames(),
	}
}

// Close clears the cache and destroys the encryption key. Further calls to
// Resolve return ErrClosed. Close is idempotent.
func (r *Resolver) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}
	r.cache.Close()
	r.box.Close()
}
