package fakes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/systmms/unisecret/pkg/provider"
)

// FakeProvider is a manual fake implementation of provider.Provider interface.
//
// It stores secrets in memory and can be configured to fail for specific keys,
// fail for every key, or respond slowly. Hits are tagged with the provider
// name as origin unless WithOrigin says otherwise.
//
// Example usage:
//
//	fake := fakes.NewFakeProvider("env").
//	    WithSecret("DB_PASS", "secret123").
//	    WithError("API_KEY", errors.New("connection failed"))
type FakeProvider struct {
	name   string
	origin string

	secrets map[string]string
	failOn  map[string]error
	failAll error
	delay   time.Duration

	calls map[string]int
	total int

	// gate, when set, blocks every Get until it is closed
	gate chan struct{}

	mu sync.RWMutex
}

// NewFakeProvider creates a new FakeProvider with the given name.
func NewFakeProvider(name string) *FakeProvider {
	return &FakeProvider{
		name:    name,
		origin:  name,
		secrets: make(map[string]string),
		failOn:  make(map[string]error),
		calls:   make(map[string]int),
	}
}

// WithSecret adds a secret to the fake provider.
func (f *FakeProvider) WithSecret(key, value string) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.secrets[key] = value
	return f
}

// WithOrigin sets the origin tag attached to hits.
func (f *FakeProvider) WithOrigin(origin string) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.origin = origin
	return f
}

// WithError configures the fake to return a transport error for key.
func (f *FakeProvider) WithError(key string, err error) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failOn[key] = err
	return f
}

// WithFailure makes every Get return err.
func (f *FakeProvider) WithFailure(err error) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failAll = err
	return f
}

// WithDelay adds artificial latency to Get calls. The delay is cut short
// when the context is done.
func (f *FakeProvider) WithDelay(d time.Duration) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.delay = d
	return f
}

// WithGate makes every Get wait for gate to be closed (or the context to end).
// Useful for lining up concurrent callers.
func (f *FakeProvider) WithGate(gate chan struct{}) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gate = gate
	return f
}

// Name returns the provider's unique identifier.
func (f *FakeProvider) Name() string {
	return f.name
}

// Get returns the configured secret, a configured error, or a miss.
func (f *FakeProvider) Get(ctx context.Context, key string) (provider.ResolvedSecret, bool, error) {
	f.mu.Lock()
	f.calls[key]++
	f.total++
	delay, gate := f.delay, f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return provider.ResolvedSecret{}, false, f.transport(ctx.Err())
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return provider.ResolvedSecret{}, false, f.transport(ctx.Err())
		}
	}
	if err := ctx.Err(); err != nil {
		return provider.ResolvedSecret{}, false, f.transport(err)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.failAll != nil {
		return provider.ResolvedSecret{}, false, f.transport(f.failAll)
	}
	if err, ok := f.failOn[key]; ok {
		return provider.ResolvedSecret{}, false, f.transport(err)
	}

	value, ok := f.secrets[key]
	if !ok {
		return provider.ResolvedSecret{}, false, nil
	}

	return provider.ResolvedSecret{
		Key:       key,
		Value:     value,
		Origin:    f.origin,
		FetchedAt: time.Now(),
	}, true, nil
}

func (f *FakeProvider) transport(err error) error {
	return &provider.TransportError{Provider: f.name, Err: err}
}

// CallCount returns the number of Get calls for key.
func (f *FakeProvider) CallCount(key string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.calls[key]
}

// TotalCalls returns the number of Get calls across all keys.
func (f *FakeProvider) TotalCalls() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.total
}

// ResetCallCount resets all call counters to zero.
func (f *FakeProvider) ResetCallCount() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = make(map[string]int)
	f.total = 0
}

// String returns a string representation of the fake provider.
func (f *FakeProvider) String() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return fmt.Sprintf("FakeProvider{name=%s, secrets=%d}", f.name, len(f.secrets))
}
