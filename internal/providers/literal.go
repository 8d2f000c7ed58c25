package providers

import (
	"context"
	"sync"
)

// LiteralBackend serves vault lookups from a static map.
// Useful for local development and tests.
type LiteralBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewLiteralBackend creates a literal backend. values is copied.
func NewLiteralBackend(values map[string]string) *LiteralBackend {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &LiteralBackend{values: copied}
}

// Type returns the backend type
func (l *LiteralBackend) Type() string {
	return "literal"
}

// Fetch returns the literal value for key
func (l *LiteralBackend) Fetch(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	value, ok := l.values[key]
	return value, ok, nil
}

// SetValue sets a literal value (useful for testing)
func (l *LiteralBackend) SetValue(key, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.values[key] = value
}
