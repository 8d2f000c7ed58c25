// Package cache stores resolved secrets encrypted, with expiry on read.
package cache

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/awnumar/memguard"

	"github.com/systmms/unisecret/pkg/provider"
)

var (
	// ErrNoTTL is returned by Put for secrets without a positive TTL.
	ErrNoTTL = errors.New("cache: secret has no ttl")

	// ErrClosed is returned by Put after Close.
	ErrClosed = errors.New("cache: store closed")
)

// Sealer is the cipher the store encrypts entries with.
type Sealer interface {
	Seal(plaintext []byte) (nonce, ciphertext []byte, err error)
	Open(nonce, ciphertext []byte) ([]byte, error)
}

// Entry is a sealed cache record. The store never holds plaintext.
type Entry struct {
	Nonce      []byte
	Ciphertext []byte
	Origin     string
	StoredAt   time.Time
	TTL        time.Duration
}

func (e Entry) expired(now time.Time) bool {
	return now.Sub(e.StoredAt) > e.TTL
}

// Store is a concurrency-safe map of key to sealed entry.
type Store struct {
	sealer  Sealer
	mu      sync.Locker
	now     func() time.Time
	entries map[string]Entry
	closed  bool
}

// Option configures a Store.
type Option func(*Store)

// WithLocker makes the store guard its map with l, letting an owner share one
// lock across several structures. l must not be held when calling the store.
func WithLocker(l sync.Locker) Option {
	return func(s *Store) {
		s.mu = l
	}
}

// WithClock overrides the time source used for timestamps and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty store sealing entries with sealer.
func New(sealer Sealer, opts ...Option) *Store {
	s := &Store{
		sealer:  sealer,
		mu:      &sync.Mutex{},
		now:     time.Now,
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached secret for key with origin "cache".
// Expired and undecryptable entries are evicted and reported as a miss.
func (s *Store) Get(key string) (provider.ResolvedSecret, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return provider.ResolvedSecret{}, false
	}

	if entry.expired(s.now()) {
		delete(s.entries, key)
		return provider.ResolvedSecret{}, false
	}

	plaintext, err := s.sealer.Open(entry.Nonce, entry.Ciphertext)
	if err != nil {
		delete(s.entries, key)
		return provider.ResolvedSecret{}, false
	}
	value := string(plaintext)
	memguard.WipeBytes(plaintext)

	return provider.ResolvedSecret{
		Key:       key,
		Value:     value,
		Origin:    provider.OriginCache,
		FetchedAt: entry.StoredAt,
		TTL:       entry.TTL,
	}, true
}

// Put seals secret.Value and stores it under secret.Key.
func (s *Store) Put(secret provider.ResolvedSecret) error {
	if secret.TTL <= 0 {
		return ErrNoTTL
	}

	plaintext := []byte(secret.Value)
	nonce, ciphertext, err := s.sealer.Seal(plaintext)
	memguard.WipeBytes(plaintext)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.entries[secret.Key] = Entry{
		Nonce:      nonce,
		Ciphertext: ciphertext,
		Origin:     secret.Origin,
		StoredAt:   s.now(),
		TTL:        secret.TTL,
	}
	return nil
}

// Invalidate removes the entry for key, if any.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
}

// Close removes every entry and makes later Puts fail with ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	s.closed = true
}

// Purge evicts all expired entries and returns how many were removed.
func (s *Store) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if entry.expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
