package cache

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/unisecret/internal/cipherbox"
	"github.com/systmms/unisecret/pkg/provider"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *fakeClock) {
	t.Helper()
	box, err := cipherbox.NewFromSeed("cache-test-seed")
	require.NoError(t, err)
	t.Cleanup(box.Close)

	clock := newFakeClock()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(box, opts...), clock
}

func secret(key, value string, ttl time.Duration) provider.ResolvedSecret {
	return provider.ResolvedSecret{
		Key:       key,
		Value:     value,
		Origin:    provider.OriginEnv,
		FetchedAt: time.Now(),
		TTL:       ttl,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store, clock := newTestStore(t)

	values := []string{"secret123", "", "with\nnewlines", "ünï🔑"}
	for i, v := range values {
		key := fmt.Sprintf("KEY_%d", i)
		require.NoError(t, store.Put(secret(key, v, time.Minute)))

		got, ok := store.Get(key)
		require.True(t, ok)
		assert.Equal(t, v, got.Value)
		assert.Equal(t, provider.OriginCache, got.Origin)
		assert.Equal(t, key, got.Key)
		assert.Equal(t, time.Minute, got.TTL)
		assert.Equal(t, clock.Now(), got.FetchedAt)
	}
}

func TestStore_GetMiss(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	_, ok := store.Get("ABSENT")
	assert.False(t, ok)
}

func TestStore_PutRequiresTTL(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)

	assert.ErrorIs(t, store.Put(secret("K", "v", 0)), ErrNoTTL)
	assert.ErrorIs(t, store.Put(secret("K", "v", -time.Second)), ErrNoTTL)
	assert.Equal(t, 0, store.Len())
}

func TestStore_ExpiryOnRead(t *testing.T) {
	t.Parallel()

	store, clock := newTestStore(t)

	require.NoError(t, store.Put(secret("SHORT", "v1", time.Second)))
	require.NoError(t, store.Put(secret("LONG", "v2", time.Hour)))
	require.Equal(t, 2, store.Len())

	clock.Advance(time.Second)
	_, ok := store.Get("SHORT")
	assert.True(t, ok, "entry at exactly ttl is still fresh")

	clock.Advance(500 * time.Millisecond)
	_, ok = store.Get("SHORT")
	assert.False(t, ok, "entry past ttl is a miss")
	assert.Equal(t, 1, store.Len(), "expired entry is removed on read")

	got, ok := store.Get("LONG")
	require.True(t, ok)
	assert.Equal(t, "v2", got.Value)
}

func TestStore_NeverHoldsPlaintext(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	value := "plaintext-should-not-be-stored"
	require.NoError(t, store.Put(secret("K", value, time.Minute)))

	e, ok := rawEntry(store, "K")
	require.True(t, ok)
	assert.Len(t, e.Nonce, cipherbox.NonceSize)
	assert.False(t, bytes.Contains(e.Ciphertext, []byte(value)))
	assert.Equal(t, provider.OriginEnv, e.Origin)
}

func TestStore_TamperedEntryIsEvicted(t *testing.T) {
	t.Parallel()

	tamper := map[string]func(e *Entry){
		"ciphertext first bit": func(e *Entry) { e.Ciphertext[0] ^= 0x01 },
		"ciphertext last bit":  func(e *Entry) { e.Ciphertext[len(e.Ciphertext)-1] ^= 0x80 },
		"nonce bit":            func(e *Entry) { e.Nonce[5] ^= 0x10 },
		"truncated nonce":      func(e *Entry) { e.Nonce = e.Nonce[:4] },
		"empty ciphertext":     func(e *Entry) { e.Ciphertext = nil },
	}

	for name, mutate := range tamper {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store, _ := newTestStore(t)
			require.NoError(t, store.Put(secret("K", "original", time.Minute)))

			e, ok := rawEntry(store, "K")
			require.True(t, ok)
			e.Nonce = append([]byte(nil), e.Nonce...)
			e.Ciphertext = append([]byte(nil), e.Ciphertext...)
			mutate(&e)
			replaceEntry(store, "K", e)

			assert.NotPanics(t, func() {
				_, ok = store.Get("K")
			})
			assert.False(t, ok)
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestStore_InvalidateAndClear(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	for _, k := range []string{"A_KEY", "B_KEY", "C_KEY"} {
		require.NoError(t, store.Put(secret(k, "v", time.Minute)))
	}

	store.Invalidate("B_KEY")
	store.Invalidate("NOT_THERE")
	assert.Equal(t, []string{"A_KEY", "C_KEY"}, store.Keys())

	store.Clear()
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.Keys())
}

func TestStore_Purge(t *testing.T) {
	t.Parallel()

	store, clock := newTestStore(t)
	require.NoError(t, store.Put(secret("A", "v", time.Second)))
	require.NoError(t, store.Put(secret("B", "v", 2*time.Second)))
	require.NoError(t, store.Put(secret("C", "v", time.Hour)))

	clock.Advance(3 * time.Second)
	assert.Equal(t, 2, store.Purge())
	assert.Equal(t, []string{"C"}, store.Keys())
}

func TestStore_CloseRejectsLaterPuts(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	require.NoError(t, store.Put(secret("BEFORE", "v", time.Minute)))

	store.Close()
	assert.Equal(t, 0, store.Len())

	assert.ErrorIs(t, store.Put(secret("AFTER", "v", time.Minute)), ErrClosed)
	assert.Equal(t, 0, store.Len())
	_, ok := store.Get("AFTER")
	assert.False(t, ok)
}

func TestStore_PutOverwrites(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	require.NoError(t, store.Put(secret("K", "old", time.Minute)))
	require.NoError(t, store.Put(secret("K", "new", time.Minute)))

	got, ok := store.Get("K")
	require.True(t, ok)
	assert.Equal(t, "new", got.Value)
	assert.Equal(t, 1, store.Len())
}

type countingLocker struct {
	sync.Mutex
	locks int
}

func (l *countingLocker) Lock() {
	l.Mutex.Lock()
	l.locks++
}

func TestStore_SharedLocker(t *testing.T) {
	t.Parallel()

	lock := &countingLocker{}
	store, _ := newTestStore(t, WithLocker(lock))

	require.NoError(t, store.Put(secret("K", "v", time.Minute)))
	_, _ = store.Get("K")
	_ = store.Len()

	lock.Mutex.Lock()
	locks := lock.locks
	lock.Mutex.Unlock()
	assert.Equal(t, 3, locks)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping concurrency test in short mode")
	}
	t.Parallel()

	store, _ := newTestStore(t)

	const workers = 32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("KEY_%d", id%4)
			for j := 0; j < 50; j++ {
				_ = store.Put(secret(key, "value", time.Minute))
				if got, ok := store.Get(key); ok {
					assert.Equal(t, "value", got.Value)
				}
				if j%10 == 0 {
					store.Invalidate(key)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, store.Len(), 4)
}
