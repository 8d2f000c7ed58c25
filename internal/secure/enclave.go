package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when a destroyed buffer is used.
var ErrDestroyed = errors.New("secure buffer destroyed")

// SecureBuffer holds sensitive bytes encrypted at rest in memory.
// It wraps memguard.Enclave; plaintext only exists inside a LockedBuffer for
// the duration of an Open or Use call.
type SecureBuffer struct {
	enclave   *memguard.Enclave
	mu        sync.RWMutex
	destroyed bool
}

// NewSecureBuffer seals a copy of data into an enclave.
// The caller's slice is left untouched; callers should wipe it themselves
// (memguard.WipeBytes) once it is no longer needed.
func NewSecureBuffer(data []byte) (*SecureBuffer, error) {
	if len(data) == 0 {
		return nil, errors.New("secure buffer requires non-empty data")
	}

	// memguard wipes the slice it is given, so hand it a private copy.
	scratch := make([]byte, len(data))
	copy(scratch, data)

	return &SecureBuffer{
		enclave: memguard.NewEnclave(scratch),
	}, nil
}

// Open decrypts the protected data into a locked buffer.
// The caller MUST call Destroy() on the returned LockedBuffer.
func (s *SecureBuffer) Open() (*memguard.LockedBuffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return nil, ErrDestroyed
	}
	return s.enclave.Open()
}

// Use opens the buffer, passes the plaintext to fn and wipes it afterwards.
// fn must not retain the slice.
func (s *SecureBuffer) Use(fn func(plaintext []byte) error) error {
	locked, err := s.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()
	return fn(locked.Bytes())
}

// Destroy prevents further use of the buffer. Idempotent.
// For complete cleanup of all memguard data at exit, call memguard.Purge().
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}
	s.enclave = nil
	s.destroyed = true
}

// Destroyed reports whether Destroy has been called.
func (s *SecureBuffer) Destroyed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyed
}
