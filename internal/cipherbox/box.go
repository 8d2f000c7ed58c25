// Package cipherbox seals and opens cache entries with an authenticated cipher.
//
// Entries are sealed with ChaCha20-Poly1305 using a fresh random 96-bit nonce
// per call and no associated data. The 32-byte key is either supplied by the
// caller or derived from a seed string with HKDF-SHA256.
//
// Deriving from a seed is deterministic and only as strong as the seed. The
// built-in DefaultSeed is public knowledge: production deployments must supply
// a key (or at least a private seed).
package cipherbox

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/systmms/unisecret/internal/secure"
)

const (
	// KeySize is the required key length in bytes.
	KeySize = chacha20poly1305.KeySize

	// NonceSize is the nonce length in bytes (96 bits).
	NonceSize = chacha20poly1305.NonceSize

	// DefaultSeed is the well-known fallback seed. Override it.
	DefaultSeed = "unisecret-insecure-default-seed"
)

var (
	// ErrDecrypt is returned when a sealed value fails authentication.
	ErrDecrypt = errors.New("cipherbox: decryption failed")

	// ErrKeySize is returned for keys that are not KeySize bytes long.
	ErrKeySize = fmt.Errorf("cipherbox: key must be %d bytes", KeySize)
)

// hkdf parameters are fixed so a given seed always yields the same key.
var (
	hkdfSalt = []byte("unisecret/cipherbox/v1")
	hkdfInfo = []byte("cache-entry-key")
)

// Box encrypts and decrypts cache values. Safe for concurrent use.
type Box struct {
	key  *secure.SecureBuffer
	rand io.Reader
}

// Option configures a Box.
type Option func(*Box)

// WithRandom overrides the nonce source.
func WithRandom(r io.Reader) Option {
	return func(b *Box) {
		b.rand = r
	}
}

// New builds a Box from an explicit key. The key is copied into protected
// memory; the caller may wipe its own slice afterwards.
func New(key []byte, opts ...Option) (*Box, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}

	buf, err := secure.NewSecureBuffer(key)
	if err != nil {
		return nil, fmt.Errorf("cipherbox: protect key: %w", err)
	}

	b := &Box{key: buf, rand: rand.Reader}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// NewFromSeed derives the key from seed. An empty seed selects DefaultSeed.
func NewFromSeed(seed string, opts ...Option) (*Box, error) {
	key, err := DeriveKey(seed)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(key)
	return New(key, opts...)
}

// DeriveKey returns the HKDF-SHA256 key for seed.
func DeriveKey(seed string) ([]byte, error) {
	if seed == "" {
		seed = DefaultSeed
	}
	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, []byte(seed), hkdfSalt, hkdfInfo)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("cipherbox: derive key: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext and returns the nonce and ciphertext.
func (b *Box) Seal(plaintext []byte) (nonce, ciphertext []byte, err error) {
	nonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(b.rand, nonce); err != nil {
		return nil, nil, fmt.Errorf("cipherbox: nonce: %w", err)
	}

	err = b.key.Use(func(key []byte) error {
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return err
		}
		ciphertext = aead.Seal(nil, nonce, plaintext, nil)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("cipherbox: seal: %w", err)
	}
	return nonce, ciphertext, nil
}

// Open decrypts ciphertext. Any tampering with nonce or ciphertext yields
// ErrDecrypt.
func (b *Box) Open(nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrDecrypt
	}

	var plaintext []byte
	err := b.key.Use(func(key []byte) error {
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return err
		}
		plaintext, err = aead.Open(nil, nonce, ciphertext, nil)
		if err != nil {
			return ErrDecrypt
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDecrypt) {
			return nil, ErrDecrypt
		}
		return nil, fmt.Errorf("cipherbox: open: %w", err)
	}
	return plaintext, nil
}

// Close releases the protected key. The Box is unusable afterwards.
func (b *Box) Close() {
	b.key.Destroy()
}
