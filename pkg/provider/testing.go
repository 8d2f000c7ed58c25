package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

// ContractTest defines a standard test suite that all providers must pass
type ContractTest struct {
	// CreateProvider creates a new instance of the provider to test
	CreateProvider func(t *testing.T) Provider

	// SetupTestSecret makes a secret visible to the provider.
	// Returns the key to use for retrieval and the value expected back.
	SetupTestSecret func(t *testing.T, p Provider) (key, value string)

	// ExpectedOrigin is the origin tag the provider should attach. Empty skips the check.
	ExpectedOrigin string
}

// RunContractTests runs the standard provider contract test suite
func RunContractTests(t *testing.T, contract ContractTest) {
	t.Run("Contract", func(t *testing.T) {
		t.Run("Name", func(t *testing.T) {
			testProviderName(t, contract)
		})

		t.Run("Get", func(t *testing.T) {
			testProviderGet(t, contract)
		})

		t.Run("GetMiss", func(t *testing.T) {
			testProviderGetMiss(t, contract)
		})

		t.Run("ContextCancellation", func(t *testing.T) {
			testProviderContextCancellation(t, contract)
		})
	})
}

func testProviderName(t *testing.T, contract ContractTest) {
	p := contract.CreateProvider(t)

	name := p.Name()
	if name == "" {
		t.Error("Provider.Name() returned empty string")
	}

	if name2 := p.Name(); name != name2 {
		t.Errorf("Provider.Name() not consistent: %q != %q", name, name2)
	}
}

func testProviderGet(t *testing.T, contract ContractTest) {
	if contract.SetupTestSecret == nil {
		t.Skip("no test secret setup configured")
	}

	p := contract.CreateProvider(t)
	key, want := contract.SetupTestSecret(t, p)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	secret, found, err := p.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatalf("Get() found = false for seeded key")
	}
	if secret.Value != want {
		t.Errorf("Get() returned wrong value")
	}
	if secret.Key != key {
		t.Errorf("Get() key = %q, want %q", secret.Key, key)
	}
	if contract.ExpectedOrigin != "" && secret.Origin != contract.ExpectedOrigin {
		t.Errorf("Get() origin = %q, want %q", secret.Origin, contract.ExpectedOrigin)
	}
	if secret.FetchedAt.IsZero() {
		t.Error("Get() returned zero FetchedAt")
	}
}

func testProviderGetMiss(t *testing.T, contract ContractTest) {
	p := contract.CreateProvider(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, found, err := p.Get(ctx, "UNISECRET_CONTRACT_DOES_NOT_EXIST_9F3A")
	if err != nil {
		t.Fatalf("Get() on a miss must not return an error, got %v", err)
	}
	if found {
		t.Error("Get() found = true for a key that does not exist")
	}
}

func testProviderContextCancellation(t *testing.T, contract ContractTest) {
	p := contract.CreateProvider(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, err := p.Get(ctx, "UNISECRET_CONTRACT_CANCELLED")
		var transportErr *TransportError
		if err != nil && !errors.As(err, &transportErr) && !errors.Is(err, context.Canceled) {
			t.Errorf("Get() with cancelled context returned unexpected error type: %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Error("Get() did not return after context cancellation")
	}
}
