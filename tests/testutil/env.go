package testutil

import (
	"os"
	"testing"
)

// SetupTestEnv sets environment variables for the duration of a test.
//
// The original environment is restored automatically when the test completes.
// This uses t.Cleanup() to ensure cleanup happens even if the test fails.
//
// Example usage:
//
//	SetupTestEnv(t, map[string]string{
//	    "DB_PASS": "secret123",
//	    "CI":      "true",
//	})
func SetupTestEnv(t *testing.T, vars map[string]string) {
	t.Helper()

	for key, value := range vars {
		restoreOnCleanup(t, key)
		if err := os.Setenv(key, value); err != nil {
			t.Fatalf("Failed to set environment variable %s: %v", key, err)
		}
	}
}

// UnsetTestEnv removes environment variables for the duration of a test.
//
// Use it to make sure markers inherited from the runner (CI, for one) do not
// change which providers are active.
func UnsetTestEnv(t *testing.T, keys ...string) {
	t.Helper()

	for _, key := range keys {
		restoreOnCleanup(t, key)
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("Failed to unset environment variable %s: %v", key, err)
		}
	}
}

func restoreOnCleanup(t *testing.T, key string) {
	t.Helper()

	orig, wasSet := os.LookupEnv(key)
	t.Cleanup(func() {
		if wasSet {
			if err := os.Setenv(key, orig); err != nil {
				t.Errorf("Failed to restore environment variable %s: %v", key, err)
			}
			return
		}
		if err := os.Unsetenv(key); err != nil {
			t.Errorf("Failed to unset environment variable %s: %v", key, err)
		}
	})
}

// MapEnv returns a getenv function backed by vars. Providers that accept an
// injected lookup can use it to stay independent of the process environment.
func MapEnv(vars map[string]string) func(string) string {
	return func(name string) string {
		return vars[name]
	}
}
