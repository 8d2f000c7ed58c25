package errors_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/unisecret/internal/errors"
)

// TestUserErrorFormatting verifies UserError displays properly
func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "Operation failed",
		Details:    "Connection timeout",
		Suggestion: "Check network connectivity",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Operation failed")
	assert.Contains(t, errMsg, "Details: Connection timeout")
	assert.Contains(t, errMsg, "Try: Check network connectivity")
}

func TestUserErrorFallsBackToWrappedMessage(t *testing.T) {
	t.Parallel()

	err := errors.UserError{Err: fmt.Errorf("root cause")}
	assert.Equal(t, "root cause", err.Error())
}

func TestUserErrorSummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      errors.UserError
		expected string
	}{
		{
			name: "message and details",
			err: errors.UserError{
				Message:    "Operation failed",
				Details:    "Connection timeout",
				Suggestion: "Check network connectivity",
			},
			expected: "Operation failed: Connection timeout",
		},
		{
			name:     "wrapped error only",
			err:      errors.UserError{Err: fmt.Errorf("root cause")},
			expected: "root cause",
		},
		{
			name:     "multi-line details are flattened",
			err:      errors.UserError{Message: "outer", Details: "inner\n  Details: nested"},
			expected: "outer: inner Details: nested",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Summary())
		})
	}
}

// TestConfigErrorFormatting verifies ConfigError displays with context
func TestConfigErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.ConfigError{
		Field:      "vault.type",
		Value:      "hashicorp",
		Message:    "unsupported vault backend",
		Suggestion: "Use one of: literal, keyring, aws-secretsmanager",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Configuration error in field 'vault.type'")
	assert.Contains(t, errMsg, "(value: hashicorp)")
	assert.Contains(t, errMsg, ": unsupported vault backend")
	assert.Contains(t, errMsg, "literal, keyring, aws-secretsmanager")
}

func TestProviderErrorSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider string
		err      error
		contains string
	}{
		{
			name:     "aws access denied",
			provider: "vault:aws-secretsmanager",
			err:      fmt.Errorf("AccessDeniedException: not authorized"),
			contains: "secretsmanager:GetSecretValue",
		},
		{
			name:     "aws throttled",
			provider: "vault:aws-secretsmanager",
			err:      fmt.Errorf("ThrottlingException: rate exceeded"),
			contains: "rate limit",
		},
		{
			name:     "keyring without secret service",
			provider: "vault:keyring",
			err:      fmt.Errorf("failed to open dbus connection"),
			contains: "Secret Service",
		},
		{
			name:     "deadline exceeded",
			provider: "bindings",
			err:      context.DeadlineExceeded,
			contains: "provider_timeout_ms",
		},
		{
			name:     "connection refused",
			provider: "vault:corp",
			err:      fmt.Errorf("dial tcp: connection refused"),
			contains: "Unable to connect",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := errors.ProviderError(tt.provider, "get", tt.err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Contains(t, err.Error(), tt.provider+" provider error during get")
			assert.Contains(t, err.Error(), "Details: "+tt.err.Error())
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestProviderErrorWithoutSuggestion(t *testing.T) {
	t.Parallel()

	err := errors.ProviderError("env", "get", fmt.Errorf("odd failure"))
	assert.NotContains(t, err.Error(), "Try:")
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err      error
		expected bool
	}{
		{nil, false},
		{fmt.Errorf("request timeout"), true},
		{context.DeadlineExceeded, true},
		{fmt.Errorf("Throttling: slow down"), true},
		{fmt.Errorf("connection reset by peer"), true},
		{fmt.Errorf("invalid credentials"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, errors.IsRetryable(tt.err), "%v", tt.err)
	}
}

func TestSimplifyError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.SimplifyError(nil))

	userErr := errors.UserError{Message: "already friendly"}
	assert.Equal(t, userErr, errors.SimplifyError(userErr))

	wrappedCfg := fmt.Errorf("load: %w", errors.ConfigError{Message: "bad"})
	assert.Equal(t, wrappedCfg, errors.SimplifyError(wrappedCfg))

	yamlErr := errors.SimplifyError(fmt.Errorf("parse: %w", stderrors.New("yaml: line 3: mapping values are not allowed")))
	var cfgErr errors.ConfigError
	assert.ErrorAs(t, yamlErr, &cfgErr)
	assert.Equal(t, "Invalid YAML format", cfgErr.Message)

	permErr := errors.SimplifyError(stderrors.New("open unisecret.yaml: permission denied"))
	assert.Contains(t, permErr.Error(), "Permission denied")

	missing := errors.SimplifyError(stderrors.New("open x: no such file or directory"))
	assert.Contains(t, missing.Error(), "File or directory not found")

	other := stderrors.New("something else")
	assert.Equal(t, other, errors.SimplifyError(other))
}
