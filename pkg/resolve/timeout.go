package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uerrors "github.com/systmms/unisecret/internal/errors"
)

// withProviderTimeout bounds a single provider call
func withProviderTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// describeProviderError wraps a provider failure with a hint for the operator.
// Deadline errors get a timeout-specific message.
func describeProviderError(err error, providerName string, timeout time.Duration) uerrors.UserError {
	if errors.Is(err, context.DeadlineExceeded) {
		return uerrors.UserError{
			Message:    "Provider operation timed out",
			Details:    fmt.Sprintf("Operation exceeded %dms timeout", timeout.Milliseconds()),
			Suggestion: getTimeoutSuggestion(providerName, timeout),
			Err:        err,
		}
	}
	described, _ := uerrors.ProviderError(providerName, "get", err).(uerrors.UserError)
	return described
}

// getTimeoutSuggestion provides helpful suggestions for timeout errors
func getTimeoutSuggestion(providerName string, timeout time.Duration) string {
	switch {
	case strings.Contains(providerName, "aws-secretsmanager"):
		if timeout < 5*time.Second {
			return "AWS API can be slow. Try increasing provider_timeout_ms to 10000"
		}
		return "Check AWS connectivity and credentials. Verify region is correct"

	case strings.Contains(providerName, "keyring"):
		return "The OS keyring may be locked or waiting for user approval. Unlock it and retry"
	}

	if timeout < 10*time.Second {
		return "Provider operation timed out. Try increasing provider_timeout_ms"
	}
	return "Check network connectivity and provider authentication. Consider increasing provider_timeout_ms if provider is consistently slow"
}
