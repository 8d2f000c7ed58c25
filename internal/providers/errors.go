package providers

import (
	"fmt"

	"github.com/systmms/unisecret/internal/logging"
)

// KeyringError wraps OS keyring errors with context
type KeyringError struct {
	Service string
	Err     error
}

func (e *KeyringError) Error() string {
	return fmt.Sprintf("keyring lookup in service %s: %v", e.Service, e.Err)
}

func (e *KeyringError) Unwrap() error {
	return e.Err
}

// AWSError wraps AWS Secrets Manager errors with context.
// SecretID is redacted wherever it appears in the rendered message, including
// inside the AWS error text.
type AWSError struct {
	Op       string
	Region   string
	SecretID string
	Err      error
}

func (e *AWSError) Error() string {
	var msg string
	if e.Region != "" {
		msg = fmt.Sprintf("aws-secretsmanager %s (%s): %v", e.Op, e.Region, e.Err)
	} else {
		msg = fmt.Sprintf("aws-secretsmanager %s: %v", e.Op, e.Err)
	}
	return logging.RedactKeys(msg, e.SecretID)
}

func (e *AWSError) Unwrap() error {
	return e.Err
}
