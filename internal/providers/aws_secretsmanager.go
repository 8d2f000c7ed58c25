package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// DefaultAWSRegion is used when no region is configured.
const DefaultAWSRegion = "us-east-1"

// SecretsManagerAPI is the subset of the Secrets Manager client the backend uses.
// This allows for mocking in tests
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManagerOptions configures the AWS client. Empty fields fall back
// to the SDK's default credential and endpoint resolution.
type AWSSecretsManagerOptions struct {
	Region   string
	Endpoint string // LocalStack or testing

	AccessKeyID     string
	SecretAccessKey string
}

// AWSSecretsManagerBackend reads secrets from AWS Secrets Manager.
//
// Keys may be a plain secret id or "secret-id#field", in which case the
// secret string is parsed as a JSON object and the named top-level field is
// returned.
type AWSSecretsManagerBackend struct {
	client SecretsManagerAPI
	region string
}

// AWSOption is a functional option for the AWS backend
type AWSOption func(*AWSSecretsManagerBackend)

// WithSecretsManagerClient sets a custom Secrets Manager client (for testing)
func WithSecretsManagerClient(client SecretsManagerAPI) AWSOption {
	return func(b *AWSSecretsManagerBackend) {
		b.client = client
	}
}

// NewAWSSecretsManagerBackend creates an AWS Secrets Manager backend.
func NewAWSSecretsManagerBackend(ctx context.Context, o AWSSecretsManagerOptions, opts ...AWSOption) (*AWSSecretsManagerBackend, error) {
	region := o.Region
	if region == "" {
		region = DefaultAWSRegion
	}

	b := &AWSSecretsManagerBackend{region: region}
	for _, opt := range opts {
		opt(b)
	}
	if b.client != nil {
		return b, nil
	}

	configOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if o.AccessKeyID != "" && o.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*secretsmanager.Options)
	if o.Endpoint != "" {
		endpoint := o.Endpoint
		clientOpts = append(clientOpts, func(so *secretsmanager.Options) {
			so.BaseEndpoint = aws.String(endpoint)
		})
	}
	b.client = secretsmanager.NewFromConfig(cfg, clientOpts...)
	return b, nil
}

// Type returns the backend type
func (b *AWSSecretsManagerBackend) Type() string {
	return "aws-secretsmanager"
}

// Region returns the configured AWS region.
func (b *AWSSecretsManagerBackend) Region() string {
	return b.region
}

// Fetch retrieves key from Secrets Manager
func (b *AWSSecretsManagerBackend) Fetch(ctx context.Context, key string) (string, bool, error) {
	secretID, field := splitSecretField(key)

	out, err := b.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		if isNotFoundError(err) {
			return "", false, nil
		}
		return "", false, &AWSError{Op: "GetSecretValue", Region: b.region, SecretID: secretID, Err: err}
	}

	var value string
	switch {
	case out.SecretString != nil:
		value = *out.SecretString
	case out.SecretBinary != nil:
		value = string(out.SecretBinary)
	default:
		return "", false, nil
	}

	if field == "" {
		return value, true, nil
	}
	return extractField(value, field)
}

func splitSecretField(key string) (secretID, field string) {
	if i := strings.LastIndex(key, "#"); i > 0 {
		return key[:i], key[i+1:]
	}
	return key, ""
}

// extractField reads a top-level field from a JSON object secret.
// A missing field is a miss. A secret that is not a JSON object is a miss too,
// since the caller asked for a field that cannot exist.
func extractField(secret, field string) (string, bool, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(secret), &obj); err != nil {
		return "", false, nil
	}

	raw, ok := obj[field]
	if !ok || raw == nil {
		return "", false, nil
	}
	if s, ok := raw.(string); ok {
		return s, true, nil
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return "", false, fmt.Errorf("encode field %q: %w", field, err)
	}
	return string(encoded), true, nil
}

func isNotFoundError(err error) bool {
	var resourceNotFound *types.ResourceNotFoundException
	return errors.As(err, &resourceNotFound)
}
