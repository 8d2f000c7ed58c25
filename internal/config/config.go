package config

import (
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	uerrors "github.com/systmms/unisecret/internal/errors"
	"github.com/systmms/unisecret/internal/logging"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "unisecret.yaml"

// Defaults applied when neither the file nor the environment sets a value.
const (
	DefaultTTL             = 5 * time.Minute
	DefaultProviderTimeout = 5 * time.Second
	DefaultCIMarker        = "CI"
	DefaultPlatformPrefix  = "PLATFORM_"
)

// Environment variables that override file values.
const (
	EnvKey             = "UNISECRET_KEY"
	EnvSeed            = "UNISECRET_SEED"
	EnvCIMarker        = "UNISECRET_CI_MARKER"
	EnvPlatformPrefix  = "UNISECRET_PLATFORM_PREFIX"
	EnvDefaultTTL      = "UNISECRET_DEFAULT_TTL"
	EnvProviderTimeout = "UNISECRET_PROVIDER_TIMEOUT_MS"
)

//go:embed schema.json
var schema []byte

// Definition represents the unisecret.yaml structure
type Definition struct {
	DefaultTTL        string            `yaml:"default_ttl,omitempty"`
	ProviderTimeoutMs int               `yaml:"provider_timeout_ms,omitempty"`
	Key               string            `yaml:"key,omitempty"` // base64, 32 bytes decoded
	Seed              string            `yaml:"seed,omitempty"`
	CIMarker          string            `yaml:"ci_marker,omitempty"`
	PlatformPrefix    string            `yaml:"platform_prefix,omitempty"`
	Bindings          map[string]string `yaml:"bindings,omitempty"`
	Singleflight      bool              `yaml:"singleflight,omitempty"`
	Vault             *VaultConfig      `yaml:"vault,omitempty"`
}

// VaultConfig selects and configures the external-vault backend
type VaultConfig struct {
	Type     string            `yaml:"type"`
	Name     string            `yaml:"name,omitempty"`
	Region   string            `yaml:"region,omitempty"`   // aws-secretsmanager
	Endpoint string            `yaml:"endpoint,omitempty"` // aws-secretsmanager
	Service  string            `yaml:"service,omitempty"`  // keyring
	Values   map[string]string `yaml:"values,omitempty"`   // literal
}

// Config holds the runtime configuration
type Config struct {
	Path       string
	Logger     *logging.Logger
	Getenv     func(string) string // os.Getenv when nil
	Definition *Definition
}

// Load reads the configuration file, if present, and applies environment
// overrides. A missing file at the default path is not an error.
func (c *Config) Load() error {
	path := c.Path
	if path == "" {
		path = DefaultPath
	}

	def := &Definition{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		def, err = Parse(data)
		if err != nil {
			return err
		}
		c.logger().Debug("Loaded configuration from %s", path)
	case os.IsNotExist(err) && c.Path == "":
		c.logger().Debug("No %s found, using defaults", DefaultPath)
	case os.IsNotExist(err):
		return uerrors.ConfigError{
			Field:      "path",
			Value:      c.Path,
			Message:    "configuration file not found",
			Suggestion: "Check the --config path or omit it to use defaults",
		}
	default:
		return uerrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	getenv := c.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := def.applyEnv(getenv); err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return err
	}

	c.Definition = def
	return nil
}

func (c *Config) logger() *logging.Logger {
	if c.Logger == nil {
		return logging.Discard()
	}
	return c.Logger
}

// Parse validates data against the configuration schema and decodes it.
func Parse(data []byte) (*Definition, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, uerrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}
	if doc == nil {
		return &Definition{}, nil
	}

	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, uerrors.ConfigError{
			Message:    "configuration does not match expected structure",
			Suggestion: "Compare your file with the documented fields",
		}
	}
	return &def, nil
}

func validateSchema(doc interface{}) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return uerrors.ConfigError{
			Message:    "schema validation failed:\n  - " + strings.Join(messages, "\n  - "),
			Suggestion: "Remove unknown fields and check value types",
		}
	}
	return nil
}

func (d *Definition) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvKey); v != "" {
		d.Key = v
	}
	if v := getenv(EnvSeed); v != "" {
		d.Seed = v
	}
	if v := getenv(EnvCIMarker); v != "" {
		d.CIMarker = v
	}
	if v := getenv(EnvPlatformPrefix); v != "" {
		d.PlatformPrefix = v
	}
	if v := getenv(EnvDefaultTTL); v != "" {
		d.DefaultTTL = v
	}
	if v := getenv(EnvProviderTimeout); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return uerrors.ConfigError{
				Field:      EnvProviderTimeout,
				Value:      v,
				Message:    "must be a positive integer number of milliseconds",
				Suggestion: "Set e.g. " + EnvProviderTimeout + "=5000",
			}
		}
		d.ProviderTimeoutMs = ms
	}
	return nil
}

// Validate checks values the schema cannot express.
func (d *Definition) Validate() error {
	if _, err := d.TTL(); err != nil {
		return err
	}
	if _, err := d.KeyBytes(); err != nil {
		return err
	}
	return nil
}

// TTL returns the default cache ttl.
func (d *Definition) TTL() (time.Duration, error) {
	if d.DefaultTTL == "" {
		return DefaultTTL, nil
	}
	ttl, err := time.ParseDuration(d.DefaultTTL)
	if err != nil || ttl <= 0 {
		return 0, uerrors.ConfigError{
			Field:      "default_ttl",
			Value:      d.DefaultTTL,
			Message:    "must be a positive duration",
			Suggestion: "Use a Go duration such as 30s, 5m or 1h",
		}
	}
	return ttl, nil
}

// ProviderTimeout returns the per-provider call deadline.
func (d *Definition) ProviderTimeout() time.Duration {
	if d.ProviderTimeoutMs <= 0 {
		return DefaultProviderTimeout
	}
	return time.Duration(d.ProviderTimeoutMs) * time.Millisecond
}

// KeyBytes decodes the explicit cache key. It returns nil when no key is set.
func (d *Definition) KeyBytes() ([]byte, error) {
	if d.Key == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(d.Key)
	if err != nil || len(key) != 32 {
		return nil, uerrors.ConfigError{
			Field:      "key",
			Message:    "must be 32 bytes encoded as standard base64",
			Suggestion: "Generate one with: head -c 32 /dev/urandom | base64",
		}
	}
	return key, nil
}

// CIMarkerOrDefault returns the configured CI marker variable name.
func (d *Definition) CIMarkerOrDefault() string {
	if d.CIMarker == "" {
		return DefaultCIMarker
	}
	return d.CIMarker
}

// PlatformPrefixOrDefault returns the platform environment prefix.
func (d *Definition) PlatformPrefixOrDefault() string {
	if d.PlatformPrefix == "" {
		return DefaultPlatformPrefix
	}
	return d.PlatformPrefix
}
