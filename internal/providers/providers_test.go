package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/unisecret/pkg/provider"
	"github.com/systmms/unisecret/tests/testutil"
)

func TestEnvProvider(t *testing.T) {
	t.Parallel()

	env := map[string]string{"DB_PASS": "secret123", "EMPTY": ""}
	p := NewEnvProvider(testutil.MapEnv(env))
	ctx := context.Background()

	secret, found, err := p.Get(ctx, "DB_PASS")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "secret123", secret.Value)
	assert.Equal(t, provider.OriginEnv, secret.Origin)
	assert.Equal(t, "DB_PASS", secret.Key)
	assert.Zero(t, secret.TTL)

	_, found, err = p.Get(ctx, "EMPTY")
	require.NoError(t, err)
	assert.False(t, found, "empty variable is a miss")

	_, found, err = p.Get(ctx, "UNSET")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEnvProvider_ProcessEnvironment(t *testing.T) {
	t.Setenv("UNISECRET_TEST_ENV_PROVIDER", "from-os")

	secret, found, err := NewEnvProvider(nil).Get(context.Background(), "UNISECRET_TEST_ENV_PROVIDER")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "from-os", secret.Value)
}

func TestEnvProvider_Contract(t *testing.T) {
	env := map[string]string{}
	provider.RunContractTests(t, provider.ContractTest{
		CreateProvider: func(t *testing.T) provider.Provider {
			return NewEnvProvider(testutil.MapEnv(env))
		},
		SetupTestSecret: func(t *testing.T, p provider.Provider) (string, string) {
			env["CONTRACT_KEY"] = "contract-value"
			return "CONTRACT_KEY", "contract-value"
		},
		ExpectedOrigin: provider.OriginEnv,
	})
}

func TestCIProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		marker    string
		env       map[string]string
		wantFound bool
	}{
		{
			name:      "inactive without marker",
			env:       map[string]string{"DEPLOY_TOKEN": "t0k"},
			wantFound: false,
		},
		{
			name:      "inactive with empty marker value",
			env:       map[string]string{"CI": "", "DEPLOY_TOKEN": "t0k"},
			wantFound: false,
		},
		{
			name:      "active with default marker",
			env:       map[string]string{"CI": "true", "DEPLOY_TOKEN": "t0k"},
			wantFound: true,
		},
		{
			name:      "active with custom marker",
			marker:    "GITLAB_CI",
			env:       map[string]string{"GITLAB_CI": "1", "DEPLOY_TOKEN": "t0k"},
			wantFound: true,
		},
		{
			name:      "custom marker ignores default",
			marker:    "GITLAB_CI",
			env:       map[string]string{"CI": "true", "DEPLOY_TOKEN": "t0k"},
			wantFound: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewCIProvider(tt.marker, testutil.MapEnv(tt.env))
			secret, found, err := p.Get(context.Background(), "DEPLOY_TOKEN")
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, "t0k", secret.Value)
				assert.Equal(t, provider.OriginCI, secret.Origin)
			}
		})
	}
}

func TestCIProvider_InactiveReadsOnlyMarker(t *testing.T) {
	t.Parallel()

	var reads []string
	getenv := func(name string) string {
		reads = append(reads, name)
		return ""
	}

	p := NewCIProvider("", getenv)
	_, found, err := p.Get(context.Background(), "DEPLOY_TOKEN")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, []string{DefaultCIMarker}, reads)
}

func TestPlatformProvider(t *testing.T) {
	t.Parallel()

	bindings := map[string]string{"DB_URL": "bound-url", "BLANK": ""}
	env := map[string]string{
		"PLATFORM_DB_URL":  "env-url",
		"PLATFORM_API_KEY": "env-key",
		"PLATFORM_BLANK":   "env-blank",
		"API_KEY":          "raw-env",
	}
	p := NewPlatformProvider(bindings, "", testutil.MapEnv(env))
	ctx := context.Background()

	secret, found, err := p.Get(ctx, "DB_URL")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "bound-url", secret.Value)
	assert.Equal(t, provider.OriginBindings, secret.Origin)

	secret, found, err = p.Get(ctx, "API_KEY")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "env-key", secret.Value)
	assert.Equal(t, provider.OriginPlatformEnv, secret.Origin)
	assert.Equal(t, "API_KEY", secret.Key, "key is reported without the prefix")

	secret, found, err = p.Get(ctx, "BLANK")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "env-blank", secret.Value, "empty binding falls through to env")

	_, found, err = p.Get(ctx, "OTHER")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPlatformProvider_CopiesBindings(t *testing.T) {
	t.Parallel()

	bindings := map[string]string{"K": "v1"}
	p := NewPlatformProvider(bindings, "APP_", testutil.MapEnv(nil))
	bindings["K"] = "v2"
	bindings["NEW"] = "x"

	secret, found, err := p.Get(context.Background(), "K")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v1", secret.Value)

	_, found, err = p.Get(context.Background(), "NEW")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "APP_", p.Prefix())
}

func TestPlatformProvider_Contract(t *testing.T) {
	provider.RunContractTests(t, provider.ContractTest{
		CreateProvider: func(t *testing.T) provider.Provider {
			return NewPlatformProvider(map[string]string{"BOUND": "bound-value"}, "", testutil.MapEnv(nil))
		},
		SetupTestSecret: func(t *testing.T, p provider.Provider) (string, string) {
			return "BOUND", "bound-value"
		},
		ExpectedOrigin: provider.OriginBindings,
	})
}

type failingBackend struct {
	err error
}

func (f failingBackend) Type() string { return "failing" }

func (f failingBackend) Fetch(ctx context.Context, key string) (string, bool, error) {
	return "", false, f.err
}

type slowBackend struct{}

func (slowBackend) Type() string { return "slow" }

func (slowBackend) Fetch(ctx context.Context, key string) (string, bool, error) {
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case <-time.After(time.Minute):
		return "late", true, nil
	}
}

func TestVaultProvider_Inactive(t *testing.T) {
	t.Parallel()

	for name, cfg := range map[string]*VaultConfig{
		"nil config":  nil,
		"nil backend": {Name: "vault:none"},
	} {
		p := NewVaultProvider(cfg)
		assert.False(t, p.Active(), name)

		_, found, err := p.Get(context.Background(), "ANY")
		assert.NoError(t, err, name)
		assert.False(t, found, name)
	}
}

func TestVaultProvider_Names(t *testing.T) {
	t.Parallel()

	backend := NewLiteralBackend(nil)
	assert.Equal(t, "vault:literal", NewVaultProvider(&VaultConfig{Backend: backend}).Name())
	assert.Equal(t, "corp-vault", NewVaultProvider(&VaultConfig{Name: "corp-vault", Backend: backend}).Name())
}

func TestVaultProvider_Hit(t *testing.T) {
	t.Parallel()

	p := NewVaultProvider(&VaultConfig{Backend: NewLiteralBackend(map[string]string{"API_TOKEN": "tok"})})
	secret, found, err := p.Get(context.Background(), "API_TOKEN")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "tok", secret.Value)
	assert.Equal(t, "vault:literal", secret.Origin)
}

func TestVaultProvider_TransportError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	p := NewVaultProvider(&VaultConfig{Name: "corp", Backend: failingBackend{err: cause}})

	_, found, err := p.Get(context.Background(), "K")
	require.Error(t, err)
	assert.False(t, found)

	var transportErr *provider.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "corp", transportErr.Provider)
	assert.ErrorIs(t, err, cause)
}

func TestVaultProvider_Deadline(t *testing.T) {
	t.Parallel()

	p := NewVaultProvider(&VaultConfig{Backend: slowBackend{}})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, found, err := p.Get(ctx, "K")
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, found)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVaultProvider_Contract(t *testing.T) {
	backend := NewLiteralBackend(nil)
	provider.RunContractTests(t, provider.ContractTest{
		CreateProvider: func(t *testing.T) provider.Provider {
			return NewVaultProvider(&VaultConfig{Name: "vault:contract", Backend: backend})
		},
		SetupTestSecret: func(t *testing.T, p provider.Provider) (string, string) {
			backend.SetValue("VAULT_KEY", "vault-value")
			return "VAULT_KEY", "vault-value"
		},
		ExpectedOrigin: "vault:contract",
	})
}

func TestLiteralBackend(t *testing.T) {
	t.Parallel()

	values := map[string]string{"A": "1"}
	b := NewLiteralBackend(values)
	values["A"] = "changed"

	v, found, err := b.Fetch(context.Background(), "A")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1", v)

	b.SetValue("B", "2")
	v, found, err = b.Fetch(context.Background(), "B")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "2", v)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = b.Fetch(ctx, "A")
	assert.ErrorIs(t, err, context.Canceled)
}
