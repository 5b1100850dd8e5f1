package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/multipaga/internal/config"
	"github.com/stretchr/testify/require"
)

func TestEnvDefaults(t *testing.T) {
	t.Setenv("MULTIPAGA_ENVIRONMENT", "")
	t.Setenv("MULTIPAGA_BASE_URL", "")
	c := config.New()

	require.Equal(t, config.EnvSandbox, c.GetEnv())
	require.Equal(t, config.SandboxBaseURL, c.GetBaseURL())
	require.Equal(t, 7*24*time.Hour, c.GetSessionExpiry())
	require.Equal(t, "V1", c.GetAPIVersion())
	require.True(t, c.GetXFeatureRoute())
	require.Empty(t, c.GetCookieDomain())
	require.False(t, c.GetCookieSecure())
	require.Equal(t, config.StoreBackendFile, c.GetStoreBackend())
}

func TestProductionEnvironment(t *testing.T) {
	t.Setenv("MULTIPAGA_ENVIRONMENT", "production")
	c := config.New()

	require.True(t, c.IsProduction())
	require.Equal(t, config.ProductionBaseURL, c.GetBaseURL())
	require.Equal(t, ".multipaga.com", c.GetCookieDomain())
	require.True(t, c.GetCookieSecure())
}

func TestBaseURLOverride(t *testing.T) {
	t.Setenv("MULTIPAGA_BASE_URL", "http://localhost:8080/")
	c := config.New()
	require.Equal(t, "http://localhost:8080", c.GetBaseURL())
}

func TestUnknownStoreBackendFallsBackToFile(t *testing.T) {
	t.Setenv("MULTIPAGA_STORE_BACKEND", "etcd")
	require.Equal(t, config.StoreBackendFile, config.New().GetStoreBackend())

	t.Setenv("MULTIPAGA_STORE_BACKEND", "redis")
	require.Equal(t, config.StoreBackendRedis, config.New().GetStoreBackend())
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multipaga.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: production\napi_version: v2\nhttp_timeout: 5s\n"), 0o600))

	c, err := config.NewFromFile(path)
	require.NoError(t, err)
	require.True(t, c.IsProduction())
	require.Equal(t, "V2", c.GetAPIVersion())
	require.Equal(t, 5*time.Second, c.GetHTTPTimeout())

	_, err = config.NewFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
