package config

import (
	"strings"
	"time"

	"github.com/jrsteele09/multipaga/apiurl"
	"github.com/spf13/viper"
)

const (
	appNameVar     = "app_name"
	environmentVar = "environment"
	baseURLVar     = "base_url"
	loginPathVar   = "login_path"
	logLevelVar    = "log_level"
	httpTimeoutVar = "http_timeout"
	metricsAddrVar = "metrics_addr"

	EnvSandbox    = "sandbox"
	EnvProduction = "production"

	SandboxBaseURL    = apiurl.SandboxBaseURL
	ProductionBaseURL = apiurl.ProductionBaseURL
)

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return getString(e.v, appNameVar, "Multipaga")
}

// GetEnv returns "production" or "sandbox"; anything else is treated as sandbox.
func (e EnvVars) GetEnv() string {
	if strings.EqualFold(getString(e.v, environmentVar, EnvSandbox), EnvProduction) {
		return EnvProduction
	}
	return EnvSandbox
}

func (e EnvVars) IsProduction() bool {
	return e.GetEnv() == EnvProduction
}

// GetBaseURL returns the Hyperswitch API base URL for the environment unless overridden.
func (e EnvVars) GetBaseURL() string {
	defaultURL := SandboxBaseURL
	if e.IsProduction() {
		defaultURL = ProductionBaseURL
	}
	return strings.TrimRight(getString(e.v, baseURLVar, defaultURL), "/")
}

func (e EnvVars) GetLoginPath() string {
	return getString(e.v, loginPathVar, "/login")
}

func (e EnvVars) GetLogLevel() string {
	return getString(e.v, logLevelVar, "info")
}

func (e EnvVars) GetHTTPTimeout() time.Duration {
	return getDuration(e.v, httpTimeoutVar, 30*time.Second)
}

// GetMetricsAddr is empty unless the metrics endpoint should be served.
func (e EnvVars) GetMetricsAddr() string {
	return getString(e.v, metricsAddrVar, "")
}

func getString(v *viper.Viper, key, defaultValue string) string {
	if v == nil {
		return defaultValue
	}
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(v *viper.Viper, key string, defaultValue time.Duration) time.Duration {
	if v == nil || !v.IsSet(key) {
		return defaultValue
	}
	d := v.GetDuration(key)
	if d <= 0 {
		return defaultValue
	}
	return d
}

func getInt(v *viper.Viper, key string, defaultValue int) int {
	if v == nil || !v.IsSet(key) {
		return defaultValue
	}
	return v.GetInt(key)
}
