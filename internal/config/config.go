package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "MULTIPAGA"

type Config interface {
	EnvConfig
	SessionConfig
	CookieConfig
	StoreConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	IsProduction() bool
	GetBaseURL() string
	GetLoginPath() string
	GetLogLevel() string
	GetHTTPTimeout() time.Duration
	GetMetricsAddr() string
}

type mainConfig struct {
	EnvVars
	Session
	Cookie
	Store
}

// New builds a Config from MULTIPAGA_* environment variables.
func New() Config {
	return newConfig(newViper())
}

// NewFromFile layers a YAML config file under the environment variables.
// Keys in the file use the lower-case env names without the prefix (base_url, store_backend, ...).
func NewFromFile(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "[config.NewFromFile] reading %s", path)
	}
	return newConfig(v), nil
}

func newConfig(v *viper.Viper) Config {
	return mainConfig{
		EnvVars: EnvVars{v: v},
		Session: Session{v: v},
		Cookie:  Cookie{v: v},
		Store:   Store{v: v},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}
