package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	StoreBackendFile   = "file"
	StoreBackendMemory = "memory"
	StoreBackendCookie = "cookie"
	StoreBackendRedis  = "redis"
)

type StoreConfig interface {
	GetStoreBackend() string
	GetStorePath() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKey() string
}

type Store struct {
	v *viper.Viper
}

var _ StoreConfig = Store{}

func (s Store) GetStoreBackend() string {
	switch backend := getString(s.v, "store_backend", StoreBackendFile); backend {
	case StoreBackendMemory, StoreBackendCookie, StoreBackendRedis:
		return backend
	default:
		return StoreBackendFile
	}
}

func (s Store) GetStorePath() string {
	defaultPath := filepath.Join(".multipaga", "session.yaml")
	if home, err := os.UserHomeDir(); err == nil {
		defaultPath = filepath.Join(home, defaultPath)
	}
	return getString(s.v, "store_path", defaultPath)
}

func (s Store) GetRedisAddr() string {
	return getString(s.v, "redis_addr", "localhost:6379")
}

func (s Store) GetRedisPassword() string {
	return getString(s.v, "redis_password", "")
}

func (s Store) GetRedisDB() int {
	return getInt(s.v, "redis_db", 0)
}

// GetRedisKey identifies the session hash, one per operator or workstation.
func (s Store) GetRedisKey() string {
	return getString(s.v, "redis_key", "multipaga:session:default")
}
