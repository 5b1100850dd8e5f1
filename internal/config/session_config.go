package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type SessionConfig interface {
	GetSessionExpiry() time.Duration
	GetAPIVersion() string
	GetXFeatureRoute() bool
}

type Session struct {
	v *viper.Viper
}

var _ SessionConfig = Session{}

// GetSessionExpiry is the sliding lifetime of every token store slot.
func (s Session) GetSessionExpiry() time.Duration {
	return getDuration(s.v, "session_expiry", 7*24*time.Hour)
}

// GetAPIVersion selects the authorization header set, V1 or V2.
func (s Session) GetAPIVersion() string {
	if strings.EqualFold(getString(s.v, "api_version", "V1"), "V2") {
		return "V2"
	}
	return "V1"
}

func (s Session) GetXFeatureRoute() bool {
	if s.v == nil || !s.v.IsSet("x_feature_route") {
		return true
	}
	return s.v.GetBool("x_feature_route")
}
