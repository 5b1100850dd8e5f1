package config

import (
	"github.com/spf13/viper"
)

type CookieConfig interface {
	GetCookieDomain() string
	GetCookieSecure() bool
	GetDashboardURL() string
}

type Cookie struct {
	v *viper.Viper
}

var _ CookieConfig = Cookie{}

// GetCookieDomain is the cross-subdomain cookie domain; empty outside production.
func (c Cookie) GetCookieDomain() string {
	defaultDomain := ""
	if (EnvVars{v: c.v}).IsProduction() {
		defaultDomain = ".multipaga.com"
	}
	return getString(c.v, "cookie_domain", defaultDomain)
}

func (c Cookie) GetCookieSecure() bool {
	if c.v != nil && c.v.IsSet("cookie_secure") {
		return c.v.GetBool("cookie_secure")
	}
	return (EnvVars{v: c.v}).IsProduction()
}

// GetDashboardURL is the origin the session cookies are scoped to.
func (c Cookie) GetDashboardURL() string {
	defaultURL := "http://localhost:5173"
	if (EnvVars{v: c.v}).IsProduction() {
		defaultURL = "https://app.multipaga.com"
	}
	return getString(c.v, "dashboard_url", defaultURL)
}
