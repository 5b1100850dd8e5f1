package tokenstore

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/multipaga/internal/config"
	"github.com/jrsteele09/multipaga/internal/errors"
)

// Slot names one persisted value of the client session.
type Slot string

const (
	AuthToken    Slot = "auth_token"
	RefreshToken Slot = "refresh_token"
	UserInfo     Slot = "user_info"
	MerchantID   Slot = "merchant_id"
	OrgID        Slot = "org_id"
	ProfileID    Slot = "profile_id"
	TwoFAToken   Slot = "two_fa_token"
)

// Slots returns every slot a Clear must remove.
func Slots() []Slot {
	return []Slot{AuthToken, RefreshToken, UserInfo, MerchantID, OrgID, ProfileID, TwoFAToken}
}

// Store persists session slots. Get returns errors.ErrNotFound for absent or expired slots.
// Every successful Get or Set pushes the slot's expiry out by Policy.Expiry.
type Store interface {
	Get(ctx context.Context, slot Slot) (string, error)
	Set(ctx context.Context, slot Slot, value string) error
	Delete(ctx context.Context, slot Slot) error
	// Clear removes every slot, including domain-qualified variants.
	Clear(ctx context.Context) error
}

// Policy controls where and for how long slots persist.
type Policy struct {
	Domain   string // cross-subdomain cookie domain, empty for host-only
	Secure   bool
	SameSite http.SameSite
	Expiry   time.Duration
}

const DefaultExpiry = 7 * 24 * time.Hour

func DefaultPolicy() Policy {
	return Policy{
		SameSite: http.SameSiteLaxMode,
		Expiry:   DefaultExpiry,
	}
}

// PolicyFromConfig derives the policy from the cookie and session settings.
func PolicyFromConfig(cookies config.CookieConfig, session config.SessionConfig) Policy {
	return Policy{
		Domain:   cookies.GetCookieDomain(),
		Secure:   cookies.GetCookieSecure(),
		SameSite: http.SameSiteLaxMode,
		Expiry:   session.GetSessionExpiry(),
	}
}

// Value reads a slot, mapping ErrNotFound to an empty string.
func Value(ctx context.Context, s Store, slot Slot) (string, error) {
	v, err := s.Get(ctx, slot)
	if errors.Is(err, errors.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SetIfNotEmpty writes value unless it is empty.
func SetIfNotEmpty(ctx context.Context, s Store, slot Slot, value string) error {
	if value == "" {
		return nil
	}
	return s.Set(ctx, slot, value)
}
