package tokenstore

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/jrsteele09/multipaga/users"
)

// Tokens is a typed view over a Store.
type Tokens struct {
	Store
}

func NewTokens(s Store) *Tokens {
	return &Tokens{Store: s}
}

func (t *Tokens) AccessToken(ctx context.Context) (string, error) {
	return Value(ctx, t.Store, AuthToken)
}

func (t *Tokens) RefreshToken(ctx context.Context) (string, error) {
	return Value(ctx, t.Store, RefreshToken)
}

func (t *Tokens) TwoFAToken(ctx context.Context) (string, error) {
	return Value(ctx, t.Store, TwoFAToken)
}

func (t *Tokens) MerchantID(ctx context.Context) (string, error) {
	return Value(ctx, t.Store, MerchantID)
}

func (t *Tokens) OrgID(ctx context.Context) (string, error) {
	return Value(ctx, t.Store, OrgID)
}

func (t *Tokens) ProfileID(ctx context.Context) (string, error) {
	return Value(ctx, t.Store, ProfileID)
}

// SetTokens stores the access token and, when present, the refresh token.
func (t *Tokens) SetTokens(ctx context.Context, access, refresh string) error {
	if err := t.Set(ctx, AuthToken, access); err != nil {
		return err
	}
	return SetIfNotEmpty(ctx, t.Store, RefreshToken, refresh)
}

// SetUserInfo stores the profile as JSON together with its non-empty merchant, org and profile ids.
func (t *Tokens) SetUserInfo(ctx context.Context, u *users.UserInfo) error {
	data, err := json.Marshal(u)
	if err != nil {
		return errors.Wrap(err, "[Tokens.SetUserInfo] marshal")
	}
	if err := t.Set(ctx, UserInfo, string(data)); err != nil {
		return err
	}
	for slot, v := range map[Slot]string{MerchantID: u.MerchantID, OrgID: u.OrgID, ProfileID: u.ProfileID} {
		if err := SetIfNotEmpty(ctx, t.Store, slot, v); err != nil {
			return err
		}
	}
	return nil
}

// UserInfo returns nil without error when no profile is stored.
func (t *Tokens) UserInfo(ctx context.Context) (*users.UserInfo, error) {
	raw, err := Value(ctx, t.Store, UserInfo)
	if err != nil || raw == "" {
		return nil, err
	}
	var u users.UserInfo
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, errors.Wrap(err, "[Tokens.UserInfo] unmarshal")
	}
	return &u, nil
}
