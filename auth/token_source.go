package auth

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	internalerrors "github.com/jrsteele09/multipaga/internal/errors"
	"github.com/jrsteele09/multipaga/tokenstore"
)

type tokenSource struct {
	ctx     context.Context
	service *Service
}

// TokenSource exposes the stored access token to oauth2-aware clients. An expired token is
// refreshed once; if that fails the session is force-logged-out.
func (s *Service) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, service: s}
}

// HTTPClient returns a client that adds the bearer token to every request.
func (s *Service) HTTPClient(ctx context.Context) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	return oauth2.NewClient(ctx, s.TokenSource(ctx))
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	s := ts.service
	access, err := s.requireAccessToken(ts.ctx)
	if err != nil {
		return nil, err
	}
	if !s.tokenValid(access) {
		if err := s.Refresh(ts.ctx); err != nil {
			if logoutErr := s.ForceLogout(ts.ctx, "token_source_refresh_failed"); logoutErr != nil {
				s.logger.Err(logoutErr).Msg("forced logout failed")
			}
			return nil, errors.Wrapf(internalerrors.ErrTokenExpired, "[tokenSource.Token] %v", err)
		}
		if access, err = s.requireAccessToken(ts.ctx); err != nil {
			return nil, err
		}
	}
	expiry, _ := tokenstore.TokenExpiry(access)
	return &oauth2.Token{
		AccessToken: access,
		TokenType:   "Bearer",
		Expiry:      expiry,
	}, nil
}
