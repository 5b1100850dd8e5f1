package tokenstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/multipaga/tokenstore"
	"github.com/jrsteele09/multipaga/tokenstore/memstore"
	"github.com/jrsteele09/multipaga/users"
)

func TestTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store reads as empty values", func(t *testing.T) {
		tokens := tokenstore.NewTokens(memstore.New(tokenstore.DefaultPolicy()))
		access, err := tokens.AccessToken(ctx)
		require.NoError(t, err)
		require.Empty(t, access)

		u, err := tokens.UserInfo(ctx)
		require.NoError(t, err)
		require.Nil(t, u)
	})

	t.Run("refresh token is optional", func(t *testing.T) {
		tokens := tokenstore.NewTokens(memstore.New(tokenstore.DefaultPolicy()))
		require.NoError(t, tokens.SetTokens(ctx, "access", ""))
		refresh, err := tokens.RefreshToken(ctx)
		require.NoError(t, err)
		require.Empty(t, refresh)

		require.NoError(t, tokens.SetTokens(ctx, "access2", "refresh2"))
		refresh, err = tokens.RefreshToken(ctx)
		require.NoError(t, err)
		require.Equal(t, "refresh2", refresh)
	})

	t.Run("user info carries the tenant ids", func(t *testing.T) {
		tokens := tokenstore.NewTokens(memstore.New(tokenstore.DefaultPolicy()))
		in := &users.UserInfo{Email: "a@example.com", MerchantID: "m1", ProfileID: "p1"}
		require.NoError(t, tokens.SetUserInfo(ctx, in))

		out, err := tokens.UserInfo(ctx)
		require.NoError(t, err)
		require.Equal(t, in, out)

		merchant, err := tokens.MerchantID(ctx)
		require.NoError(t, err)
		require.Equal(t, "m1", merchant)

		org, err := tokens.OrgID(ctx)
		require.NoError(t, err)
		require.Empty(t, org)
	})
}
