package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/multipaga/internal/errors"
	"github.com/jrsteele09/multipaga/tokenstore"
	"github.com/jrsteele09/multipaga/tokenstore/filestore"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T, opts ...filestore.Option) *filestore.FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	return filestore.New(path, tokenstore.DefaultPolicy(), opts...)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("persists across instances", func(t *testing.T) {
		s := setupStore(t)
		require.NoError(t, s.Set(ctx, tokenstore.AuthToken, "tok"))
		require.NoError(t, s.Set(ctx, tokenstore.UserInfo, `{"email":"a@example.com"}`))

		reopened := filestore.New(s.Path(), tokenstore.DefaultPolicy())
		v, err := reopened.Get(ctx, tokenstore.UserInfo)
		require.NoError(t, err)
		require.Equal(t, `{"email":"a@example.com"}`, v)
	})

	t.Run("file is private to its owner", func(t *testing.T) {
		s := setupStore(t)
		require.NoError(t, s.Set(ctx, tokenstore.AuthToken, "tok"))

		info, err := os.Stat(s.Path())
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("missing file reads as empty", func(t *testing.T) {
		s := setupStore(t)
		_, err := s.Get(ctx, tokenstore.AuthToken)
		require.True(t, errors.Is(err, errors.ErrNotFound))
		require.NoError(t, s.Delete(ctx, tokenstore.AuthToken))
		require.NoError(t, s.Clear(ctx))
	})

	t.Run("clear removes the file", func(t *testing.T) {
		s := setupStore(t)
		require.NoError(t, s.Set(ctx, tokenstore.TwoFAToken, "2fa"))
		require.NoError(t, s.Clear(ctx))
		_, err := os.Stat(s.Path())
		require.True(t, os.IsNotExist(err))
	})

	t.Run("expired slots are dropped", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		s := setupStore(t, filestore.WithNowTime(func() time.Time { return now }))
		require.NoError(t, s.Set(ctx, tokenstore.MerchantID, "m1"))

		now = now.Add(tokenstore.DefaultExpiry - time.Minute)
		_, err := s.Get(ctx, tokenstore.MerchantID)
		require.NoError(t, err)

		now = now.Add(tokenstore.DefaultExpiry)
		_, err = s.Get(ctx, tokenstore.MerchantID)
		require.True(t, errors.Is(err, errors.ErrNotFound))
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		s := setupStore(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o700))
		require.NoError(t, os.WriteFile(s.Path(), []byte("slots: [unterminated"), 0o600))
		_, err := s.Get(ctx, tokenstore.AuthToken)
		require.Error(t, err)
	})
}
