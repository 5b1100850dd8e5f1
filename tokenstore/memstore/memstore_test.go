package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/multipaga/internal/errors"
	"github.com/jrsteele09/multipaga/tokenstore"
	"github.com/jrsteele09/multipaga/tokenstore/memstore"
	"github.com/stretchr/testify/require"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func TestMemStore(t *testing.T) {
	ctx := context.Background()

	t.Run("set, get, delete", func(t *testing.T) {
		s := memstore.New(tokenstore.DefaultPolicy())
		require.NoError(t, s.Set(ctx, tokenstore.AuthToken, "abc"))

		v, err := s.Get(ctx, tokenstore.AuthToken)
		require.NoError(t, err)
		require.Equal(t, "abc", v)

		require.NoError(t, s.Delete(ctx, tokenstore.AuthToken))
		_, err = s.Get(ctx, tokenstore.AuthToken)
		require.True(t, errors.Is(err, errors.ErrNotFound))
	})

	t.Run("clear removes every slot", func(t *testing.T) {
		s := memstore.New(tokenstore.DefaultPolicy())
		for _, slot := range tokenstore.Slots() {
			require.NoError(t, s.Set(ctx, slot, "v"))
		}
		require.Equal(t, len(tokenstore.Slots()), s.Len())
		require.NoError(t, s.Clear(ctx))
		require.Zero(t, s.Len())
	})

	t.Run("expiry slides on access", func(t *testing.T) {
		c := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
		s := memstore.New(tokenstore.Policy{Expiry: time.Hour}, memstore.WithNowTime(c.Now))
		require.NoError(t, s.Set(ctx, tokenstore.MerchantID, "m1"))

		c.now = c.now.Add(50 * time.Minute)
		_, err := s.Get(ctx, tokenstore.MerchantID)
		require.NoError(t, err)

		c.now = c.now.Add(50 * time.Minute)
		v, err := s.Get(ctx, tokenstore.MerchantID)
		require.NoError(t, err)
		require.Equal(t, "m1", v)

		c.now = c.now.Add(61 * time.Minute)
		_, err = s.Get(ctx, tokenstore.MerchantID)
		require.True(t, errors.Is(err, errors.ErrNotFound))
	})
}
