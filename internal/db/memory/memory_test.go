package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/satlens/internal/db"
)

func TestStore_QuotaCountsOtherKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(8)

	require.NoError(t, s.Set(ctx, "a", []byte("1234")))
	require.NoError(t, s.Set(ctx, "b", []byte("1234")))

	err := s.Set(ctx, "c", []byte("1"))
	assert.True(t, db.IsQuotaError(err))

	require.NoError(t, s.Set(ctx, "a", []byte("")))
	require.NoError(t, s.Set(ctx, "c", []byte("1234")))
}

func TestStore_Unavailable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(0)
	s.SetAvailable(false)

	_, err := s.Get(ctx, "a")
	require.ErrorIs(t, err, db.ErrUnavailable)
	require.ErrorIs(t, s.Set(ctx, "a", nil), db.ErrUnavailable)
	require.ErrorIs(t, s.Ping(ctx), db.ErrUnavailable)
}

func TestStore_FailSetHook(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(0)
	boom := errors.New("boom")
	s.FailSet = func(key string, _ []byte) error {
		if key == "bad" {
			return boom
		}
		return nil
	}

	require.ErrorIs(t, s.Set(ctx, "bad", []byte("x")), boom)
	require.NoError(t, s.Set(ctx, "good", []byte("x")))
}

func TestStore_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(0)
	require.NoError(t, s.Set(ctx, "k", []byte("abc")))

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	v[0] = 'z'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}
