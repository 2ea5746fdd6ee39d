package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/example/zari-storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, ttl), mr
}

func TestStore_RoundTrip(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	_, err := s.Load(ctx, "c1", domain.KeyCart)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Save(ctx, "c1", domain.KeyCart, []byte(`[]`)))
	require.NoError(t, s.Save(ctx, "c1", domain.KeyLocale, []byte("ar")))

	got, err := s.Load(ctx, "c1", domain.KeyLocale)
	require.NoError(t, err)
	assert.Equal(t, "ar", string(got))
	assert.Equal(t, "ar", mr.HGet("client:c1", domain.KeyLocale))
	assert.Zero(t, mr.TTL("client:c1"))

	require.NoError(t, s.Delete(ctx, "c1", domain.KeyLocale))
	_, err = s.Load(ctx, "c1", domain.KeyLocale)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.Load(ctx, "c1", domain.KeyCart)
	assert.NoError(t, err, "other keys of the client survive")
}

func TestStore_TTLRefreshedOnWrite(t *testing.T) {
	s, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "c1", domain.KeyCart, []byte(`[]`)))
	assert.Equal(t, time.Hour, mr.TTL("client:c1"))

	mr.FastForward(2 * time.Hour)
	_, err := s.Load(ctx, "c1", domain.KeyCart)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ServerDown(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := s.Load(context.Background(), "c1", domain.KeyCart)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
