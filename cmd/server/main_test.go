package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/example/zari-storefront/internal/adapter/cache"
	"github.com/example/zari-storefront/internal/adapter/redisstore"
	"github.com/example/zari-storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewStateStore_Memory(t *testing.T) {
	s, closeFn, err := newStateStore(context.Background(), config.Config{}, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &cache.MemoryStateStore{}, s)
}

func TestNewStateStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	s, closeFn, err := newStateStore(context.Background(), config.Config{RedisAddr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &redisstore.Store{}, s)
}

func TestNewGateway(t *testing.T) {
	gw, err := newGateway(config.Config{VerifyProvider: config.ProviderNone}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, gw)

	gw, err = newGateway(config.Config{VerifyProvider: config.ProviderStatic, VerifyStaticCode: "1234"}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, gw)

	_, err = newGateway(config.Config{VerifyProvider: config.ProviderTwilio}, zap.NewNop())
	assert.Error(t, err, "twilio needs credentials")
}

func TestLoadTable(t *testing.T) {
	tbl, err := loadTable("")
	require.NoError(t, err)
	assert.Len(t, tbl.Regions(), 7)

	path := filepath.Join(t.TempDir(), "fees.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- emirate: Dubai\n  cities:\n    Deira: 15\n"), 0o600))
	tbl, err = loadTable(path)
	require.NoError(t, err)
	assert.Equal(t, int64(15), tbl.Fee("Dubai", "Deira"))

	_, err = loadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOptionalAdaptersOff(t *testing.T) {
	assert.Nil(t, newPublisher(config.Config{}, zap.NewNop()))
	assert.Nil(t, newClipboard(config.Config{}, zap.NewNop()))
}
