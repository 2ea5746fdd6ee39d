package clientstate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/zari-storefront/internal/adapter/cache"
	"github.com/example/zari-storefront/internal/cart"
	"github.com/example/zari-storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	oud  = domain.Product{ID: "p1", NameEn: "Oud Royal", NameAr: "عود رويال", UnitPrice: 100}
	musk = domain.Product{ID: "p2", NameEn: "White Musk", UnitPrice: 50}
)

type failingStore struct {
	domain.StateStore
	err error
}

func (f failingStore) Save(context.Context, string, string, []byte) error { return f.err }

// ctxStore fails reads once the caller's context is done.
type ctxStore struct {
	domain.StateStore
}

func (c ctxStore) Load(ctx context.Context, clientID, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.StateStore.Load(ctx, clientID, key)
}

func add(p domain.Product) func(*cart.Cart) error {
	return func(c *cart.Cart) error {
		_, err := c.Add(p)
		return err
	}
}

func TestLoad_Defaults(t *testing.T) {
	svc := NewService(cache.NewMemoryStateStore(), nil)
	snap, err := svc.Load(context.Background(), "c1")
	require.NoError(t, err)
	assert.Empty(t, snap.Cart)
	assert.NotNil(t, snap.Cart)
	assert.Empty(t, snap.Wishlist)
	assert.Equal(t, domain.LocaleEN, snap.Locale)
}

func TestLoad_RequiresClient(t *testing.T) {
	svc := NewService(cache.NewMemoryStateStore(), nil)
	_, err := svc.Load(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestLoad_DetachedFromCallerCancel(t *testing.T) {
	store := cache.NewMemoryStateStore()
	_, err := NewService(store, nil).UpdateCart(context.Background(), "c1", add(oud))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	lines, err := NewService(ctxStore{store}, nil).Cart(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "p1", lines[0].ProductID)
}

func TestUpdateCart_Persists(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStateStore()
	svc := NewService(store, nil)

	_, err := svc.UpdateCart(ctx, "c1", add(oud))
	require.NoError(t, err)
	lines, err := svc.UpdateCart(ctx, "c1", func(c *cart.Cart) error { return c.Increment("p1") })
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	// A fresh service over the same store sees the same cart.
	got, err := NewService(store, nil).Cart(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, lines, got)
}

func TestUpdateCart_FailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	svc := NewService(cache.NewMemoryStateStore(), nil)
	_, err := svc.UpdateCart(ctx, "c1", add(oud))
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = svc.UpdateCart(ctx, "c1", func(c *cart.Cart) error {
		c.Clear()
		return boom
	})
	assert.ErrorIs(t, err, boom)

	lines, err := svc.Cart(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestUpdateCart_SaveError(t *testing.T) {
	boom := errors.New("disk full")
	svc := NewService(failingStore{StateStore: cache.NewMemoryStateStore(), err: boom}, nil)
	_, err := svc.UpdateCart(context.Background(), "c1", add(oud))
	assert.ErrorIs(t, err, boom)
}

func TestClearCart(t *testing.T) {
	ctx := context.Background()
	svc := NewService(cache.NewMemoryStateStore(), nil)
	_, err := svc.UpdateCart(ctx, "c1", add(oud))
	require.NoError(t, err)
	_, err = svc.UpdateCart(ctx, "c1", add(musk))
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(ctx, "c1"))
	lines, err := svc.Cart(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestToggleWishlist(t *testing.T) {
	ctx := context.Background()
	svc := NewService(cache.NewMemoryStateStore(), nil)

	added, wl, err := svc.ToggleWishlist(ctx, "c1", "p1")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"p1"}, wl)

	_, wl, err = svc.ToggleWishlist(ctx, "c1", "p2")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, wl)

	added, wl, err = svc.ToggleWishlist(ctx, "c1", "p1")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"p2"}, wl)

	_, _, err = svc.ToggleWishlist(ctx, "c1", " ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	snap, err := svc.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, snap.Wishlist)
}

func TestSetLocale(t *testing.T) {
	ctx := context.Background()
	svc := NewService(cache.NewMemoryStateStore(), nil)

	require.NoError(t, svc.SetLocale(ctx, "c1", domain.LocaleAR))
	snap, err := svc.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.LocaleAR, snap.Locale)

	assert.ErrorIs(t, svc.SetLocale(ctx, "c1", "fr"), domain.ErrValidation)
}

func TestLoad_CorruptValuesFallBack(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStateStore()
	require.NoError(t, store.Save(ctx, "c1", domain.KeyCart, []byte("{not json")))
	require.NoError(t, store.Save(ctx, "c1", domain.KeyWishlist, []byte("42")))
	require.NoError(t, store.Save(ctx, "c1", domain.KeyLocale, []byte("xx")))

	snap, err := NewService(store, nil).Load(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, snap.Cart)
	assert.Empty(t, snap.Wishlist)
	assert.Equal(t, domain.LocaleEN, snap.Locale)
}

func TestUpdateCart_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	svc := NewService(cache.NewMemoryStateStore(), nil)
	_, err := svc.UpdateCart(ctx, "c1", add(oud))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.UpdateCart(ctx, "c1", func(c *cart.Cart) error { return c.Increment("p1") })
		}()
	}
	wg.Wait()

	lines, err := svc.Cart(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 21, lines[0].Quantity)
}
