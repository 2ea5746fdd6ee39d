// Package clientstate persists the per-client cart, wishlist and locale
// through a domain.StateStore.
package clientstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
	"sync"

	"github.com/example/zari-storefront/internal/cart"
	"github.com/example/zari-storefront/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const lockStripes = 64

// Snapshot — всё сохранённое состояние клиента.
type Snapshot struct {
	Cart     []domain.CartLine `json:"cart"`
	Wishlist []string          `json:"wishlist"`
	Locale   domain.Locale     `json:"locale"`
}

type Service struct {
	store domain.StateStore
	log   *zap.Logger
	sfg   singleflight.Group
	locks [lockStripes]sync.Mutex
}

func NewService(store domain.StateStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log}
}

// lock serializes read-modify-write cycles of one client.
func (s *Service) lock(clientID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(clientID))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// Load returns the client's state. Keys never written yield their defaults:
// an empty cart, an empty wishlist and English.
func (s *Service) Load(ctx context.Context, clientID string) (Snapshot, error) {
	if clientID == "" {
		return Snapshot{}, domain.ErrNoSession
	}
	v, err, _ := s.sfg.Do(clientID, func() (interface{}, error) {
		// The flight is shared; one caller going away must not fail the rest.
		ctx := context.WithoutCancel(ctx)
		c, err := s.loadCart(ctx, clientID)
		if err != nil {
			return nil, err
		}
		wl, err := s.loadWishlist(ctx, clientID)
		if err != nil {
			return nil, err
		}
		loc, err := s.loadLocale(ctx, clientID)
		if err != nil {
			return nil, err
		}
		return Snapshot{Cart: c.Lines(), Wishlist: wl, Locale: loc}, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	// Concurrent callers share one result; hand each its own slices.
	snap := v.(Snapshot)
	snap.Cart = slices.Clone(snap.Cart)
	snap.Wishlist = slices.Clone(snap.Wishlist)
	return snap, nil
}

// Cart returns only the cart lines.
func (s *Service) Cart(ctx context.Context, clientID string) ([]domain.CartLine, error) {
	snap, err := s.Load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return snap.Cart, nil
}

// UpdateCart applies fn to the stored cart and saves the result. Nothing is
// written when fn fails.
func (s *Service) UpdateCart(ctx context.Context, clientID string, fn func(*cart.Cart) error) ([]domain.CartLine, error) {
	if clientID == "" {
		return nil, domain.ErrNoSession
	}
	defer s.lock(clientID)()

	c, err := s.loadCart(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	if err := s.store.Save(ctx, clientID, domain.KeyCart, raw); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return c.Lines(), nil
}

// ClearCart empties the cart.
func (s *Service) ClearCart(ctx context.Context, clientID string) error {
	if clientID == "" {
		return domain.ErrNoSession
	}
	defer s.lock(clientID)()
	if err := s.store.Delete(ctx, clientID, domain.KeyCart); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// ToggleWishlist adds productID to the wishlist or removes it if present.
// It reports whether the product is now on the list.
func (s *Service) ToggleWishlist(ctx context.Context, clientID, productID string) (bool, []string, error) {
	if clientID == "" {
		return false, nil, domain.ErrNoSession
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		v := &domain.ValidationError{}
		v.Add("product_id", "required")
		return false, nil, v
	}
	defer s.lock(clientID)()

	wl, err := s.loadWishlist(ctx, clientID)
	if err != nil {
		return false, nil, err
	}
	added := true
	for i, id := range wl {
		if id == productID {
			wl = append(wl[:i], wl[i+1:]...)
			added = false
			break
		}
	}
	if added {
		wl = append(wl, productID)
	}
	raw, err := json.Marshal(wl)
	if err != nil {
		return false, nil, fmt.Errorf("encode wishlist: %w", err)
	}
	if err := s.store.Save(ctx, clientID, domain.KeyWishlist, raw); err != nil {
		return false, nil, fmt.Errorf("save wishlist: %w", err)
	}
	return added, wl, nil
}

func (s *Service) SetLocale(ctx context.Context, clientID string, loc domain.Locale) error {
	if clientID == "" {
		return domain.ErrNoSession
	}
	if !loc.Valid() {
		v := &domain.ValidationError{}
		v.Add("locale", fmt.Sprintf("unsupported locale %q", loc))
		return v
	}
	defer s.lock(clientID)()
	if err := s.store.Save(ctx, clientID, domain.KeyLocale, []byte(loc)); err != nil {
		return fmt.Errorf("save locale: %w", err)
	}
	return nil
}

func (s *Service) loadCart(ctx context.Context, clientID string) (*cart.Cart, error) {
	raw, err := s.load(ctx, clientID, domain.KeyCart)
	if err != nil || raw == nil {
		return cart.New(nil), err
	}
	c := cart.New(nil)
	if err := json.Unmarshal(raw, c); err != nil {
		s.log.Warn("discard unreadable cart", zap.String("client_id", clientID), zap.Error(err))
		return cart.New(nil), nil
	}
	return c, nil
}

func (s *Service) loadWishlist(ctx context.Context, clientID string) ([]string, error) {
	raw, err := s.load(ctx, clientID, domain.KeyWishlist)
	if err != nil || raw == nil {
		return []string{}, err
	}
	var wl []string
	if err := json.Unmarshal(raw, &wl); err != nil {
		s.log.Warn("discard unreadable wishlist", zap.String("client_id", clientID), zap.Error(err))
		return []string{}, nil
	}
	if wl == nil {
		wl = []string{}
	}
	return wl, nil
}

func (s *Service) loadLocale(ctx context.Context, clientID string) (domain.Locale, error) {
	raw, err := s.load(ctx, clientID, domain.KeyLocale)
	if err != nil {
		return domain.DefaultLocale, err
	}
	if loc := domain.Locale(raw); loc.Valid() {
		return loc, nil
	}
	return domain.DefaultLocale, nil
}

// load maps ErrNotFound to a nil value.
func (s *Service) load(ctx context.Context, clientID, key string) ([]byte, error) {
	raw, err := s.store.Load(ctx, clientID, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return raw, nil
}
