package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/zari-storefront/internal/checkout"
	"github.com/example/zari-storefront/internal/clientstate"
	"github.com/example/zari-storefront/internal/domain"
	"github.com/example/zari-storefront/internal/verify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const publishTimeout = 3 * time.Second

// MethodInput — выбор на шаге 1.
type MethodInput struct {
	Method    checkout.Method `json:"method"`
	Region    string          `json:"region"`
	SubRegion string          `json:"sub_region"`
}

// DetailsInput — поля шага 2.
type DetailsInput struct {
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Street       string `json:"street"`
	Unit         string `json:"unit"`
	PropertyType string `json:"property_type"`
	Additional   string `json:"additional"`
}

type openSession struct {
	mu       sync.Mutex
	s        *checkout.Session
	lastUsed time.Time
}

// Checkout — оформление заказа: по одному открытому мастеру на клиента.
type Checkout struct {
	State     *clientstate.Service
	Config    *checkout.Config
	Gateway   *verify.Gateway          // nil when verification is not configured
	Publisher domain.HandoffPublisher // nil when there is no operator feed
	// IdleTTL drops sessions untouched for longer; zero keeps them.
	IdleTTL time.Duration
	Log     *zap.Logger

	mu       sync.Mutex
	sessions map[string]*openSession
}

func NewCheckout(state *clientstate.Service, cfg *checkout.Config, gw *verify.Gateway, pub domain.HandoffPublisher, log *zap.Logger) (*Checkout, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Log == nil {
		cfg.Log = log
	}
	return &Checkout{
		State:     state,
		Config:    cfg,
		Gateway:   gw,
		Publisher: pub,
		Log:       log,
		sessions:  make(map[string]*openSession),
	}, nil
}

// Open starts a checkout for the client, or returns the one already open.
// An empty cart cannot be checked out.
func (uc *Checkout) Open(ctx context.Context, clientID string) (checkout.View, error) {
	lines, err := uc.State.Cart(ctx, clientID)
	if err != nil {
		return checkout.View{}, err
	}

	uc.mu.Lock()
	uc.pruneLocked()
	sess, ok := uc.sessions[clientID]
	if !ok {
		if len(lines) == 0 {
			uc.mu.Unlock()
			return checkout.View{}, domain.ErrEmptyCart
		}
		sess = &openSession{s: checkout.NewSession(uuid.NewString(), uc.Config)}
		uc.sessions[clientID] = sess
		uc.Log.Info("checkout opened", zap.String("client_id", clientID), zap.String("session_id", sess.s.ID))
	}
	uc.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastUsed = uc.Config.Now()
	return sess.s.View(lines), nil
}

func (uc *Checkout) Get(ctx context.Context, clientID string) (checkout.View, error) {
	return uc.with(ctx, clientID, func(*checkout.Session, []domain.CartLine) error { return nil })
}

// SelectMethod applies the step 1 choice. Region fields are ignored for pickup.
// A refused choice changes nothing.
func (uc *Checkout) SelectMethod(ctx context.Context, clientID string, in MethodInput) (checkout.View, error) {
	return uc.with(ctx, clientID, func(s *checkout.Session, _ []domain.CartLine) error {
		return s.Choose(in.Method, in.Region, in.SubRegion)
	})
}

func (uc *Checkout) UpdateDetails(ctx context.Context, clientID string, in DetailsInput) (checkout.View, error) {
	return uc.with(ctx, clientID, func(s *checkout.Session, _ []domain.CartLine) error {
		if err := s.SetContact(in.Phone, in.Email); err != nil {
			return err
		}
		return s.SetAddress(in.Street, in.Unit, in.PropertyType, in.Additional)
	})
}

// SetLocation pins the delivery point chosen on the map or from geolocation.
func (uc *Checkout) SetLocation(ctx context.Context, clientID string, lat, lng float64) (checkout.View, error) {
	return uc.with(ctx, clientID, func(s *checkout.Session, _ []domain.CartLine) error {
		return s.SetCoordinates(lat, lng)
	})
}

// Next advances the wizard. A newly issued token is also published to the
// operator feed; a failed publish is only logged. Re-issuing an unchanged
// receipt publishes nothing.
func (uc *Checkout) Next(ctx context.Context, clientID string) (checkout.View, error) {
	var token string
	v, err := uc.with(ctx, clientID, func(s *checkout.Session, lines []domain.CartLine) error {
		prev := s.Issued()
		st, err := s.Next(lines)
		if err != nil {
			return err
		}
		r, ok := st.(checkout.ReceiptReady)
		if !ok {
			return nil
		}
		if r.Token == prev {
			uc.Log.Info("receipt unchanged", zap.String("client_id", clientID), zap.String("session_id", s.ID))
			return nil
		}
		token = r.Token
		uc.Log.Info("receipt issued", zap.String("client_id", clientID), zap.String("session_id", s.ID),
			zap.Int64("total", r.Receipt.Total))
		return nil
	})
	if err == nil && token != "" {
		uc.publish(ctx, token)
	}
	return v, err
}

func (uc *Checkout) Back(ctx context.Context, clientID string) (checkout.View, error) {
	return uc.with(ctx, clientID, func(s *checkout.Session, _ []domain.CartLine) error {
		s.Back()
		return nil
	})
}

// Close abandons the checkout and keeps the cart.
func (uc *Checkout) Close(_ context.Context, clientID string, confirm bool) error {
	if !confirm {
		return domain.ErrConfirmationRequired
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if _, ok := uc.sessions[clientID]; !ok {
		return domain.ErrNoSession
	}
	delete(uc.sessions, clientID)
	uc.Log.Info("checkout closed", zap.String("client_id", clientID))
	return nil
}

// ClearOrder empties the cart and returns an open checkout to step 1.
// It works without an open checkout too.
func (uc *Checkout) ClearOrder(ctx context.Context, clientID string, confirm bool) error {
	if !confirm {
		return domain.ErrConfirmationRequired
	}
	if err := uc.State.ClearCart(ctx, clientID); err != nil {
		return err
	}
	if sess := uc.lookup(clientID); sess != nil {
		sess.mu.Lock()
		sess.s.Reset()
		sess.mu.Unlock()
	}
	uc.Log.Info("order cleared", zap.String("client_id", clientID))
	return nil
}

// RequestCode sends a one-time code to the phone currently entered at step 2.
// The provider is called without holding the session so the customer can
// keep editing; a result for a phone that changed meanwhile is dropped.
func (uc *Checkout) RequestCode(ctx context.Context, clientID string) (checkout.View, error) {
	if uc.Gateway == nil {
		return checkout.View{}, domain.ErrVerifyUnavailable
	}
	var phone string
	if _, err := uc.with(ctx, clientID, func(s *checkout.Session, _ []domain.CartLine) (err error) {
		phone, err = s.VerificationTarget()
		return err
	}); err != nil {
		return checkout.View{}, err
	}

	p, err := uc.Gateway.RequestCode(ctx, phone)
	if err != nil {
		return checkout.View{}, err
	}

	return uc.with(ctx, clientID, func(s *checkout.Session, _ []domain.CartLine) error {
		if !s.AttachPending(p) {
			uc.Log.Info("discard code for a changed phone", zap.String("session_id", s.ID))
		}
		return nil
	})
}

// ConfirmCode checks the code the customer typed against the pending request.
func (uc *Checkout) ConfirmCode(ctx context.Context, clientID, code string) (checkout.View, error) {
	if uc.Gateway == nil {
		return checkout.View{}, domain.ErrVerifyUnavailable
	}
	var pending verify.Pending
	if _, err := uc.with(ctx, clientID, func(s *checkout.Session, _ []domain.CartLine) error {
		if err := uc.requireDetailsStep(s); err != nil {
			return err
		}
		p, ok := s.Pending()
		if !ok {
			return fmt.Errorf("%w: request a code first", domain.ErrVerificationFailed)
		}
		pending = p
		return nil
	}); err != nil {
		return checkout.View{}, err
	}

	v, err := uc.Gateway.ConfirmCode(ctx, pending, code)
	if err != nil {
		return checkout.View{}, err
	}

	return uc.with(ctx, clientID, func(s *checkout.Session, _ []domain.CartLine) error {
		if !s.MarkVerified(v) {
			uc.Log.Info("discard confirmation for a changed phone", zap.String("session_id", s.ID))
		}
		return nil
	})
}

func (uc *Checkout) requireDetailsStep(s *checkout.Session) error {
	if s.Step() != checkout.StepDetailsCapture {
		return fmt.Errorf("%w: verification happens at %s", domain.ErrWrongStep, checkout.StepDetailsCapture)
	}
	return nil
}

// with runs fn on the client's session under its lock and returns the
// resulting view, also when fn refused the change.
func (uc *Checkout) with(ctx context.Context, clientID string, fn func(*checkout.Session, []domain.CartLine) error) (checkout.View, error) {
	sess := uc.lookup(clientID)
	if sess == nil {
		return checkout.View{}, domain.ErrNoSession
	}
	lines, err := uc.State.Cart(ctx, clientID)
	if err != nil {
		return checkout.View{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastUsed = uc.Config.Now()
	err = fn(sess.s, lines)
	return sess.s.View(lines), err
}

func (uc *Checkout) lookup(clientID string) *openSession {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.sessions[clientID]
}

// pruneLocked drops idle sessions. uc.mu must be held.
func (uc *Checkout) pruneLocked() {
	if uc.IdleTTL <= 0 {
		return
	}
	cutoff := uc.Config.Now().Add(-uc.IdleTTL)
	for id, sess := range uc.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		idle := sess.lastUsed.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(uc.sessions, id)
		}
	}
}

func (uc *Checkout) publish(ctx context.Context, token string) {
	if uc.Publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := uc.Publisher.Publish(pubCtx, token); err != nil {
		uc.Log.Warn("publish receipt token", zap.Error(err))
	}
}
