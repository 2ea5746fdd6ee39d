// Package verify wraps an external one-time-passcode provider behind a
// request/confirm handshake with a local per-number cooldown.
package verify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/zari-storefront/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultCooldown is the wait between two code requests for the same number.
const DefaultCooldown = 120 * time.Second

const pruneThreshold = 1024

// Provider is the external OTP capability. Check returns nil only when the
// code is approved for handle.
type Provider interface {
	Send(ctx context.Context, phone string) (handle string, err error)
	Check(ctx context.Context, handle, phone, code string) error
}

// Pending — отправленный, но ещё не подтверждённый код.
type Pending struct {
	Handle string    `json:"handle"`
	Phone  string    `json:"phone"`
	SentAt time.Time `json:"sent_at"`
}

// Verified — номер, владение которым подтверждено.
type Verified struct {
	Phone string    `json:"phone"`
	At    time.Time `json:"verified_at"`
}

// CooldownError carries how long the caller must wait; it matches domain.ErrCooldown.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s (retry in %s)", domain.ErrCooldown, e.RetryAfter.Round(time.Second))
}

func (e *CooldownError) Is(target error) bool { return target == domain.ErrCooldown }

// Gateway never retries on its own; every retry is a new caller request.
type Gateway struct {
	provider Provider
	cooldown time.Duration
	now      func() time.Time
	log      *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewGateway(p Provider, cooldown time.Duration, log *zap.Logger) *Gateway {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		provider: p,
		cooldown: cooldown,
		now:      time.Now,
		log:      log,
		limiters: make(map[string]*rate.Limiter),
	}
}

// WithClock replaces the time source; used by tests.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// RequestCode asks the provider to send a code to the normalized phone.
// Inside the cooldown window the provider is not contacted.
func (g *Gateway) RequestCode(ctx context.Context, phone string) (Pending, error) {
	now := g.now()
	res := g.limiter(phone, now).ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return Pending{}, &CooldownError{RetryAfter: delay}
	}

	handle, err := g.provider.Send(ctx, phone)
	if err != nil {
		// a failed send does not consume the window
		res.CancelAt(now)
		g.log.Warn("verification send failed", zap.String("phone", mask(phone)), zap.Error(err))
		return Pending{}, fmt.Errorf("%w: could not send code: %v", domain.ErrVerificationFailed, err)
	}
	g.log.Info("verification code sent", zap.String("phone", mask(phone)))
	return Pending{Handle: handle, Phone: phone, SentAt: now}, nil
}

// ConfirmCode checks code against a pending verification. Wrong or expired
// codes are recoverable: the caller may request a fresh code.
func (g *Gateway) ConfirmCode(ctx context.Context, p Pending, code string) (Verified, error) {
	if p.Handle == "" || p.Phone == "" {
		return Verified{}, fmt.Errorf("%w: no code was requested", domain.ErrVerificationFailed)
	}
	if !validCode(code) {
		return Verified{}, fmt.Errorf("%w: code must be 4 to 10 digits", domain.ErrVerificationFailed)
	}
	if err := g.provider.Check(ctx, p.Handle, p.Phone, code); err != nil {
		g.log.Info("verification rejected", zap.String("phone", mask(p.Phone)), zap.Error(err))
		if errors.Is(err, domain.ErrVerificationFailed) {
			return Verified{}, err
		}
		return Verified{}, fmt.Errorf("%w: %v", domain.ErrVerificationFailed, err)
	}
	return Verified{Phone: p.Phone, At: g.now()}, nil
}

func (g *Gateway) limiter(phone string, now time.Time) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	if l, ok := g.limiters[phone]; ok {
		return l
	}
	if len(g.limiters) >= pruneThreshold {
		for k, l := range g.limiters {
			if l.TokensAt(now) >= 1 {
				delete(g.limiters, k)
			}
		}
	}
	l := rate.NewLimiter(rate.Every(g.cooldown), 1)
	g.limiters[phone] = l
	return l
}

func validCode(code string) bool {
	if len(code) < 4 || len(code) > 10 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func mask(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return phone[:len(phone)-4] + "****"
}
