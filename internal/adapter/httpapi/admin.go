package httpapi

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/example/zari-storefront/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// AdminPasswordHeader carries the operator password for /api/admin/decode.
const AdminPasswordHeader = "X-Admin-Password"

const (
	lockoutBurst     = 5
	lockoutRefill    = time.Minute
	lockoutMaxLimits = 4096
)

// lockout budgets wrong admin passwords per remote address: a few attempts,
// then one more per lockoutRefill.
type lockout struct {
	mu  sync.Mutex
	ips map[string]*attempts
}

// attempts serializes the checks of one address, so the budget is spent
// before the next attempt looks at it.
type attempts struct {
	mu  sync.Mutex
	lim *rate.Limiter
}

func newLockout() *lockout {
	return &lockout{ips: make(map[string]*attempts)}
}

func (l *lockout) forIP(ip string) *attempts {
	l.mu.Lock()
	defer l.mu.Unlock()
	if a, ok := l.ips[ip]; ok {
		return a
	}
	if len(l.ips) >= lockoutMaxLimits {
		for k, a := range l.ips {
			if a.lim.Tokens() >= lockoutBurst {
				delete(l.ips, k)
			}
		}
	}
	a := &attempts{lim: rate.NewLimiter(rate.Every(lockoutRefill), lockoutBurst)}
	l.ips[ip] = a
	return a
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type decodeRequest struct {
	Token string `json:"token"`
}

type decodeResponse struct {
	Receipt string `json:"receipt"`
}

func (s *Server) handleAdminDecode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	a := s.lockout.forIP(remoteIP(r))
	a.mu.Lock()
	if a.lim.Tokens() < 1 {
		a.mu.Unlock()
		w.Header().Set("Retry-After", strconv.Itoa(int(lockoutRefill.Seconds())))
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many failed attempts"})
		return
	}
	plain, err := s.Decode.Execute(r.Header.Get(AdminPasswordHeader), req.Token)
	if errors.Is(err, domain.ErrUnauthorized) {
		a.lim.Allow()
	}
	a.mu.Unlock()

	if errors.Is(err, domain.ErrUnauthorized) {
		s.Log.Warn("admin decode rejected", zap.String("ip", remoteIP(r)))
	}
	s.writeResult(w, r, decodeResponse{Receipt: plain}, err)
}
