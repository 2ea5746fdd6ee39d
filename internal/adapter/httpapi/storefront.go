package httpapi

import (
	"net/http"

	"github.com/example/zari-storefront/internal/cart"
	"github.com/example/zari-storefront/internal/delivery"
	"github.com/example/zari-storefront/internal/domain"
	"github.com/gorilla/mux"
)

type cartResponse struct {
	Lines    []domain.CartLine `json:"lines"`
	Subtotal int64             `json:"subtotal"`
}

func newCartResponse(lines []domain.CartLine) cartResponse {
	return cartResponse{Lines: lines, Subtotal: cart.Subtotal(lines)}
}

type stateResponse struct {
	ClientID string            `json:"client_id"`
	Cart     []domain.CartLine `json:"cart"`
	Subtotal int64             `json:"subtotal"`
	Wishlist []string          `json:"wishlist"`
	Locale   domain.Locale     `json:"locale"`
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	out := make([]delivery.Region, 0)
	for _, id := range s.Table.Regions() {
		if reg, ok := s.Table.Region(id); ok {
			out = append(out, reg)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSubRegions(w http.ResponseWriter, r *http.Request) {
	subs := s.Table.SubRegions(mux.Vars(r)["region"])
	if subs == nil {
		s.writeError(w, r, domain.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.State.Load(r.Context(), clientID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{
		ClientID: clientID(r),
		Cart:     snap.Cart,
		Subtotal: cart.Subtotal(snap.Cart),
		Wishlist: snap.Wishlist,
		Locale:   snap.Locale,
	})
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := decodeBody(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	lines, err := s.State.UpdateCart(r.Context(), clientID(r), func(c *cart.Cart) error {
		_, err := c.Add(p)
		return err
	})
	s.writeResult(w, r, newCartResponse(lines), err)
}

func (s *Server) handleIncrement(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	lines, err := s.State.UpdateCart(r.Context(), clientID(r), func(c *cart.Cart) error {
		return c.Increment(id)
	})
	s.writeResult(w, r, newCartResponse(lines), err)
}

func (s *Server) handleDecrement(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	lines, err := s.State.UpdateCart(r.Context(), clientID(r), func(c *cart.Cart) error {
		_, err := c.Decrement(id)
		return err
	})
	s.writeResult(w, r, newCartResponse(lines), err)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	lines, err := s.State.UpdateCart(r.Context(), clientID(r), func(c *cart.Cart) error {
		if !c.Remove(id) {
			return domain.ErrNotFound
		}
		return nil
	})
	s.writeResult(w, r, newCartResponse(lines), err)
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

// handleClearCart empties the cart and resets an open checkout to step 1.
func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Checkout.ClearOrder(r.Context(), clientID(r), req.Confirm); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse([]domain.CartLine{}))
}

type wishlistResponse struct {
	ProductID string   `json:"product_id"`
	Wished    bool     `json:"wished"`
	Wishlist  []string `json:"wishlist"`
}

func (s *Server) handleToggleWishlist(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	wished, list, err := s.State.ToggleWishlist(r.Context(), clientID(r), id)
	s.writeResult(w, r, wishlistResponse{ProductID: id, Wished: wished, Wishlist: list}, err)
}

type localeRequest struct {
	Locale domain.Locale `json:"locale"`
}

func (s *Server) handleSetLocale(w http.ResponseWriter, r *http.Request) {
	var req localeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Locale == "" {
		s.writeError(w, r, required("locale"))
		return
	}
	err := s.State.SetLocale(r.Context(), clientID(r), req.Locale)
	s.writeResult(w, r, req, err)
}
