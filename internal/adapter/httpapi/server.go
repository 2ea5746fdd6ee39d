package httpapi

import (
	"net/http"

	"github.com/example/zari-storefront/internal/clientstate"
	"github.com/example/zari-storefront/internal/delivery"
	"github.com/example/zari-storefront/internal/logger"
	"github.com/example/zari-storefront/internal/usecase"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Server — HTTP API витрины: корзина, оформление заказа, расшифровка чеков.
type Server struct {
	Router   *mux.Router
	State    *clientstate.Service
	Checkout *usecase.Checkout
	Decode   usecase.DecodeReceipt
	Table    *delivery.Table
	Log      *zap.Logger

	lockout *lockout
}

// Deps lists what NewServer wires into the routes. WebDir, when set, is
// served at the root.
type Deps struct {
	State    *clientstate.Service
	Checkout *usecase.Checkout
	Decode   usecase.DecodeReceipt
	Table    *delivery.Table
	Log      *zap.Logger
	WebDir   string
}

func NewServer(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		Router:   mux.NewRouter(),
		State:    d.State,
		Checkout: d.Checkout,
		Decode:   d.Decode,
		Table:    d.Table,
		Log:      log,
		lockout:  newLockout(),
	}
	s.Router.Use(logger.Middleware(log))

	api := s.Router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/regions", s.handleRegions).Methods(http.MethodGet)
	api.HandleFunc("/regions/{region}", s.handleSubRegions).Methods(http.MethodGet)
	api.HandleFunc("/admin/decode", s.handleAdminDecode).Methods(http.MethodPost)

	client := api.NewRoute().Subrouter()
	client.Use(clientIDMiddleware)
	client.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	client.HandleFunc("/cart/items", s.handleAddItem).Methods(http.MethodPost)
	client.HandleFunc("/cart/items/{id}/increment", s.handleIncrement).Methods(http.MethodPost)
	client.HandleFunc("/cart/items/{id}/decrement", s.handleDecrement).Methods(http.MethodPost)
	client.HandleFunc("/cart/items/{id}", s.handleRemoveItem).Methods(http.MethodDelete)
	client.HandleFunc("/cart/clear", s.handleClearCart).Methods(http.MethodPost)
	client.HandleFunc("/wishlist/{id}", s.handleToggleWishlist).Methods(http.MethodPost)
	client.HandleFunc("/locale", s.handleSetLocale).Methods(http.MethodPut)

	client.HandleFunc("/checkout", s.handleOpenCheckout).Methods(http.MethodPost)
	client.HandleFunc("/checkout", s.handleGetCheckout).Methods(http.MethodGet)
	client.HandleFunc("/checkout/method", s.handleSelectMethod).Methods(http.MethodPut)
	client.HandleFunc("/checkout/details", s.handleUpdateDetails).Methods(http.MethodPut)
	client.HandleFunc("/checkout/location", s.handleSetLocation).Methods(http.MethodPut)
	client.HandleFunc("/checkout/next", s.handleNext).Methods(http.MethodPost)
	client.HandleFunc("/checkout/back", s.handleBack).Methods(http.MethodPost)
	client.HandleFunc("/checkout/close", s.handleCloseCheckout).Methods(http.MethodPost)
	client.HandleFunc("/checkout/verification/request", s.handleRequestCode).Methods(http.MethodPost)
	client.HandleFunc("/checkout/verification/confirm", s.handleConfirmCode).Methods(http.MethodPost)

	if d.WebDir != "" {
		s.Router.PathPrefix("/").Handler(http.FileServer(http.Dir(d.WebDir)))
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
