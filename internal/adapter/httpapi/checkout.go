package httpapi

import (
	"net/http"

	"github.com/example/zari-storefront/internal/domain"
	"github.com/example/zari-storefront/internal/usecase"
)

func (s *Server) handleOpenCheckout(w http.ResponseWriter, r *http.Request) {
	v, err := s.Checkout.Open(r.Context(), clientID(r))
	s.writeResult(w, r, v, err)
}

func (s *Server) handleGetCheckout(w http.ResponseWriter, r *http.Request) {
	v, err := s.Checkout.Get(r.Context(), clientID(r))
	s.writeResult(w, r, v, err)
}

func (s *Server) handleSelectMethod(w http.ResponseWriter, r *http.Request) {
	var in usecase.MethodInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.Checkout.SelectMethod(r.Context(), clientID(r), in)
	s.writeResult(w, r, v, err)
}

func (s *Server) handleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	var in usecase.DetailsInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.Checkout.UpdateDetails(r.Context(), clientID(r), in)
	s.writeResult(w, r, v, err)
}

func (s *Server) handleSetLocation(w http.ResponseWriter, r *http.Request) {
	var in domain.Coordinates
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.Checkout.SetLocation(r.Context(), clientID(r), in.Lat, in.Lng)
	s.writeResult(w, r, v, err)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	v, err := s.Checkout.Next(r.Context(), clientID(r))
	s.writeResult(w, r, v, err)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	v, err := s.Checkout.Back(r.Context(), clientID(r))
	s.writeResult(w, r, v, err)
}

func (s *Server) handleCloseCheckout(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Checkout.Close(r.Context(), clientID(r), req.Confirm); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRequestCode(w http.ResponseWriter, r *http.Request) {
	v, err := s.Checkout.RequestCode(r.Context(), clientID(r))
	s.writeResult(w, r, v, err)
}

type confirmCodeRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleConfirmCode(w http.ResponseWriter, r *http.Request) {
	var req confirmCodeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.Checkout.ConfirmCode(r.Context(), clientID(r), req.Code)
	s.writeResult(w, r, v, err)
}
