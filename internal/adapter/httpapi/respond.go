package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/example/zari-storefront/internal/domain"
	"github.com/example/zari-storefront/internal/verify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClientIDHeader identifies the browser whose state a request reads or changes.
const ClientIDHeader = "X-Client-ID"

const maxBodyBytes = 64 << 10

type ctxKey struct{}

type errorBody struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// clientIDMiddleware assigns a fresh id to clients that have none and echoes
// it back so the browser can keep it.
func clientIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(ClientIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(ClientIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func clientID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads a JSON body into dst; malformed input is a validation error.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		v := &domain.ValidationError{}
		v.Add("body", err.Error())
		return v
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrWrongStep), errors.Is(err, domain.ErrConfirmationRequired),
		errors.Is(err, domain.ErrEmptyCart):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCooldown):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrVerifyUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrVerificationFailed), errors.Is(err, domain.ErrNotVerified),
		errors.Is(err, domain.ErrUndecodable):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error(), Fields: domain.InvalidFields(err)}
	if status == http.StatusInternalServerError {
		s.Log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		body = errorBody{Error: "internal error"}
	}
	var cd *verify.CooldownError
	if errors.As(err, &cd) {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(cd.RetryAfter.Seconds()))))
	}
	writeJSON(w, status, body)
}

// writeResult writes v, or err when it is set.
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func required(field string) error {
	v := &domain.ValidationError{}
	v.Add(field, "required")
	return v
}
