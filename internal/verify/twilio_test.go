package verify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/zari-storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTwilio(t *testing.T, h http.HandlerFunc) *Twilio {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	tw, err := NewTwilio("AC123", "token", "VA123")
	require.NoError(t, err)
	tw.baseURL = srv.URL
	return tw
}

func TestTwilio_SendAndCheck(t *testing.T) {
	tw := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "token", pass)
		assert.NoError(t, r.ParseForm())

		switch r.URL.Path {
		case "/Services/VA123/Verifications":
			assert.Equal(t, "+971501234567", r.PostForm.Get("To"))
			assert.Equal(t, "sms", r.PostForm.Get("Channel"))
			_, _ = w.Write([]byte(`{"sid":"VE1","status":"pending"}`))
		case "/Services/VA123/VerificationCheck":
			assert.Equal(t, "VE1", r.PostForm.Get("VerificationSid"))
			status := "pending"
			if r.PostForm.Get("Code") == "123456" {
				status = "approved"
			}
			_, _ = w.Write([]byte(`{"sid":"VE1","status":"` + status + `"}`))
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()
	handle, err := tw.Send(ctx, "+971501234567")
	require.NoError(t, err)
	assert.Equal(t, "VE1", handle)

	assert.ErrorIs(t, tw.Check(ctx, handle, "+971501234567", "000000"), domain.ErrVerificationFailed)
	assert.NoError(t, tw.Check(ctx, handle, "+971501234567", "123456"))
}

func TestTwilio_ExpiredVerification(t *testing.T) {
	tw := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":20404}`, http.StatusNotFound)
	})
	err := tw.Check(context.Background(), "VE1", "+971501234567", "123456")
	assert.ErrorIs(t, err, domain.ErrVerificationFailed)
}

func TestTwilio_ServerErrorTripsBreaker(t *testing.T) {
	calls := 0
	tw := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	for i := 0; i < 5; i++ {
		_, err := tw.Send(context.Background(), "+971501234567")
		require.Error(t, err)
	}
	_, err := tw.Send(context.Background(), "+971501234567")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
	assert.Equal(t, 5, calls)
}

func TestNewTwilio_RequiresCredentials(t *testing.T) {
	_, err := NewTwilio("", "t", "s")
	assert.Error(t, err)
	_, err = NewTwilio("a", "", "s")
	assert.Error(t, err)
	_, err = NewTwilio("a", "t", "")
	assert.Error(t, err)
}
