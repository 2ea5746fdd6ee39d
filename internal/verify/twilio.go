package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/zari-storefront/internal/domain"
	"github.com/sony/gobreaker/v2"
)

const twilioVerifyURL = "https://verify.twilio.com/v2"

type twilioVerification struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
	// set when the API answered with a client error
	rejected bool
	message  string
}

// Twilio talks to the Twilio Verify v2 API. Transport errors and 5xx answers
// count towards the circuit breaker; rejected codes do not.
type Twilio struct {
	accountSID string
	authToken  string
	serviceSID string
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[twilioVerification]
}

func NewTwilio(accountSID, authToken, serviceSID string) (*Twilio, error) {
	if accountSID == "" {
		return nil, fmt.Errorf("TWILIO_ACCOUNT_SID not set")
	}
	if authToken == "" {
		return nil, fmt.Errorf("TWILIO_AUTH_TOKEN not set")
	}
	if serviceSID == "" {
		return nil, fmt.Errorf("TWILIO_VERIFY_SERVICE_SID not set")
	}
	return &Twilio{
		accountSID: accountSID,
		authToken:  authToken,
		serviceSID: serviceSID,
		baseURL:    twilioVerifyURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cb: gobreaker.NewCircuitBreaker[twilioVerification](gobreaker.Settings{
			Name:    "twilio-verify",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
	}, nil
}

func (t *Twilio) Send(ctx context.Context, phone string) (string, error) {
	form := url.Values{}
	form.Set("To", phone)
	form.Set("Channel", "sms")

	v, err := t.call(ctx, "Verifications", form)
	if err != nil {
		return "", err
	}
	if v.rejected {
		return "", fmt.Errorf("twilio rejected verification: %s", v.message)
	}
	return v.SID, nil
}

func (t *Twilio) Check(ctx context.Context, handle, phone, code string) error {
	form := url.Values{"Code": {code}}
	if handle != "" {
		form.Set("VerificationSid", handle)
	} else {
		form.Set("To", phone)
	}

	v, err := t.call(ctx, "VerificationCheck", form)
	if err != nil {
		return err
	}
	if v.rejected {
		return fmt.Errorf("%w: code expired or unknown", domain.ErrVerificationFailed)
	}
	if v.Status != "approved" {
		return fmt.Errorf("%w: invalid code", domain.ErrVerificationFailed)
	}
	return nil
}

func (t *Twilio) call(ctx context.Context, resource string, form url.Values) (twilioVerification, error) {
	v, err := t.cb.Execute(func() (twilioVerification, error) {
		apiURL := fmt.Sprintf("%s/Services/%s/%s", t.baseURL, t.serviceSID, resource)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
		if err != nil {
			return twilioVerification{}, fmt.Errorf("failed to create request: %w", err)
		}
		req.SetBasicAuth(t.accountSID, t.authToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := t.httpClient.Do(req)
		if err != nil {
			return twilioVerification{}, fmt.Errorf("twilio request failed: %w", err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		switch {
		case resp.StatusCode >= 500:
			return twilioVerification{}, fmt.Errorf("twilio error %s: %s", resp.Status, string(body))
		case resp.StatusCode >= 300:
			return twilioVerification{rejected: true, message: resp.Status}, nil
		}
		var out twilioVerification
		if err := json.Unmarshal(body, &out); err != nil {
			return twilioVerification{}, fmt.Errorf("decode twilio response: %w", err)
		}
		return out, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return twilioVerification{}, fmt.Errorf("verification provider unavailable: %w", err)
	}
	return v, err
}

var _ Provider = (*Twilio)(nil)
