// Package contact normalizes and validates customer phone numbers and e-mail addresses.
package contact

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// DefaultCountryCode is prepended to numbers entered without one.
const DefaultCountryCode = "971"

// SubscriberDigits is the length of the national part after the country code.
const SubscriberDigits = 9

var validate = validator.New()

// NormalizePhone returns raw in "+<cc><9 digits>" form. Formatting characters
// are dropped; a "+" or "00" prefix, or a bare "<cc>" prefix, keeps the number's
// own country code, otherwise a single local trunk "0" is dropped and cc is
// prepended.
func NormalizePhone(raw, cc string) (string, error) {
	if cc == "" {
		cc = DefaultCountryCode
	}
	raw = strings.TrimSpace(raw)
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, raw)
	if digits == "" {
		return "", fmt.Errorf("phone number is empty")
	}

	var normalized string
	switch {
	case strings.HasPrefix(raw, "+"):
		normalized = "+" + digits
	case strings.HasPrefix(digits, "00"):
		normalized = "+" + digits[2:]
	case strings.HasPrefix(digits, cc) && len(digits) == len(cc)+SubscriberDigits:
		normalized = "+" + digits
	default:
		normalized = "+" + cc + strings.TrimPrefix(digits, "0")
	}

	want := "+" + cc
	if !strings.HasPrefix(normalized, want) || len(normalized) != len(want)+SubscriberDigits {
		return "", fmt.Errorf("phone number must be %d digits after +%s", SubscriberDigits, cc)
	}
	if err := validate.Var(normalized, "e164"); err != nil {
		return "", fmt.Errorf("phone number is not a valid international number")
	}
	return normalized, nil
}

// ValidateEmail reports whether addr looks like a deliverable address.
func ValidateEmail(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return fmt.Errorf("email is empty")
	}
	if err := validate.Var(addr, "email"); err != nil {
		return fmt.Errorf("email address is malformed")
	}
	return nil
}
