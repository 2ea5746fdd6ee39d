package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/zari-storefront/internal/domain"
)

// Receipts are dated in Gulf Standard Time.
var receiptZone = time.FixedZone("GST", 4*60*60)

const (
	receiptRule      = "---------------------"
	pickupLocation   = "Pickup: Ajman Makhriz Store"
	receiptCurrency  = "AED"
	notApplicable    = "N/A"
	receiptHeader    = "ZARI PERFUMES RECEIPT"
	receiptFooterOne = "AUTHENTICITY GUARANTEED"
	receiptFooterTwo = "Ajman, UAE"
)

// Receipt — документ чека, собираемый при переходе на шаг 3. Не сохраняется.
type Receipt struct {
	IssuedAt     time.Time          `json:"issued_at"`
	Method       Method             `json:"method"`
	Region       string             `json:"region,omitempty"`
	SubRegion    string             `json:"sub_region,omitempty"`
	Phone        string             `json:"phone"`
	Email        string             `json:"email"`
	Street       string             `json:"street,omitempty"`
	Unit         string             `json:"unit,omitempty"`
	PropertyType string             `json:"property_type,omitempty"`
	Additional   string             `json:"additional,omitempty"`
	Coordinates  domain.Coordinates `json:"coordinates"`
	MapsLink     string             `json:"maps_link,omitempty"`
	Lines        []domain.CartLine  `json:"lines"`
	Subtotal     int64              `json:"subtotal"`
	DeliveryFee  int64              `json:"delivery_fee"`
	Total        int64              `json:"total"`
}

// Text renders the receipt deterministically; equal receipts give equal text.
func (r Receipt) Text() string {
	var b strings.Builder
	issued := r.IssuedAt.In(receiptZone)

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line(receiptHeader)
	line(receiptRule)
	line("Date: %s", issued.Format("2006-01-02"))
	line("Time: %s GST", issued.Format("15:04"))
	line("Method: %s", strings.ToUpper(string(r.Method)))
	line("Emirate: %s", orNA(r.Region))
	line("City: %s", orNA(r.SubRegion))
	line("Phone: %s", r.Phone)
	line("Email: %s", r.Email)
	if r.Method == MethodDelivery {
		details := fmt.Sprintf("%s %s, %s", r.PropertyType, r.Unit, r.Street)
		if r.Additional != "" {
			details += ". Info: " + r.Additional
		}
		line("Location Details: %s", strings.TrimSpace(details))
		line("Coordinates: %.6f, %.6f", r.Coordinates.Lat, r.Coordinates.Lng)
		line("Map: %s", r.MapsLink)
	} else {
		line("Location Details: %s", pickupLocation)
	}
	line(receiptRule)
	line("Items:")
	for _, l := range r.Lines {
		line("- %s (x%d) @ %d = %d %s", l.NameEn, l.Quantity, l.UnitPrice, l.LineTotal(), receiptCurrency)
	}
	line(receiptRule)
	line("Subtotal: %d %s", r.Subtotal, receiptCurrency)
	line("Delivery Fee: %d %s", r.DeliveryFee, receiptCurrency)
	line("TOTAL PAYABLE: %d %s", r.Total, receiptCurrency)
	line(receiptRule)
	line(receiptFooterOne)
	line(receiptFooterTwo)
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return notApplicable
	}
	return s
}
