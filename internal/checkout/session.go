package checkout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/zari-storefront/internal/cart"
	"github.com/example/zari-storefront/internal/contact"
	"github.com/example/zari-storefront/internal/delivery"
	"github.com/example/zari-storefront/internal/domain"
	"github.com/example/zari-storefront/internal/location"
	"github.com/example/zari-storefront/internal/verify"
	"go.uber.org/zap"
)

// Encoder turns receipt text into an opaque token.
type Encoder interface {
	Encode(plain string) string
}

// Config is shared by every session of a process.
type Config struct {
	Table       *delivery.Table
	Codec       Encoder
	Clipboard   domain.Clipboard
	Clock       func() time.Time
	CountryCode string
	// RequireVerification gates step 2 on a confirmed phone number.
	RequireVerification bool
	Log                 *zap.Logger
}

// Validate checks the collaborators every session relies on.
func (c *Config) Validate() error {
	if c.Table == nil {
		return errors.New("checkout: delivery table is required")
	}
	if c.Codec == nil {
		return errors.New("checkout: receipt codec is required")
	}
	return nil
}

func (c *Config) Now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

func (c *Config) logger() *zap.Logger {
	if c.Log != nil {
		return c.Log
	}
	return zap.NewNop()
}

// Contact — контактные данные покупателя в том виде, как их ввели.
type Contact struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Totals are recomputed from the cart on every call, never cached.
type Totals struct {
	Subtotal    int64 `json:"subtotal"`
	DeliveryFee int64 `json:"delivery_fee"`
	Total       int64 `json:"total"`
}

// Session — открытое оформление заказа, без собственной синхронизации.
type Session struct {
	ID       string
	OpenedAt time.Time

	cfg       *Config
	state     State
	method    Method
	region    string
	subRegion string
	contact   Contact
	address   location.Capture
	pending   *verify.Pending
	verified  *verify.Verified
	// issued and issuedAt survive Back so an unchanged receipt keeps its token.
	issued   string
	issuedAt time.Time
}

func NewSession(id string, cfg *Config) *Session {
	s := &Session{ID: id, cfg: cfg}
	s.Reset()
	return s
}

// Reset returns the session to its initial state: step 1, pickup, nothing captured.
func (s *Session) Reset() {
	s.OpenedAt = s.cfg.Now()
	s.state = MethodSelection{}
	s.method = MethodPickup
	s.region, s.subRegion = "", ""
	s.contact = Contact{}
	s.address = location.New()
	s.pending, s.verified = nil, nil
	s.issued, s.issuedAt = "", time.Time{}
}

func (s *Session) State() State      { return s.state }
func (s *Session) Step() Step        { return s.state.Step() }
func (s *Session) Method() Method    { return s.method }
func (s *Session) Region() string    { return s.region }
func (s *Session) SubRegion() string { return s.subRegion }
func (s *Session) Contact() Contact  { return s.contact }

func (s *Session) Address() location.Capture { return s.address }

// Issued returns the last token this session issued, even after Back.
func (s *Session) Issued() string { return s.issued }

// Token returns the receipt token once the session reached step 3.
func (s *Session) Token() (string, bool) {
	if r, ok := s.state.(ReceiptReady); ok {
		return r.Token, true
	}
	return "", false
}

func (s *Session) requireStep(step Step) error {
	if s.state.Step() != step {
		return fmt.Errorf("%w: at %s, need %s", domain.ErrWrongStep, s.state.Step(), step)
	}
	return nil
}

// SelectMethod switches between pickup and delivery. Pickup drops any region
// selection.
func (s *Session) SelectMethod(m Method) error {
	if err := s.requireStep(StepMethodSelection); err != nil {
		return err
	}
	if _, err := ParseMethod(string(m)); err != nil {
		v := &domain.ValidationError{}
		v.Add("method", err.Error())
		return v
	}
	s.method = m
	if m == MethodPickup {
		s.region, s.subRegion = "", ""
	}
	return nil
}

// SelectRegion sets the delivery region. Changing region clears the
// sub-region so a stale cross-region pair cannot survive.
func (s *Session) SelectRegion(region string) error {
	if err := s.requireStep(StepMethodSelection); err != nil {
		return err
	}
	if s.method != MethodDelivery {
		v := &domain.ValidationError{}
		v.Add("region", "only applies to delivery")
		return v
	}
	region = strings.TrimSpace(region)
	if region != s.region {
		s.subRegion = ""
	}
	s.region = region
	if region != "" {
		s.address.ResolveApproximateCoordinates(s.cfg.Table, region)
	}
	return nil
}

func (s *Session) SelectSubRegion(sub string) error {
	if err := s.requireStep(StepMethodSelection); err != nil {
		return err
	}
	sub = strings.TrimSpace(sub)
	if sub != "" && s.region == "" {
		v := &domain.ValidationError{}
		v.Add("sub_region", "select a region first")
		return v
	}
	s.subRegion = sub
	return nil
}

// Choose applies a whole step 1 selection. Region fields are ignored for
// pickup. A refused selection leaves the session as it was.
func (s *Session) Choose(m Method, region, sub string) error {
	if err := s.requireStep(StepMethodSelection); err != nil {
		return err
	}
	v := &domain.ValidationError{}
	if _, err := ParseMethod(string(m)); err != nil {
		v.Add("method", err.Error())
	}
	if m == MethodDelivery && strings.TrimSpace(sub) != "" && strings.TrimSpace(region) == "" {
		v.Add("sub_region", "select a region first")
	}
	if len(v.Fields) > 0 {
		return v
	}

	if err := s.SelectMethod(m); err != nil {
		return err
	}
	if m != MethodDelivery {
		return nil
	}
	if err := s.SelectRegion(region); err != nil {
		return err
	}
	return s.SelectSubRegion(sub)
}

// SetContact stores phone and e-mail as entered. Changing the phone number
// invalidates an earlier verification.
func (s *Session) SetContact(phone, email string) error {
	if err := s.requireStep(StepDetailsCapture); err != nil {
		return err
	}
	phone, email = strings.TrimSpace(phone), strings.TrimSpace(email)
	if phone != s.contact.Phone {
		s.pending, s.verified = nil, nil
	}
	s.contact = Contact{Phone: phone, Email: email}
	return nil
}

func (s *Session) SetAddress(street, unit, propertyType, additional string) error {
	if err := s.requireStep(StepDetailsCapture); err != nil {
		return err
	}
	s.address.SetAddressText(street, unit)
	if propertyType != "" {
		s.address.SetPropertyType(propertyType)
	}
	s.address.SetAdditional(additional)
	return nil
}

func (s *Session) SetCoordinates(lat, lng float64) error {
	if err := s.requireStep(StepDetailsCapture); err != nil {
		return err
	}
	return s.address.SetCoordinates(lat, lng)
}

// Totals computes subtotal + delivery fee for the given cart snapshot.
func (s *Session) Totals(lines []domain.CartLine) Totals {
	t := Totals{Subtotal: cart.Subtotal(lines)}
	if s.method == MethodDelivery {
		t.DeliveryFee = s.cfg.Table.Fee(s.region, s.subRegion)
	}
	t.Total = t.Subtotal + t.DeliveryFee
	return t
}

// Step1Valid: pickup, or delivery with both region and sub-region chosen.
func (s *Session) Step1Valid() bool {
	return s.validateStep1() == nil
}

// Step2Valid reports whether Next would accept the captured details.
func (s *Session) Step2Valid() bool {
	_, err := s.validateStep2()
	return err == nil
}

func (s *Session) validateStep1() error {
	v := &domain.ValidationError{}
	if s.method == MethodDelivery {
		if s.region == "" {
			v.Add("region", "required for delivery")
		}
		if s.subRegion == "" {
			v.Add("sub_region", "required for delivery")
		}
	}
	return v.Err()
}

func (s *Session) validateStep2() (string, error) {
	v := &domain.ValidationError{}
	phone, err := contact.NormalizePhone(s.contact.Phone, s.cfg.CountryCode)
	if err != nil {
		v.Add("phone", err.Error())
	} else if s.cfg.RequireVerification && (s.verified == nil || s.verified.Phone != phone) {
		v.Add("phone", domain.ErrNotVerified.Error())
	}
	if err := contact.ValidateEmail(s.contact.Email); err != nil {
		v.Add("email", err.Error())
	}
	if s.method == MethodDelivery {
		if s.address.Street == "" {
			v.Add("street", "required for delivery")
		}
		if s.address.Unit == "" {
			v.Add("unit", "required for delivery")
		}
	}
	return phone, v.Err()
}

// Next advances one step. A refused transition leaves the session unchanged.
// Entering ReceiptReady assembles the receipt from the session and lines,
// encodes it, and copies the token to the clipboard on a best-effort basis.
func (s *Session) Next(lines []domain.CartLine) (State, error) {
	switch s.state.(type) {
	case MethodSelection:
		if err := s.validateStep1(); err != nil {
			return s.state, err
		}
		s.state = DetailsCapture{}
	case DetailsCapture:
		phone, err := s.validateStep2()
		if err != nil {
			return s.state, err
		}
		if len(lines) == 0 {
			return s.state, domain.ErrEmptyCart
		}
		r := s.assemble(phone, lines)
		token := s.cfg.Codec.Encode(r.Text())
		if token == "" {
			return s.state, errors.New("checkout: encoder produced an empty token")
		}
		s.state = ReceiptReady{Token: token, Receipt: r}
		s.issued, s.issuedAt = token, r.IssuedAt
		s.copyToClipboard(token)
	case ReceiptReady:
		return s.state, fmt.Errorf("%w: receipt already issued", domain.ErrWrongStep)
	}
	return s.state, nil
}

// Back goes to the previous step. It is always allowed and keeps every
// captured field; at step 1 it does nothing. Advancing again re-issues the
// receipt with its original time, so unchanged data yields the same token.
func (s *Session) Back() State {
	switch s.state.(type) {
	case ReceiptReady:
		s.state = DetailsCapture{}
	case DetailsCapture:
		s.state = MethodSelection{}
	}
	return s.state
}

func (s *Session) assemble(phone string, lines []domain.CartLine) Receipt {
	totals := s.Totals(lines)
	issuedAt := s.issuedAt
	if issuedAt.IsZero() {
		issuedAt = s.cfg.Now()
	}
	r := Receipt{
		IssuedAt:    issuedAt,
		Method:      s.method,
		Region:      s.region,
		SubRegion:   s.subRegion,
		Phone:       phone,
		Email:       s.contact.Email,
		Lines:       append([]domain.CartLine(nil), lines...),
		Subtotal:    totals.Subtotal,
		DeliveryFee: totals.DeliveryFee,
		Total:       totals.Total,
	}
	if s.method == MethodDelivery {
		r.Street = s.address.Street
		r.Unit = s.address.Unit
		r.PropertyType = s.address.PropertyType
		r.Additional = s.address.Additional
		r.Coordinates = s.address.Coordinates()
		r.MapsLink = s.address.MapsLink()
	}
	return r
}

func (s *Session) copyToClipboard(token string) {
	if s.cfg.Clipboard == nil {
		return
	}
	if err := s.cfg.Clipboard.WriteText(token); err != nil {
		s.cfg.logger().Warn("copy receipt token to clipboard", zap.String("session_id", s.ID), zap.Error(err))
	}
}

// VerificationTarget returns the normalized phone a code should be sent to.
func (s *Session) VerificationTarget() (string, error) {
	if err := s.requireStep(StepDetailsCapture); err != nil {
		return "", err
	}
	phone, err := contact.NormalizePhone(s.contact.Phone, s.cfg.CountryCode)
	if err != nil {
		v := &domain.ValidationError{}
		v.Add("phone", err.Error())
		return "", v
	}
	return phone, nil
}

// AttachPending records a sent code. Results for a number the customer has
// since changed are discarded.
func (s *Session) AttachPending(p verify.Pending) bool {
	if phone, err := s.VerificationTarget(); err != nil || phone != p.Phone {
		return false
	}
	s.pending = &p
	return true
}

func (s *Session) Pending() (verify.Pending, bool) {
	if s.pending == nil {
		return verify.Pending{}, false
	}
	return *s.pending, true
}

// MarkVerified records a confirmed number; stale confirmations are discarded.
func (s *Session) MarkVerified(v verify.Verified) bool {
	if phone, err := s.VerificationTarget(); err != nil || phone != v.Phone {
		return false
	}
	s.verified = &v
	s.pending = nil
	return true
}

func (s *Session) Verified() bool {
	if s.verified == nil {
		return false
	}
	phone, err := contact.NormalizePhone(s.contact.Phone, s.cfg.CountryCode)
	return err == nil && phone == s.verified.Phone
}
