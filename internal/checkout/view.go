package checkout

import (
	"github.com/example/zari-storefront/internal/domain"
)

// View is the read model of a session for API responses.
type View struct {
	ID           string             `json:"id"`
	Step         Step               `json:"step"`
	StepName     string             `json:"step_name"`
	Method       Method             `json:"method"`
	Region       string             `json:"region,omitempty"`
	SubRegion    string             `json:"sub_region,omitempty"`
	Contact      Contact            `json:"contact"`
	Street       string             `json:"street,omitempty"`
	Unit         string             `json:"unit,omitempty"`
	PropertyType string             `json:"property_type,omitempty"`
	Additional   string             `json:"additional,omitempty"`
	Coordinates  domain.Coordinates `json:"coordinates"`
	HasPin       bool               `json:"has_pin"`
	CodeSent     bool               `json:"code_sent"`
	Verified     bool               `json:"verified"`
	Step1Valid   bool               `json:"step1_valid"`
	Step2Valid   bool               `json:"step2_valid"`
	Totals       Totals             `json:"totals"`
	Token        string             `json:"token,omitempty"`
	Receipt      *Receipt           `json:"receipt,omitempty"`
}

func (s *Session) View(lines []domain.CartLine) View {
	_, pending := s.Pending()
	v := View{
		ID:           s.ID,
		Step:         s.Step(),
		StepName:     s.Step().String(),
		Method:       s.method,
		Region:       s.region,
		SubRegion:    s.subRegion,
		Contact:      s.contact,
		Street:       s.address.Street,
		Unit:         s.address.Unit,
		PropertyType: s.address.PropertyType,
		Additional:   s.address.Additional,
		Coordinates:  s.address.Coordinates(),
		HasPin:       s.address.HasPin(),
		CodeSent:     pending,
		Verified:     s.Verified(),
		Step1Valid:   s.Step1Valid(),
		Step2Valid:   s.Step2Valid(),
		Totals:       s.Totals(lines),
	}
	if r, ok := s.state.(ReceiptReady); ok {
		v.Token = r.Token
		receipt := r.Receipt
		v.Receipt = &receipt
	}
	return v
}
