// Package location holds the delivery pin and free-text address of a checkout.
package location

import (
	"fmt"
	"strings"

	"github.com/example/zari-storefront/internal/domain"
)

// Fallback is the Ajman Makhriz store, used whenever no better point is known.
var Fallback = domain.Coordinates{Lat: 25.4052, Lng: 55.5136}

// Property types offered by the address form.
const (
	PropertyVilla     = "Villa"
	PropertyApartment = "Apartment"
	PropertyHotel     = "Hotel"
	PropertyOffice    = "Office"
	PropertyOther     = "Other"
)

var propertyTypes = map[string]bool{
	PropertyVilla: true, PropertyApartment: true, PropertyHotel: true, PropertyOffice: true, PropertyOther: true,
}

// Centroids resolves an approximate center for a region key.
type Centroids interface {
	Centroid(region string) (domain.Coordinates, bool)
}

// Capture — точка доставки и адрес; координаты всегда образуют допустимую пару.
type Capture struct {
	coords       domain.Coordinates
	pinned       bool
	Street       string `json:"street"`
	Unit         string `json:"unit"`
	PropertyType string `json:"property_type"`
	Additional   string `json:"additional"`
}

func New() Capture {
	return Capture{coords: Fallback, PropertyType: PropertyVilla}
}

func (c *Capture) Coordinates() domain.Coordinates {
	if !c.coords.Valid() || c.coords == (domain.Coordinates{}) {
		return Fallback
	}
	return c.coords
}

// HasPin reports whether the customer placed the pin explicitly.
func (c *Capture) HasPin() bool { return c.pinned }

// SetCoordinates pins an explicit point. Out-of-range pairs are rejected and
// the previous point kept.
func (c *Capture) SetCoordinates(lat, lng float64) error {
	p := domain.Coordinates{Lat: lat, Lng: lng}
	if !p.Valid() {
		v := &domain.ValidationError{}
		v.Add("coordinates", fmt.Sprintf("(%g, %g) is out of range", lat, lng))
		return v
	}
	c.coords = p
	c.pinned = true
	return nil
}

func (c *Capture) SetAddressText(street, unit string) {
	c.Street = strings.TrimSpace(street)
	c.Unit = strings.TrimSpace(unit)
}

// SetPropertyType falls back to Villa for unknown values.
func (c *Capture) SetPropertyType(t string) {
	if !propertyTypes[t] {
		t = PropertyVilla
	}
	c.PropertyType = t
}

func (c *Capture) SetAdditional(info string) {
	c.Additional = strings.TrimSpace(info)
}

// ResolveApproximateCoordinates returns the centroid of region, or Fallback.
// When no explicit pin exists the capture is re-centered on the result.
func (c *Capture) ResolveApproximateCoordinates(table Centroids, region string) domain.Coordinates {
	p := Fallback
	if table != nil {
		if centroid, ok := table.Centroid(region); ok && centroid.Valid() {
			p = centroid
		}
	}
	if !c.pinned {
		c.coords = p
	}
	return p
}

// MapsLink renders a link the operator can open to see the pin.
func (c *Capture) MapsLink() string {
	p := c.Coordinates()
	return fmt.Sprintf("https://www.google.com/maps?q=%.6f,%.6f", p.Lat, p.Lng)
}
