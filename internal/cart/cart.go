// Package cart implements the line-item aggregate shared by the cart page and checkout.
package cart

import (
	"encoding/json"
	"fmt"

	"github.com/example/zari-storefront/internal/domain"
)

// Cart — набор строк корзины; productID уникален, количество >= 1.
// Без синхронизации: доступ упорядочивает вызывающий.
type Cart struct {
	lines []domain.CartLine
}

// New builds a cart from persisted lines, repairing anything that breaks the
// invariants: blank ids and non-positive quantities are dropped, duplicates merged.
func New(lines []domain.CartLine) *Cart {
	c := &Cart{}
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity < 1 {
			continue
		}
		if i := c.index(l.ProductID); i >= 0 {
			c.lines[i].Quantity += l.Quantity
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}

// Add puts p in the cart with quantity 1. A product already present is left
// untouched and Add reports false.
func (c *Cart) Add(p domain.Product) (bool, error) {
	v := &domain.ValidationError{}
	if p.ID == "" {
		v.Add("product_id", "required")
	}
	if p.NameEn == "" {
		v.Add("name_en", "required")
	}
	if p.UnitPrice < 0 {
		v.Add("unit_price", "must not be negative")
	}
	if err := v.Err(); err != nil {
		return false, err
	}
	if c.index(p.ID) >= 0 {
		return false, nil
	}
	c.lines = append(c.lines, domain.CartLine{
		ProductID: p.ID,
		NameEn:    p.NameEn,
		NameAr:    p.NameAr,
		UnitPrice: p.UnitPrice,
		Quantity:  1,
	})
	return true, nil
}

func (c *Cart) Increment(productID string) error {
	i := c.index(productID)
	if i < 0 {
		return fmt.Errorf("cart line %q: %w", productID, domain.ErrNotFound)
	}
	c.lines[i].Quantity++
	return nil
}

// Decrement lowers the quantity by one; at quantity 1 the line is removed
// instead and removed is true.
func (c *Cart) Decrement(productID string) (removed bool, err error) {
	i := c.index(productID)
	if i < 0 {
		return false, fmt.Errorf("cart line %q: %w", productID, domain.ErrNotFound)
	}
	if c.lines[i].Quantity <= 1 {
		c.removeAt(i)
		return true, nil
	}
	c.lines[i].Quantity--
	return false, nil
}

func (c *Cart) Remove(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	return true
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Find(productID string) (domain.CartLine, bool) {
	if i := c.index(productID); i >= 0 {
		return c.lines[i], true
	}
	return domain.CartLine{}, false
}

// Lines returns a copy in insertion order.
func (c *Cart) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int    { return len(c.lines) }
func (c *Cart) Empty() bool { return len(c.lines) == 0 }

// Subtotal is Σ unitPrice × quantity.
func (c *Cart) Subtotal() int64 {
	return Subtotal(c.lines)
}

// Subtotal sums line totals of an arbitrary snapshot.
func Subtotal(lines []domain.CartLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.LineTotal()
	}
	return sum
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	if c.lines == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.lines)
}

func (c *Cart) UnmarshalJSON(b []byte) error {
	var lines []domain.CartLine
	if err := json.Unmarshal(b, &lines); err != nil {
		return err
	}
	*c = *New(lines)
	return nil
}

func (c *Cart) index(productID string) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}
